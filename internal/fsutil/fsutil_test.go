package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestListBySuffix(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b_script.py"), "pass")
	writeFile(t, filepath.Join(dir, "a_table.csv"), "1,2")
	writeFile(t, filepath.Join(dir, "launch.sh"), "#!/bin/bash")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, "nested", "deep.py"), "pass")

	names, err := ListBySuffix(dir, []string{".py", ".csv", ".dat", ".sh"})
	require.NoError(t, err)

	// Sorted, top-level only, unrecognized suffixes skipped.
	assert.Equal(t, []string{"a_table.csv", "b_script.py", "launch.sh"}, names)
}

func TestListBySuffix_MissingDir(t *testing.T) {
	_, err := ListBySuffix(filepath.Join(t.TempDir(), "nope"), []string{".py"})
	assert.Error(t, err)
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.sh")
	dst := filepath.Join(dir, "dst.sh")
	require.NoError(t, os.WriteFile(src, []byte("#!/bin/bash\n"), 0755))

	require.NoError(t, CopyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/bash\n", string(got))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())

	// Value semantics: mutating the source leaves the copy untouched.
	require.NoError(t, os.WriteFile(src, []byte("changed"), 0755))
	got, err = os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/bash\n", string(got))
}

func TestCopyDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "rescaling_code")
	writeFile(t, filepath.Join(src, "xi_rescaling_factor.py"), "cosmo_number = 0")
	writeFile(t, filepath.Join(src, "hodpy", "luminosity_function.py"), "import numpy")

	dst := filepath.Join(dir, "run", "rescaling_code")
	require.NoError(t, CopyDir(src, dst))

	got, err := os.ReadFile(filepath.Join(dst, "hodpy", "luminosity_function.py"))
	require.NoError(t, err)
	assert.Equal(t, "import numpy", string(got))
}
