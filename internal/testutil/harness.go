// Package testutil provides shared helpers for haloprov tests: a canonical
// fake pipeline source tree and in-memory fakes for the external
// collaborators (environment manager, script runner, repository fetcher,
// batch scheduler).
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteSourceTree materializes a pipeline source directory from relative
// path -> content pairs and returns its root.
func WriteSourceTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return root
}

// PipelineSource returns the canonical fake source tree matching the
// built-in configuration: the four patched scripts with their default
// literal assignments, data files, and the three launch scripts.
func PipelineSource(t *testing.T) string {
	t.Helper()
	return WriteSourceTree(t, map[string]string{
		"tracer_snapshot.py":                          "import numpy as np\ncosmo = 0\nph = 0\n",
		"tracer_snapshot_unresolved.py":               "import numpy as np\ncosmo = 0\nph = 0\n",
		"halo_masses.csv":                             "mass,count\n1e12,42\n",
		"target_density.dat":                          "0.00314\n",
		"launch_fit.sh":                               "#!/bin/bash\n",
		"launch_fit_process.sh":                       "#!/bin/bash\n",
		"launch_hod_testing.sh":                       "#!/bin/bash\n",
		"rescaling_code/xi_rescaling_factor.py":       "cosmo_number = 0\n",
		"rescaling_code/target_number_density.py":     "cosmo_number = 0\n",
		"rescaling_code/hodpy/luminosity_function.py": "import numpy as np\n",
	})
}
