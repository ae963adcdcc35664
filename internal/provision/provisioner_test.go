package provision_test

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vk/haloprov/internal/config"
	"github.com/vk/haloprov/internal/model"
	"github.com/vk/haloprov/internal/patch"
	"github.com/vk/haloprov/internal/provision"
	"github.com/vk/haloprov/internal/testutil"
)

// fixture bundles a provisioner wired with fakes over the canonical
// pipeline source tree.
type fixture struct {
	cfg       *config.Model
	baseDir   string
	env       *testutil.FakeEnvironment
	runner    *testutil.FakeRunner
	fetcher   *testutil.FakeFetcher
	scheduler *testutil.FakeScheduler
	archiver  *testutil.FakeArchiver
}

func newFixture(t *testing.T, identity model.RunIdentity) *fixture {
	t.Helper()
	cfg := config.Default(identity)
	cfg.Pipeline.SourceDir = testutil.PipelineSource(t)
	return &fixture{
		cfg:     cfg,
		baseDir: t.TempDir(),
		env:     &testutil.FakeEnvironment{},
		runner: &testutil.FakeRunner{Produce: map[string]string{
			"cosmology_rescaling_factor_xi_zel_8.txt": "1.0234\n",
			"target_num_den_rescaled.txt":             "0.00314\n",
		}},
		fetcher:   &testutil.FakeFetcher{},
		scheduler: &testutil.FakeScheduler{},
		archiver:  &testutil.FakeArchiver{},
	}
}

func (f *fixture) provisioner(opts ...func(*provision.Options)) *provision.Provisioner {
	o := provision.Options{
		BaseDir:     f.baseDir,
		Environment: f.env,
		Runner:      f.runner,
		Fetcher:     f.fetcher,
		Scheduler:   f.scheduler,
		Archiver:    f.archiver,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return provision.New(f.cfg, o)
}

func (f *fixture) runDir(identity model.RunIdentity) string {
	return filepath.Join(f.baseDir, identity.DirName())
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(raw)
}

func TestRun_EndToEnd(t *testing.T) {
	identity := model.RunIdentity{Cosmology: 2, Phase: 5}
	f := newFixture(t, identity)

	manifest, err := f.provisioner().Run(context.Background(), identity)
	require.NoError(t, err)

	runDir := f.runDir(identity)
	assert.Equal(t, "halo_fitting_2_5", filepath.Base(runDir))
	assert.DirExists(t, filepath.Join(runDir, "logs"))

	// Patched parameters.
	assert.Contains(t, readFile(t, filepath.Join(runDir, "rescaling_code", "xi_rescaling_factor.py")),
		"cosmo_number = 2")
	tracer := readFile(t, filepath.Join(runDir, "tracer_snapshot.py"))
	assert.Contains(t, tracer, "cosmo = 2")
	assert.Contains(t, tracer, "ph = 5")

	// Preparatory results exist and were staged into the fetched dependency.
	assert.FileExists(t, filepath.Join(runDir, "cosmology_rescaling_factor_xi_zel_8.txt"))
	assert.FileExists(t, filepath.Join(runDir, "target_num_den_rescaled.txt"))
	assert.FileExists(t, filepath.Join(runDir, "FastHodFitting", "fitting_smoothed_curves",
		"cosmology_rescaling_factor_xi_zel_8.txt"))
	assert.FileExists(t, filepath.Join(runDir, "FastHodFitting", "fitting_smoothed_curves",
		"target_num_den_rescaled.txt"))

	// Both repositories were fetched.
	assert.Len(t, f.fetcher.Cloned, 2)
	assert.DirExists(t, filepath.Join(runDir, "shared_code"))

	// Exactly two jobs, with job 2 chained after job 1's identity token.
	require.Len(t, manifest.Jobs, 2)
	require.Len(t, f.scheduler.Requests, 2)
	assert.Nil(t, f.scheduler.Requests[0].Dependency)
	dep := f.scheduler.Requests[1].Dependency
	require.NotNil(t, dep)
	assert.Equal(t, manifest.Jobs[0].JobID, dep.JobID)
	assert.Equal(t, model.AfterAny, dep.When)

	// Manifest written and readable.
	var onDisk model.Manifest
	require.NoError(t, yaml.Unmarshal([]byte(readFile(t, filepath.Join(runDir, model.ManifestFileName))), &onDisk))
	assert.Equal(t, manifest.RunID, onDisk.RunID)
	assert.Equal(t, 2, onDisk.Cosmology)
	assert.Equal(t, 5, onDisk.Phase)
	require.Len(t, onDisk.Jobs, 2)
	assert.Equal(t, manifest.Jobs[0].JobID, onDisk.Jobs[1].DependsOn)

	// Result files archived under the run prefix.
	assert.Len(t, f.archiver.Uploads[identity.DirName()], 2)
}

func TestRun_PatchedValues(t *testing.T) {
	for _, tc := range []model.RunIdentity{
		{Cosmology: 0, Phase: 0},
		{Cosmology: 1, Phase: 1},
		{Cosmology: 7, Phase: 42},
		{Cosmology: 42, Phase: 7},
	} {
		t.Run(tc.DirName(), func(t *testing.T) {
			f := newFixture(t, tc)
			_, err := f.provisioner().Run(context.Background(), tc)
			require.NoError(t, err)

			runDir := f.runDir(tc)
			assert.Contains(t, readFile(t, filepath.Join(runDir, "rescaling_code", "target_number_density.py")),
				fmt.Sprintf("cosmo_number = %d", tc.Cosmology))
			unresolved := readFile(t, filepath.Join(runDir, "tracer_snapshot_unresolved.py"))
			assert.Contains(t, unresolved, fmt.Sprintf("cosmo = %d", tc.Cosmology))
			assert.Contains(t, unresolved, fmt.Sprintf("ph = %d", tc.Phase))
		})
	}
}

func TestRun_ExistingDirectoryFails(t *testing.T) {
	identity := model.RunIdentity{Cosmology: 2, Phase: 5}
	f := newFixture(t, identity)
	require.NoError(t, os.Mkdir(f.runDir(identity), 0755))

	_, err := f.provisioner().Run(context.Background(), identity)
	require.Error(t, err)
	assert.ErrorIs(t, err, provision.ErrDirectoryExists)

	// Idempotent failure: nothing was mutated beyond the existence check.
	entries, readErr := os.ReadDir(f.runDir(identity))
	require.NoError(t, readErr)
	assert.Empty(t, entries)
	assert.Empty(t, f.scheduler.Requests)
}

func TestRun_CreationDeniedSurfacesPermissionError(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}

	identity := model.RunIdentity{Cosmology: 2, Phase: 5}
	f := newFixture(t, identity)
	require.NoError(t, os.Chmod(f.baseDir, 0555))
	t.Cleanup(func() { _ = os.Chmod(f.baseDir, 0755) })

	_, err := f.provisioner().Run(context.Background(), identity)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.NoDirExists(t, f.runDir(identity))
	assert.Empty(t, f.scheduler.Requests)
}

func TestRun_StagingFailureAbortsBeforeSubmission(t *testing.T) {
	identity := model.RunIdentity{Cosmology: 1, Phase: 2}
	f := newFixture(t, identity)
	require.NoError(t, os.Remove(filepath.Join(f.cfg.Pipeline.SourceDir, "launch_fit.sh")))

	_, err := f.provisioner().Run(context.Background(), identity)
	require.Error(t, err)

	var stagingErr *provision.StagingError
	assert.ErrorAs(t, err, &stagingErr)
	assert.Empty(t, f.scheduler.Requests)
	assert.Empty(t, f.runner.Commands)
}

func TestRun_UnappliedPatchIsFatal(t *testing.T) {
	identity := model.RunIdentity{Cosmology: 1, Phase: 2}
	f := newFixture(t, identity)
	// The staged tracer script no longer carries the expected literal.
	require.NoError(t, os.WriteFile(
		filepath.Join(f.cfg.Pipeline.SourceDir, "tracer_snapshot.py"),
		[]byte("cosmo = -1\nph = -1\n"), 0644))

	_, err := f.provisioner().Run(context.Background(), identity)
	require.Error(t, err)
	assert.ErrorIs(t, err, patch.ErrNotApplied)
	assert.Empty(t, f.scheduler.Requests)
}

func TestRun_MissingEnvironment(t *testing.T) {
	identity := model.RunIdentity{Cosmology: 1, Phase: 2}
	f := newFixture(t, identity)
	f.env.ValidateErr = errors.New("conda environment \"halofit\" does not exist")

	_, err := f.provisioner().Run(context.Background(), identity)
	require.Error(t, err)

	var envErr *provision.EnvironmentError
	require.ErrorAs(t, err, &envErr)
	assert.Equal(t, "halofit", envErr.Name)
	assert.Empty(t, f.scheduler.Requests)
}

func TestRun_PreparatoryFailureIsFatal(t *testing.T) {
	identity := model.RunIdentity{Cosmology: 1, Phase: 2}
	f := newFixture(t, identity)
	f.runner.Err = errors.New("exit status 1")

	_, err := f.provisioner().Run(context.Background(), identity)
	require.Error(t, err)

	var prepErr *provision.PreparatoryComputationError
	assert.ErrorAs(t, err, &prepErr)
	assert.Empty(t, f.fetcher.Cloned)
	assert.Empty(t, f.scheduler.Requests)
}

func TestRun_MissingResultFileIsFatal(t *testing.T) {
	identity := model.RunIdentity{Cosmology: 1, Phase: 2}
	f := newFixture(t, identity)
	delete(f.runner.Produce, "target_num_den_rescaled.txt")

	_, err := f.provisioner().Run(context.Background(), identity)
	require.Error(t, err)

	var prepErr *provision.PreparatoryComputationError
	require.ErrorAs(t, err, &prepErr)
	assert.Equal(t, "target_num_den_rescaled.txt", prepErr.Script)
}

func TestRun_FetchFailureIsFatal(t *testing.T) {
	identity := model.RunIdentity{Cosmology: 1, Phase: 2}
	f := newFixture(t, identity)
	f.fetcher.Err = errors.New("network unreachable")

	_, err := f.provisioner().Run(context.Background(), identity)
	require.Error(t, err)

	var fetchErr *provision.FetchError
	assert.ErrorAs(t, err, &fetchErr)
	assert.Empty(t, f.scheduler.Requests)
}

func TestRun_SubmissionRejection(t *testing.T) {
	identity := model.RunIdentity{Cosmology: 1, Phase: 2}
	f := newFixture(t, identity)
	f.scheduler.Err = errors.New("sbatch: error: invalid account")

	_, err := f.provisioner().Run(context.Background(), identity)
	require.Error(t, err)

	var subErr *provision.SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, "fit", subErr.Job)
}

func TestRun_DryRun(t *testing.T) {
	identity := model.RunIdentity{Cosmology: 3, Phase: 9}
	f := newFixture(t, identity)

	manifest, err := f.provisioner(func(o *provision.Options) { o.DryRun = true }).
		Run(context.Background(), identity)
	require.NoError(t, err)

	// Staged and patched, but nothing external ran.
	runDir := f.runDir(identity)
	assert.Contains(t, readFile(t, filepath.Join(runDir, "tracer_snapshot.py")), "ph = 9")
	assert.True(t, f.env.Validated)
	assert.Empty(t, f.runner.Commands)
	assert.Empty(t, f.fetcher.Cloned)
	assert.Empty(t, f.scheduler.Requests)
	assert.Empty(t, manifest.Jobs)
	assert.FileExists(t, filepath.Join(runDir, model.ManifestFileName))
}

func TestRun_ArchiveFailureIsNonFatal(t *testing.T) {
	identity := model.RunIdentity{Cosmology: 1, Phase: 2}
	f := newFixture(t, identity)
	f.archiver.Err = errors.New("bucket does not exist")

	manifest, err := f.provisioner().Run(context.Background(), identity)
	require.NoError(t, err)
	assert.Len(t, manifest.Jobs, 2)
}
