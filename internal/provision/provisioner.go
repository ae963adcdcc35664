// Package provision materializes an isolated run directory for one
// (cosmology, phase) identity and launches the downstream batch chain:
// directory creation, staging, parameter patching, environment activation,
// synchronous preparatory computations, dependency fetch, input staging and
// ordered job submission.
//
// Every step is fail-fast with no retries and no rollback: a failure aborts
// the run and leaves the partially built directory in place for diagnosis.
package provision

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/vk/haloprov/internal/artifacts"
	"github.com/vk/haloprov/internal/config"
	"github.com/vk/haloprov/internal/ctxlog"
	"github.com/vk/haloprov/internal/envmgr"
	"github.com/vk/haloprov/internal/execrun"
	"github.com/vk/haloprov/internal/fsutil"
	"github.com/vk/haloprov/internal/gitfetch"
	"github.com/vk/haloprov/internal/model"
	"github.com/vk/haloprov/internal/patch"
	"github.com/vk/haloprov/internal/scheduler"
)

// logsDir is the subdirectory created for scheduler and script output.
const logsDir = "logs"

// Provisioner builds run directories and launches the batch chain.
type Provisioner struct {
	cfg       *config.Model
	baseDir   string
	env       envmgr.Environment
	runner    execrun.Runner
	fetcher   gitfetch.Fetcher
	scheduler scheduler.Client
	archiver  artifacts.Archiver
	dryRun    bool

	now      func() time.Time
	newRunID func() string
}

// Options wires the provisioner's collaborators.
type Options struct {
	// BaseDir is where the run directory is created. Defaults to the
	// current directory.
	BaseDir     string
	Environment envmgr.Environment
	Runner      execrun.Runner
	Fetcher     gitfetch.Fetcher
	Scheduler   scheduler.Client
	// Archiver is optional; nil disables artifact archiving.
	Archiver artifacts.Archiver
	// DryRun stops after patching and environment validation: nothing is
	// executed, fetched or submitted.
	DryRun bool
}

// New returns a Provisioner for the given resolved configuration.
func New(cfg *config.Model, opts Options) *Provisioner {
	baseDir := opts.BaseDir
	if baseDir == "" {
		baseDir = "."
	}
	return &Provisioner{
		cfg:       cfg,
		baseDir:   baseDir,
		env:       opts.Environment,
		runner:    opts.Runner,
		fetcher:   opts.Fetcher,
		scheduler: opts.Scheduler,
		archiver:  opts.Archiver,
		dryRun:    opts.DryRun,
		now:       time.Now,
		newRunID:  uuid.NewString,
	}
}

// Run provisions the run directory for identity and submits the batch
// chain. On success the returned manifest has also been written into the
// run directory.
func (p *Provisioner) Run(ctx context.Context, identity model.RunIdentity) (*model.Manifest, error) {
	logger := ctxlog.FromContext(ctx).With("run", identity.DirName())
	ctx = ctxlog.WithLogger(ctx, logger)

	runDir, err := p.createRunDir(identity)
	if err != nil {
		return nil, err
	}
	logger.Info("Run directory created.", "path", runDir)

	staged, err := p.stage(ctx, runDir)
	if err != nil {
		return nil, err
	}
	logger.Info("Staging complete.", "files", staged)

	applied, err := patch.ApplyAll(ctx, runDir, p.cfg.Patches)
	if err != nil {
		return nil, err
	}
	logger.Info("Parameter patches applied.", "count", len(applied))

	if err := p.env.Validate(ctx); err != nil {
		return nil, &EnvironmentError{Name: p.cfg.Pipeline.Environment, Err: err}
	}
	logger.Debug("Computation environment validated.", "environment", p.cfg.Pipeline.Environment)

	manifest := &model.Manifest{
		RunID:       p.newRunID(),
		Cosmology:   identity.Cosmology,
		Phase:       identity.Phase,
		CreatedAt:   p.now().UTC(),
		SourceDir:   p.cfg.Pipeline.SourceDir,
		StagedFiles: staged,
		Patches:     applied,
	}

	if p.dryRun {
		logger.Info("Dry run: skipping computations, fetch and submission.")
		if err := p.writeManifest(runDir, manifest); err != nil {
			return nil, err
		}
		return manifest, nil
	}

	if err := p.runPreparatory(ctx, runDir); err != nil {
		return nil, err
	}

	if err := p.fetchDependencies(ctx, runDir); err != nil {
		return nil, err
	}

	if err := p.stageResults(runDir); err != nil {
		return nil, err
	}

	jobs, err := p.submitChain(ctx, runDir)
	if err != nil {
		return nil, err
	}
	manifest.Jobs = jobs

	if err := p.writeManifest(runDir, manifest); err != nil {
		return nil, err
	}

	p.archiveResults(ctx, runDir, identity)

	logger.Info("Provisioning complete.", "jobs", len(jobs))
	return manifest, nil
}

// createRunDir creates the run directory and its logs subdirectory. An
// existing directory is a hard failure with no further mutation.
func (p *Provisioner) createRunDir(identity model.RunIdentity) (string, error) {
	runDir := filepath.Join(p.baseDir, identity.DirName())
	if err := os.Mkdir(runDir, 0755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%s: %w", runDir, ErrDirectoryExists)
		}
		return "", fmt.Errorf("creating run directory %s: %w", runDir, err)
	}
	if err := os.Mkdir(filepath.Join(runDir, logsDir), 0755); err != nil {
		return "", fmt.Errorf("creating logs directory: %w", err)
	}
	return runDir, nil
}

// stage copies the suffix-matched file set, the named launch scripts and
// the rescaling subdirectory from the shared source into the run directory.
// Partial copies are not rolled back.
func (p *Provisioner) stage(ctx context.Context, runDir string) (int, error) {
	pl := p.cfg.Pipeline

	names, err := fsutil.ListBySuffix(pl.SourceDir, pl.StageSuffixes)
	if err != nil {
		return 0, &StagingError{Path: pl.SourceDir, Err: err}
	}

	staged := make(map[string]bool, len(names))
	for _, name := range names {
		if err := fsutil.CopyFile(filepath.Join(pl.SourceDir, name), filepath.Join(runDir, name)); err != nil {
			return 0, &StagingError{Path: name, Err: err}
		}
		staged[name] = true
	}

	// The launch scripts are required by name; the suffix sweep usually
	// catches them, but a missing one must fail here rather than at
	// submission time.
	for _, script := range pl.LaunchScripts {
		if staged[script] {
			continue
		}
		if err := fsutil.CopyFile(filepath.Join(pl.SourceDir, script), filepath.Join(runDir, script)); err != nil {
			return 0, &StagingError{Path: script, Err: err}
		}
		staged[script] = true
	}

	if pl.RescalingDir != "" {
		src := filepath.Join(pl.SourceDir, pl.RescalingDir)
		if _, err := os.Stat(src); err != nil {
			return 0, &StagingError{Path: pl.RescalingDir, Err: err}
		}
		if err := fsutil.CopyDir(src, filepath.Join(runDir, pl.RescalingDir)); err != nil {
			return 0, &StagingError{Path: pl.RescalingDir, Err: err}
		}
	}

	return len(staged), nil
}

// runPreparatory runs the preparatory computation scripts synchronously, in
// order, and checks each expected result file exists afterwards.
func (p *Provisioner) runPreparatory(ctx context.Context, runDir string) error {
	for _, script := range p.cfg.Pipeline.PrepScripts {
		logFile := filepath.Join(logsDir, logNameFor(script))
		argv := p.env.Wrap([]string{"python", script})
		if err := p.runner.Run(ctx, runDir, argv, logFile); err != nil {
			return &PreparatoryComputationError{Script: script, Err: err}
		}
	}

	for _, result := range p.cfg.Pipeline.ResultFiles {
		if _, err := os.Stat(filepath.Join(runDir, result)); err != nil {
			return &PreparatoryComputationError{
				Script: result,
				Err:    fmt.Errorf("expected result file was not produced: %w", err),
			}
		}
	}
	return nil
}

// fetchDependencies clones each external repository into the run directory.
func (p *Provisioner) fetchDependencies(ctx context.Context, runDir string) error {
	for _, repo := range p.cfg.Repositories {
		dest := filepath.Join(runDir, repo.Dest())
		if err := p.fetcher.Fetch(ctx, repo.URL, dest); err != nil {
			return &FetchError{Repo: repo.Name, Err: err}
		}
	}
	return nil
}

// stageResults copies the preparatory result files into the fetched
// dependency's input path, overwriting anything already there.
func (p *Provisioner) stageResults(runDir string) error {
	dest := filepath.Join(runDir, p.cfg.Pipeline.ResultDest)
	if err := os.MkdirAll(dest, 0755); err != nil {
		return &StagingError{Path: p.cfg.Pipeline.ResultDest, Err: err}
	}
	for _, result := range p.cfg.Pipeline.ResultFiles {
		if err := fsutil.CopyFile(filepath.Join(runDir, result), filepath.Join(dest, result)); err != nil {
			return &StagingError{Path: result, Err: err}
		}
	}
	return nil
}

// submitChain submits the enabled jobs in order, chaining each declared
// dependency to the identity token returned for the prerequisite job.
func (p *Provisioner) submitChain(ctx context.Context, runDir string) ([]model.SubmittedJob, error) {
	ids := make(map[string]string)
	var submitted []model.SubmittedJob

	for _, job := range p.cfg.EnabledJobs() {
		req := scheduler.Request{Script: job.Script, WorkDir: runDir, LogDir: logsDir}

		record := model.SubmittedJob{Name: job.Name}
		if job.After != "" {
			depID, ok := ids[job.After]
			if !ok {
				return submitted, &SubmissionError{
					Job: job.Name,
					Err: fmt.Errorf("depends on %q, which was not submitted", job.After),
				}
			}
			req.Dependency = &scheduler.Dependency{JobID: depID, When: job.When}
			record.DependsOn = depID
			record.When = job.When
		}

		jobID, err := p.scheduler.Submit(ctx, req)
		if err != nil {
			return submitted, &SubmissionError{Job: job.Name, Err: err}
		}
		ids[job.Name] = jobID
		record.JobID = jobID
		submitted = append(submitted, record)
	}

	return submitted, nil
}

// archiveResults uploads the result files to object storage when an
// archiver is configured. The jobs are already submitted, so failures here
// are logged and swallowed.
func (p *Provisioner) archiveResults(ctx context.Context, runDir string, identity model.RunIdentity) {
	if p.archiver == nil {
		return
	}
	files := make([]string, 0, len(p.cfg.Pipeline.ResultFiles))
	for _, result := range p.cfg.Pipeline.ResultFiles {
		files = append(files, filepath.Join(runDir, result))
	}
	if err := p.archiver.Archive(ctx, identity.DirName(), files); err != nil {
		ctxlog.FromContext(ctx).Warn("Archiving result files failed.", "error", err)
	}
}

// logNameFor maps a script path to its log file name, e.g.
// "rescaling_code/xi_rescaling_factor.py" -> "xi_rescaling_factor.log".
func logNameFor(script string) string {
	base := filepath.Base(script)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)] + ".log"
}
