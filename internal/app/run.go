package app

import (
	"context"
	"fmt"

	"github.com/vk/haloprov/internal/artifacts"
	"github.com/vk/haloprov/internal/ctxlog"
	"github.com/vk/haloprov/internal/envmgr"
	"github.com/vk/haloprov/internal/execrun"
	"github.com/vk/haloprov/internal/gitfetch"
	"github.com/vk/haloprov/internal/model"
	"github.com/vk/haloprov/internal/provision"
	"github.com/vk/haloprov/internal/scheduler"
)

// Run executes one provisioning run based on the application configuration.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	identity, err := model.NewRunIdentity(a.cfg.Cosmology, a.cfg.Phase)
	if err != nil {
		return err
	}
	a.logger.Info("Provisioning run.", "cosmology", identity.Cosmology, "phase", identity.Phase)

	cfg, err := a.loader.Load(ctx, a.cfg.ConfigPath, identity)
	if err != nil {
		return err
	}
	if a.cfg.SourceDir != "" {
		cfg.Pipeline.SourceDir = a.cfg.SourceDir
	}

	opts := provision.Options{
		BaseDir:     a.cfg.BaseDir,
		Environment: envmgr.NewConda(cfg.Pipeline.Environment),
		Runner:      execrun.NewLocal(),
		Fetcher:     gitfetch.New(),
		Scheduler:   scheduler.NewSlurm(),
		DryRun:      a.cfg.DryRun,
	}

	if arc := cfg.Archive; arc != nil {
		store, err := artifacts.NewStore(artifacts.Options{
			Endpoint:  arc.Endpoint,
			Bucket:    arc.Bucket,
			AccessKey: arc.AccessKey,
			SecretKey: arc.SecretKey,
			UseSSL:    arc.UseSSL,
		})
		if err != nil {
			return fmt.Errorf("configuring artifact archive: %w", err)
		}
		opts.Archiver = store
	}

	manifest, err := provision.New(cfg, opts).Run(ctx, identity)
	if err != nil {
		return err
	}

	for _, job := range manifest.Jobs {
		a.logger.Info("Submitted.", "job", job.Name, "job_id", job.JobID, "depends_on", job.DependsOn)
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}
