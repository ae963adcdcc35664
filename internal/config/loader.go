// Package config loads and validates the haloprov configuration: built-in
// defaults for the production pipeline, optionally overridden by an HCL
// file. Patch text in the file may reference the run's identity either as
// HCL interpolation (`${cosmology}`, `${phase}`) or as literal placeholders
// (`{cosmology}`, `{phase}`); loading returns a fully resolved model.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/haloprov/internal/ctxlog"
	"github.com/vk/haloprov/internal/model"
	"github.com/vk/haloprov/internal/schema"
)

// Loader reads HCL configuration files.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load builds the resolved configuration for one run. When path is empty,
// the built-in defaults are returned as-is; otherwise the file's blocks are
// merged over the defaults. The returned model is validated.
func (l *Loader) Load(ctx context.Context, path string, identity model.RunIdentity) (*Model, error) {
	logger := ctxlog.FromContext(ctx)
	cfg := Default(identity)

	if path != "" {
		logger.Debug("Loading configuration file.", "path", path)
		root, err := l.parse(path, identity)
		if err != nil {
			return nil, err
		}
		l.merge(cfg, root, identity)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Debug("Configuration resolved.",
		"patches", len(cfg.Patches), "repositories", len(cfg.Repositories), "jobs", len(cfg.Jobs))
	return cfg, nil
}

// parse decodes a single HCL file with the run identity exposed as
// evaluation variables.
func (l *Loader) parse(path string, identity model.RunIdentity) (*schema.Root, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", path, diags)
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"cosmology": cty.NumberIntVal(int64(identity.Cosmology)),
			"phase":     cty.NumberIntVal(int64(identity.Phase)),
		},
	}

	var root schema.Root
	if diags := gohcl.DecodeBody(file.Body, evalCtx, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", path, diags)
	}
	return &root, nil
}

// expandPlaceholders substitutes the literal `{cosmology}` and `{phase}`
// placeholders with the identity's index values. HCL interpolation handles
// the `${...}` form during decoding; this covers the braced form used by
// configs written before variables were exposed.
func expandPlaceholders(s string, identity model.RunIdentity) string {
	return strings.NewReplacer(
		"{cosmology}", fmt.Sprintf("%d", identity.Cosmology),
		"{phase}", fmt.Sprintf("%d", identity.Phase),
	).Replace(s)
}

// merge overlays the decoded file blocks onto the default model. Scalar
// pipeline attributes override field-wise; block lists (patches,
// repositories, jobs) replace the default set entirely when present, so a
// file describes the whole chain it wants rather than appending to an
// invisible baseline.
func (l *Loader) merge(cfg *Model, root *schema.Root, identity model.RunIdentity) {
	if p := root.Pipeline; p != nil {
		if p.SourceDir != nil {
			cfg.Pipeline.SourceDir = *p.SourceDir
		}
		if p.Environment != nil {
			cfg.Pipeline.Environment = *p.Environment
		}
		if p.RescalingDir != nil {
			cfg.Pipeline.RescalingDir = *p.RescalingDir
		}
		if len(p.StageSuffixes) > 0 {
			cfg.Pipeline.StageSuffixes = p.StageSuffixes
		}
		if len(p.LaunchScripts) > 0 {
			cfg.Pipeline.LaunchScripts = p.LaunchScripts
		}
		if len(p.PrepScripts) > 0 {
			cfg.Pipeline.PrepScripts = p.PrepScripts
		}
		if len(p.ResultFiles) > 0 {
			cfg.Pipeline.ResultFiles = p.ResultFiles
		}
		if p.ResultDest != nil {
			cfg.Pipeline.ResultDest = *p.ResultDest
		}
	}

	if len(root.Patches) > 0 {
		cfg.Patches = nil
		for _, p := range root.Patches {
			rule := model.PatchRule{
				File:    p.File,
				Find:    expandPlaceholders(p.Find, identity),
				Replace: expandPlaceholders(p.Replace, identity),
			}
			if p.AllowMissing != nil {
				rule.AllowMissing = *p.AllowMissing
			}
			cfg.Patches = append(cfg.Patches, rule)
		}
	}

	if len(root.Repositories) > 0 {
		cfg.Repositories = nil
		for _, r := range root.Repositories {
			repo := model.Repository{Name: r.Name, URL: r.URL}
			if r.Path != nil {
				repo.Path = *r.Path
			}
			cfg.Repositories = append(cfg.Repositories, repo)
		}
	}

	if len(root.Jobs) > 0 {
		cfg.Jobs = nil
		for _, j := range root.Jobs {
			job := model.Job{Name: j.Name, Script: j.Script, Enabled: true}
			if j.After != nil {
				job.After = *j.After
				job.When = model.AfterAny
			}
			if j.When != nil {
				job.When = *j.When
			}
			if j.Enabled != nil {
				job.Enabled = *j.Enabled
			}
			cfg.Jobs = append(cfg.Jobs, job)
		}
	}

	if a := root.Archive; a != nil {
		archive := &Archive{
			Endpoint:  a.Endpoint,
			Bucket:    a.Bucket,
			AccessKey: a.AccessKey,
			SecretKey: a.SecretKey,
		}
		if a.UseSSL != nil {
			archive.UseSSL = *a.UseSSL
		}
		cfg.Archive = archive
	}
}
