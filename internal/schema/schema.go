// Package schema defines the HCL block structures for the haloprov
// configuration file. These are the raw decode targets; translation into
// the format-agnostic config model happens in the config package.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// Root represents the top-level structure of a configuration file.
type Root struct {
	Pipeline     *Pipeline     `hcl:"pipeline,block"`
	Patches      []*Patch      `hcl:"patch,block"`
	Repositories []*Repository `hcl:"repository,block"`
	Jobs         []*Job        `hcl:"job,block"`
	Archive      *Archive      `hcl:"archive,block"`
	Body         hcl.Body      `hcl:",remain"`
}

// Pipeline configures the shared script/data source and the fixed pipeline
// wiring. Every attribute is optional; unset attributes keep their built-in
// defaults.
type Pipeline struct {
	SourceDir     *string  `hcl:"source_dir,optional"`
	Environment   *string  `hcl:"environment,optional"`
	RescalingDir  *string  `hcl:"rescaling_dir,optional"`
	StageSuffixes []string `hcl:"stage_suffixes,optional"`
	LaunchScripts []string `hcl:"launch_scripts,optional"`
	PrepScripts   []string `hcl:"prep_scripts,optional"`
	ResultFiles   []string `hcl:"result_files,optional"`
	ResultDest    *string  `hcl:"result_dest,optional"`
}

// Patch represents a `patch "<file>"` block: one exact-literal rewrite of a
// staged file. The find/replace attributes are HCL expressions so they can
// interpolate the run's `cosmology` and `phase` variables.
type Patch struct {
	File         string `hcl:"file,label"`
	Find         string `hcl:"find"`
	Replace      string `hcl:"replace"`
	AllowMissing *bool  `hcl:"allow_missing,optional"`
}

// Repository represents a `repository "<name>"` block: an external
// fitting-code dependency fetched by clone into the run directory.
type Repository struct {
	Name string  `hcl:"name,label"`
	URL  string  `hcl:"url"`
	Path *string `hcl:"path,optional"`
}

// Job represents a `job "<name>"` block in the submitted batch chain.
type Job struct {
	Name    string  `hcl:"name,label"`
	Script  string  `hcl:"script"`
	After   *string `hcl:"after,optional"`
	When    *string `hcl:"when,optional"`
	Enabled *bool   `hcl:"enabled,optional"`
}

// Archive represents the optional `archive` block: object storage for the
// preparatory result files.
type Archive struct {
	Endpoint  string `hcl:"endpoint"`
	Bucket    string `hcl:"bucket"`
	AccessKey string `hcl:"access_key,optional"`
	SecretKey string `hcl:"secret_key,optional"`
	UseSSL    *bool  `hcl:"use_ssl,optional"`
}
