package model

import (
	"time"
)

// SubmittedJob records one accepted scheduler submission.
type SubmittedJob struct {
	Name  string `yaml:"name"`
	JobID string `yaml:"job_id"`
	// DependsOn is the job ID this submission was chained after, if any.
	DependsOn string `yaml:"depends_on,omitempty"`
	When      string `yaml:"when,omitempty"`
}

// Manifest is the YAML record written into the run directory after a
// successful launch, for postmortem tooling.
type Manifest struct {
	RunID       string         `yaml:"run_id"`
	Cosmology   int            `yaml:"cosmology"`
	Phase       int            `yaml:"phase"`
	CreatedAt   time.Time      `yaml:"created_at"`
	SourceDir   string         `yaml:"source_dir"`
	StagedFiles int            `yaml:"staged_files"`
	Patches     []AppliedPatch `yaml:"patches,omitempty"`
	Jobs        []SubmittedJob `yaml:"jobs,omitempty"`
}

// AppliedPatch records one parameter substitution performed during staging.
type AppliedPatch struct {
	File    string `yaml:"file"`
	Find    string `yaml:"find"`
	Replace string `yaml:"replace"`
	Applied bool   `yaml:"applied"`
}

// ManifestFileName is the manifest's name inside the run directory.
const ManifestFileName = "run_manifest.yaml"
