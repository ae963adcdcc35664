package config

import (
	"fmt"

	"github.com/vk/haloprov/internal/model"
)

// Pipeline is the fixed wiring of the provisioning sequence: where staged
// files come from, which computation environment the preparatory scripts
// need, and which files they are expected to produce.
type Pipeline struct {
	// SourceDir is the shared, read-only script/data source.
	SourceDir string
	// Environment names the prebuilt computation environment required by
	// the preparatory scripts.
	Environment string
	// RescalingDir is the source subdirectory copied recursively into the
	// run directory.
	RescalingDir string
	// StageSuffixes are the recognized file suffixes staged from SourceDir.
	StageSuffixes []string
	// LaunchScripts are the named pipeline launch scripts staged in
	// addition to the suffix set.
	LaunchScripts []string
	// PrepScripts are run synchronously, in order, inside the run
	// directory after patching.
	PrepScripts []string
	// ResultFiles are the outputs the preparatory scripts must produce in
	// the run directory.
	ResultFiles []string
	// ResultDest is the path, relative to the run directory, the result
	// files are copied into after the dependency fetch.
	ResultDest string
}

// Archive configures optional object-storage upload of the preparatory
// result files after a successful launch.
type Archive struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Model is the resolved configuration for one provisioning run. All patch
// rule text has already had the run's cosmology/phase values substituted in.
type Model struct {
	Pipeline     Pipeline
	Patches      []model.PatchRule
	Repositories []model.Repository
	Jobs         []model.Job
	Archive      *Archive
}

// Validate checks the internal consistency of the model: every job
// dependency must reference an earlier job in the chain, dispositions must
// be known, and repositories must be fetchable.
func (m *Model) Validate() error {
	if m.Pipeline.SourceDir == "" {
		return fmt.Errorf("pipeline source_dir must be set")
	}
	if m.Pipeline.Environment == "" {
		return fmt.Errorf("pipeline environment must be set")
	}
	if len(m.Pipeline.StageSuffixes) == 0 {
		return fmt.Errorf("pipeline stage_suffixes must not be empty")
	}

	for _, repo := range m.Repositories {
		if repo.URL == "" {
			return fmt.Errorf("repository %q has no url", repo.Name)
		}
	}

	for _, rule := range m.Patches {
		if rule.File == "" || rule.Find == "" {
			return fmt.Errorf("patch rule for %q must set file and find", rule.File)
		}
	}

	seen := make(map[string]bool, len(m.Jobs))
	enabled := make(map[string]bool, len(m.Jobs))
	for _, job := range m.Jobs {
		if job.Script == "" {
			return fmt.Errorf("job %q has no script", job.Name)
		}
		if job.After != "" {
			if !seen[job.After] {
				return fmt.Errorf("job %q depends on %q, which is not an earlier job in the chain", job.Name, job.After)
			}
			// A dependency on a job that will never be submitted would
			// otherwise only surface mid-chain, after earlier jobs are
			// already accepted by the scheduler.
			if job.Enabled && !enabled[job.After] {
				return fmt.Errorf("job %q is enabled but depends on %q, which is disabled and will not be submitted", job.Name, job.After)
			}
			switch job.When {
			case model.AfterAny, model.AfterOK:
			default:
				return fmt.Errorf("job %q has unknown dependency disposition %q", job.Name, job.When)
			}
		}
		if seen[job.Name] {
			return fmt.Errorf("duplicate job name %q", job.Name)
		}
		seen[job.Name] = true
		if job.Enabled {
			enabled[job.Name] = true
		}
	}

	return nil
}

// EnabledJobs returns the jobs that are actually submitted, in chain order.
func (m *Model) EnabledJobs() []model.Job {
	var jobs []model.Job
	for _, job := range m.Jobs {
		if job.Enabled {
			jobs = append(jobs, job)
		}
	}
	return jobs
}
