package model

// PatchRule rewrites one exact literal assignment inside a staged file. Find
// must match the file content byte for byte; Replace is the fully resolved
// text it is substituted with (placeholders are expanded by the config layer
// before a rule reaches the provisioner).
type PatchRule struct {
	// File is the path of the target, relative to the run directory.
	File string
	// Find is the exact literal text expected in the staged file.
	Find string
	// Replace is the text written in place of Find.
	Replace string
	// AllowMissing downgrades an absent Find text from a fatal error to a
	// logged warning. Off by default: a silently unapplied patch means every
	// downstream job runs with the wrong parameter values.
	AllowMissing bool
}

// Repository is an external fitting-code dependency fetched by clone into
// the run directory.
type Repository struct {
	Name string
	URL  string
	// Path is the clone target relative to the run directory. Defaults to
	// Name when empty.
	Path string
}

// Dest returns the clone target relative to the run directory.
func (r Repository) Dest() string {
	if r.Path != "" {
		return r.Path
	}
	return r.Name
}

// Dependency dispositions understood by the batch scheduler.
const (
	// AfterAny makes a job eligible once its predecessor reaches any
	// terminal state, success or failure.
	AfterAny = "afterany"
	// AfterOK makes a job eligible only after its predecessor succeeds.
	AfterOK = "afterok"
)

// Job is one unit of the submitted batch chain.
type Job struct {
	Name string
	// Script is the launch script path relative to the run directory.
	Script string
	// After names the job this one depends on; empty for the chain head.
	After string
	// When is the dependency disposition (AfterAny or AfterOK). Only
	// meaningful when After is set.
	When string
	// Enabled jobs are submitted; disabled jobs are kept in the chain as an
	// inactive extension point and skipped at submission time.
	Enabled bool
}
