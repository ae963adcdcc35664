package scheduler

import "context"

// Dependency declares that a submission may only become eligible once
// another job reaches the given completion condition.
type Dependency struct {
	// JobID is the identity token of the prerequisite job.
	JobID string
	// When is the completion condition, e.g. "afterany" or "afterok".
	When string
}

// Request describes one launch-script submission.
type Request struct {
	// Script is the launch script path, relative to WorkDir.
	Script string
	// WorkDir is the directory the job is submitted from.
	WorkDir string
	// LogDir is where the scheduler writes the job's output, relative to
	// WorkDir.
	LogDir string
	// Dependency, when non-nil, chains this job after another.
	Dependency *Dependency
}

// Client submits batch jobs.
type Client interface {
	// Submit hands a launch script to the scheduler and returns the job
	// identity token from the acceptance response.
	Submit(ctx context.Context, req Request) (string, error)
}
