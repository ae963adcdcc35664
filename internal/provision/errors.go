package provision

import (
	"errors"
	"fmt"
)

// ErrDirectoryExists is returned when the run directory already exists.
// There are no overwrite semantics: a colliding identity means either a
// duplicate launch or a leftover directory the operator must inspect.
var ErrDirectoryExists = errors.New("run directory already exists")

// StagingError is a failure to copy a required source file into the run
// directory, or to place prepared inputs into a fetched dependency.
type StagingError struct {
	Path string
	Err  error
}

func (e *StagingError) Error() string {
	return fmt.Sprintf("staging %s: %v", e.Path, e.Err)
}

func (e *StagingError) Unwrap() error { return e.Err }

// EnvironmentError is a failure to activate the named computation
// environment.
type EnvironmentError struct {
	Name string
	Err  error
}

func (e *EnvironmentError) Error() string {
	return fmt.Sprintf("environment %q: %v", e.Name, e.Err)
}

func (e *EnvironmentError) Unwrap() error { return e.Err }

// PreparatoryComputationError is a preparatory script exiting non-zero or
// failing to produce its expected result file. Downstream jobs cannot run
// without those outputs, so this is always fatal.
type PreparatoryComputationError struct {
	Script string
	Err    error
}

func (e *PreparatoryComputationError) Error() string {
	return fmt.Sprintf("preparatory computation %s: %v", e.Script, e.Err)
}

func (e *PreparatoryComputationError) Unwrap() error { return e.Err }

// FetchError is a failure to clone an external dependency.
type FetchError struct {
	Repo string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.Repo, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// SubmissionError is a rejected or unparseable batch job submission.
type SubmissionError struct {
	Job string
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submitting job %q: %v", e.Job, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }
