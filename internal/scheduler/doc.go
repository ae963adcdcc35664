// Package scheduler is the narrow client interface to the cluster's batch
// scheduler.
//
// The scheduler is an opaque external service: haloprov submits launch
// scripts and receives job identity tokens synchronously upon submission
// acceptance, not upon job completion. Dependency ordering between jobs is
// expressed only as a scheduler-level annotation at submission time; there
// is no in-process visibility into job outcome, no cancellation path once a
// job is submitted, and no modeling of the scheduler's internal queueing or
// resource allocation.
package scheduler
