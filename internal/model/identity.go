// Package model holds the domain types shared between the configuration
// layer and the provisioner: run identities, patch rules, repositories,
// batch jobs and the run manifest.
package model

import (
	"errors"
	"fmt"
)

// RunIdentity selects the cosmology and simulation phase a run is built for.
// It is immutable once chosen: it determines the run directory name and every
// substituted parameter value.
type RunIdentity struct {
	Cosmology int
	Phase     int
}

// NewRunIdentity validates the two indices and returns the identity.
func NewRunIdentity(cosmology, phase int) (RunIdentity, error) {
	if cosmology < 0 {
		return RunIdentity{}, errors.New("cosmology index must not be negative")
	}
	if phase < 0 {
		return RunIdentity{}, errors.New("phase index must not be negative")
	}
	return RunIdentity{Cosmology: cosmology, Phase: phase}, nil
}

// DirName returns the deterministic run directory name for this identity.
func (id RunIdentity) DirName() string {
	return fmt.Sprintf("halo_fitting_%d_%d", id.Cosmology, id.Phase)
}

// String implements fmt.Stringer for log output.
func (id RunIdentity) String() string {
	return fmt.Sprintf("cosmology=%d phase=%d", id.Cosmology, id.Phase)
}
