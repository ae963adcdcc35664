// Package envmgr activates the prebuilt computation environment the
// preparatory scripts need. The cluster ships these as conda environments;
// activation here means two things: confirming the named environment exists
// before anything is spawned, and wrapping spawned commands so they execute
// inside it.
package envmgr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Environment makes a named toolchain available to spawned processes.
type Environment interface {
	// Validate confirms the environment exists and is activatable.
	Validate(ctx context.Context) error
	// Wrap returns the argv that executes the given command inside the
	// environment.
	Wrap(argv []string) []string
}

// Conda activates a named conda environment via `conda run`.
type Conda struct {
	// Binary is the conda executable. Defaults to "conda".
	Binary string
	// Name is the environment name.
	Name string
}

// NewConda returns a Conda environment for the given name.
func NewConda(name string) *Conda {
	return &Conda{Binary: "conda", Name: name}
}

// Validate lists the known conda environments and checks the configured
// name is among them.
func (c *Conda) Validate(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, c.Binary, "env", "list").Output()
	if err != nil {
		return fmt.Errorf("listing conda environments: %w", err)
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// Lines look like "halofit  *  /path/to/envs/halofit".
		if fields := strings.Fields(line); len(fields) > 0 && fields[0] == c.Name {
			return nil
		}
	}
	return fmt.Errorf("conda environment %q does not exist", c.Name)
}

// Wrap prefixes argv so it runs inside the environment. Output capture is
// left to the caller, so conda's own capturing is disabled.
func (c *Conda) Wrap(argv []string) []string {
	return append([]string{c.Binary, "run", "--no-capture-output", "-n", c.Name}, argv...)
}
