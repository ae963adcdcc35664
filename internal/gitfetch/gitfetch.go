// Package gitfetch clones the external fitting-code repositories a run
// depends on. The repositories' internals are opaque; the only contract is
// that a clone succeeds and produces the expected relative file layout.
package gitfetch

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/vk/haloprov/internal/ctxlog"
)

// Fetcher fetches one external dependency into a local path.
type Fetcher interface {
	// Fetch clones url into dest. dest must not already exist non-empty.
	Fetch(ctx context.Context, url, dest string) error
}

// Git clones with the git CLI.
type Git struct {
	// Binary is the git executable. Defaults to "git".
	Binary string
}

// New returns a git-backed Fetcher.
func New() *Git {
	return &Git{Binary: "git"}
}

// Fetch implements Fetcher.
func (g *Git) Fetch(ctx context.Context, url, dest string) error {
	if entries, err := os.ReadDir(dest); err == nil && len(entries) > 0 {
		return fmt.Errorf("clone target %s already exists and is not empty", dest)
	}

	logger := ctxlog.FromContext(ctx)
	logger.Info("Cloning repository.", "url", url, "dest", dest)

	cmd := exec.CommandContext(ctx, g.Binary, "clone", url, dest)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git clone %s: %w\n%s", url, err, out)
	}
	return nil
}
