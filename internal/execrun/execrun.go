// Package execrun runs external commands synchronously inside a run
// directory, capturing their combined output into the run's logs
// subdirectory.
package execrun

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/vk/haloprov/internal/ctxlog"
)

// Runner executes a command to completion.
type Runner interface {
	// Run executes argv with dir as the working directory, writing combined
	// output to logFile (a path relative to dir). A non-zero exit is an
	// error.
	Run(ctx context.Context, dir string, argv []string, logFile string) error
}

// Local runs commands as child processes on the invoking host.
type Local struct{}

// NewLocal returns a Runner backed by os/exec.
func NewLocal() *Local {
	return &Local{}
}

// Run implements Runner. The command inherits the parent environment; no
// timeout is imposed beyond ctx cancellation.
func (l *Local) Run(ctx context.Context, dir string, argv []string, logFile string) error {
	if len(argv) == 0 {
		panic("argv must not be empty")
	}
	logger := ctxlog.FromContext(ctx).With("command", argv[0])

	out, err := os.Create(filepath.Join(dir, logFile))
	if err != nil {
		return fmt.Errorf("creating log file %s: %w", logFile, err)
	}
	defer out.Close()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdout = out
	cmd.Stderr = out

	logger.Info("Running command.", "argv", argv, "log", logFile)
	start := time.Now()
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %v failed (see %s): %w", argv, logFile, err)
	}
	logger.Info("Command finished.", "elapsed", time.Since(start))
	return nil
}
