// Package cli parses the haloprov command line into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/haloprov/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("haloprov", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
haloprov - provision a halo-fitting run directory and submit its batch chain.

Usage:
  haloprov -cosmology N -phase M [options]

Options:
`)
		flagSet.PrintDefaults()
	}

	cosmologyFlag := flagSet.Int("cosmology", -1, "Cosmology index for the run (required).")
	phaseFlag := flagSet.Int("phase", -1, "Simulation phase index for the run (required).")
	configFlag := flagSet.String("config", "", "Path to an HCL configuration file overriding the built-in pipeline wiring.")
	sourceFlag := flagSet.String("source", "", "Override the shared pipeline source directory.")
	baseDirFlag := flagSet.String("base-dir", ".", "Directory the run directory is created in.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Stage and patch only; run, fetch and submit nothing.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if *cosmologyFlag < 0 || *phaseFlag < 0 {
		flagSet.Usage()
		return nil, false, &ExitError{Code: 2, Message: "both -cosmology and -phase are required"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		Cosmology:  *cosmologyFlag,
		Phase:      *phaseFlag,
		ConfigPath: *configFlag,
		SourceDir:  *sourceFlag,
		BaseDir:    *baseDirFlag,
		LogFormat:  logFormat,
		LogLevel:   logLevel,
		DryRun:     *dryRunFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
