package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Cosmology and Phase form the run identity. They are explicit inputs,
	// never ambient state.
	Cosmology int
	Phase     int

	// ConfigPath is an optional HCL file overriding the built-in pipeline
	// wiring.
	ConfigPath string
	// SourceDir, when set, overrides the pipeline source directory.
	SourceDir string
	// BaseDir is where the run directory is created.
	BaseDir string

	LogFormat string
	LogLevel  string
	DryRun    bool
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Cosmology < 0 {
		return nil, errors.New("cosmology index is required and must not be negative")
	}
	if cfg.Phase < 0 {
		return nil, errors.New("phase index is required and must not be negative")
	}
	return &cfg, nil
}
