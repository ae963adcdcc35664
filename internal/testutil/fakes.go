package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/haloprov/internal/scheduler"
)

// FakeEnvironment implements envmgr.Environment without touching conda.
type FakeEnvironment struct {
	// ValidateErr, when set, is returned by Validate.
	ValidateErr error
	// Validated records whether Validate was called.
	Validated bool
}

// Validate implements envmgr.Environment.
func (f *FakeEnvironment) Validate(ctx context.Context) error {
	f.Validated = true
	return f.ValidateErr
}

// Wrap implements envmgr.Environment. It passes argv through unchanged so
// tests can assert on the underlying command.
func (f *FakeEnvironment) Wrap(argv []string) []string { return argv }

// FakeRunner implements execrun.Runner. Instead of spawning processes it
// records invocations and writes the configured result files into the run
// directory, mimicking what the preparatory scripts produce.
type FakeRunner struct {
	// Produce maps result file names (relative to the run directory) to
	// contents written on the first Run call.
	Produce map[string]string
	// Err, when set, is returned by every Run call.
	Err error
	// Commands records every argv in order.
	Commands [][]string
}

// Run implements execrun.Runner.
func (f *FakeRunner) Run(ctx context.Context, dir string, argv []string, logFile string) error {
	f.Commands = append(f.Commands, argv)
	if f.Err != nil {
		return f.Err
	}
	if err := os.WriteFile(filepath.Join(dir, logFile), []byte("ok\n"), 0644); err != nil {
		return err
	}
	for name, content := range f.Produce {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			return err
		}
	}
	return nil
}

// FakeFetcher implements gitfetch.Fetcher by creating the destination
// directory with a marker file per clone.
type FakeFetcher struct {
	// Err, when set, is returned by every Fetch call.
	Err error
	// Cloned records url -> dest for every successful Fetch.
	Cloned map[string]string
}

// Fetch implements gitfetch.Fetcher.
func (f *FakeFetcher) Fetch(ctx context.Context, url, dest string) error {
	if f.Err != nil {
		return f.Err
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dest, "README.md"), []byte(url+"\n"), 0644); err != nil {
		return err
	}
	if f.Cloned == nil {
		f.Cloned = make(map[string]string)
	}
	f.Cloned[url] = dest
	return nil
}

// FakeScheduler implements scheduler.Client with sequential job IDs.
type FakeScheduler struct {
	// Err, when set, is returned by every Submit call.
	Err error
	// Requests records every submission in order.
	Requests []scheduler.Request
	next     int
}

// Submit implements scheduler.Client.
func (f *FakeScheduler) Submit(ctx context.Context, req scheduler.Request) (string, error) {
	if f.Err != nil {
		return "", f.Err
	}
	f.Requests = append(f.Requests, req)
	f.next++
	return fmt.Sprintf("100%d", f.next), nil
}

// FakeArchiver implements artifacts.Archiver, recording uploads in memory.
type FakeArchiver struct {
	// Err, when set, is returned by every Archive call.
	Err error
	// Uploads records prefix -> files for every successful call.
	Uploads map[string][]string
}

// Archive implements artifacts.Archiver.
func (f *FakeArchiver) Archive(ctx context.Context, prefix string, files []string) error {
	if f.Err != nil {
		return f.Err
	}
	if f.Uploads == nil {
		f.Uploads = make(map[string][]string)
	}
	f.Uploads[prefix] = append(f.Uploads[prefix], files...)
	return nil
}
