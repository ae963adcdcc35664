package scheduler

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vk/haloprov/internal/ctxlog"
)

// Slurm submits jobs with sbatch.
type Slurm struct {
	// Binary is the sbatch executable. Defaults to "sbatch".
	Binary string
}

// NewSlurm returns a Slurm-backed Client.
func NewSlurm() *Slurm {
	return &Slurm{Binary: "sbatch"}
}

// Submit implements Client. The acceptance response is parsed for the job
// ID; sbatch prints "Submitted batch job <id>".
func (s *Slurm) Submit(ctx context.Context, req Request) (string, error) {
	args := make([]string, 0, 3)
	if req.LogDir != "" {
		args = append(args, fmt.Sprintf("--output=%s", filepath.Join(req.LogDir, "%x.%j.out")))
	}
	if req.Dependency != nil {
		args = append(args, fmt.Sprintf("--dependency=%s:%s", req.Dependency.When, req.Dependency.JobID))
	}
	args = append(args, req.Script)

	logger := ctxlog.FromContext(ctx)
	logger.Info("Submitting batch job.", "script", req.Script, "args", args)

	cmd := exec.CommandContext(ctx, s.Binary, args...)
	cmd.Dir = req.WorkDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("sbatch %s: %w\n%s", req.Script, err, out)
	}

	jobID, err := ParseJobID(string(out))
	if err != nil {
		return "", err
	}
	logger.Info("Job accepted.", "script", req.Script, "job_id", jobID)
	return jobID, nil
}

// ParseJobID extracts the job identity token from sbatch's acceptance
// output, typically "Submitted batch job 49229449".
func ParseJobID(output string) (string, error) {
	fields := strings.Fields(output)
	if len(fields) == 0 {
		return "", fmt.Errorf("unable to parse scheduler response %q", output)
	}
	id := fields[len(fields)-1]
	for _, r := range id {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("unable to parse scheduler response %q", output)
		}
	}
	return id, nil
}
