// Package patch applies per-run parameter substitutions to staged pipeline
// scripts. Matching is exact literal text, not parsing: the staged scripts
// are unmodified external code, and the only contract we have with them is
// the byte-for-byte default assignment they ship with.
package patch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/haloprov/internal/ctxlog"
	"github.com/vk/haloprov/internal/model"
)

// ErrNotApplied is returned when a rule's Find text is absent from the
// target file. Unless the rule opts out via AllowMissing, this is fatal: a
// silently unapplied patch means every downstream job runs with the default
// parameter values instead of the configured ones.
var ErrNotApplied = errors.New("patch not applied: literal text not found")

// Apply runs a single rule against its target file inside runDir, verifies
// the rewrite by reading the file back, and reports what happened.
func Apply(ctx context.Context, runDir string, rule model.PatchRule) (model.AppliedPatch, error) {
	logger := ctxlog.FromContext(ctx).With("file", rule.File)

	result := model.AppliedPatch{File: rule.File, Find: rule.Find, Replace: rule.Replace}

	target := filepath.Join(runDir, rule.File)
	raw, err := os.ReadFile(target)
	if err != nil {
		return result, fmt.Errorf("reading patch target %s: %w", rule.File, err)
	}

	content := string(raw)
	if !strings.Contains(content, rule.Find) {
		if rule.AllowMissing {
			logger.Warn("Patch text not found, leaving file unchanged.", "find", rule.Find)
			return result, nil
		}
		return result, fmt.Errorf("%s: %q: %w", rule.File, rule.Find, ErrNotApplied)
	}

	info, err := os.Stat(target)
	if err != nil {
		return result, fmt.Errorf("stat patch target %s: %w", rule.File, err)
	}

	patched := strings.ReplaceAll(content, rule.Find, rule.Replace)
	if err := os.WriteFile(target, []byte(patched), info.Mode().Perm()); err != nil {
		return result, fmt.Errorf("writing patch target %s: %w", rule.File, err)
	}

	// Verify after write. A rewrite that cannot be read back as expected is
	// treated the same as a missing match.
	check, err := os.ReadFile(target)
	if err != nil {
		return result, fmt.Errorf("verifying patch target %s: %w", rule.File, err)
	}
	if !strings.Contains(string(check), rule.Replace) {
		return result, fmt.Errorf("%s: rewrite did not stick: %w", rule.File, ErrNotApplied)
	}

	logger.Debug("Patch applied.", "find", rule.Find, "replace", rule.Replace)
	result.Applied = true
	return result, nil
}

// ApplyAll runs every rule in order. The first fatal failure aborts; rules
// with AllowMissing that do not match are recorded as unapplied.
func ApplyAll(ctx context.Context, runDir string, rules []model.PatchRule) ([]model.AppliedPatch, error) {
	applied := make([]model.AppliedPatch, 0, len(rules))
	for _, rule := range rules {
		res, err := Apply(ctx, runDir, rule)
		if err != nil {
			return applied, err
		}
		applied = append(applied, res)
	}
	return applied, nil
}
