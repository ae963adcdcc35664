package provision

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vk/haloprov/internal/model"
)

// writeManifest serializes the run manifest into the run directory.
func (p *Provisioner) writeManifest(runDir string, manifest *model.Manifest) error {
	raw, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encoding run manifest: %w", err)
	}
	path := filepath.Join(runDir, model.ManifestFileName)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("writing run manifest: %w", err)
	}
	return nil
}
