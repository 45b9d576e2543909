package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/buaawifi/uav-h2-supply-control/internal/linkerror"
)

// Load reads a YAML tunables file from path. Fields absent from the file
// keep their Default() value, since Default() seeds the struct before
// unmarshalling over it. A missing file is not an error: it yields
// Default() unmodified, so a node with no --config flag still starts.
func Load(path string) (*Tunables, error) {
	t := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return t, nil
	}
	if err != nil {
		return nil, linkerror.NewConfigError(fmt.Sprintf("failed to read %s", path), err)
	}

	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, linkerror.NewConfigError(fmt.Sprintf("failed to parse %s", path), err)
	}
	if t.Version != 1 {
		return nil, linkerror.NewConfigError(fmt.Sprintf("unsupported version %d in %s (expected 1)", t.Version, path), nil)
	}
	return t, nil
}

// Save writes t to path as YAML, atomically (write to a temp file, then
// rename).
func (t *Tunables) Save(path string) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("config: failed to marshal: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: failed to save %s: %w", path, err)
	}
	return nil
}
