package catalog

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/windrose-analytics/windrose/internal/core/metric"
	"github.com/windrose-analytics/windrose/internal/core/window"
	"gopkg.in/yaml.v3"
)

// rawDefinition is the on-disk YAML shape. One definition per file.
type rawDefinition struct {
	Name         string   `yaml:"name"`
	Kind         string   `yaml:"kind"`
	Column       string   `yaml:"column"`
	Subtrahend   string   `yaml:"subtrahend"`
	OrderColumn  string   `yaml:"order_column"`
	PartitionBy  []string `yaml:"partition_by"`
	WindowLength int64    `yaml:"window_length"`
	Offset       int64    `yaml:"offset"`
	Unit         string   `yaml:"unit"`
	Strategy     string   `yaml:"strategy"`
}

// LoadDir loads metric definitions from *.yaml files in dir. Definitions
// are validated eagerly, fingerprinted with the SHA-256 of the raw file,
// and duplicate names across files are rejected. A missing directory is
// valid (zero definitions configured).
func LoadDir(dir string) ([]*Definition, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("definition dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("definition path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading definition dir: %w", err)
	}

	seen := make(map[string]string) // name → file
	var defs []*Definition

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading definition file %s: %w", path, err)
		}

		var raw rawDefinition
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing definition file %s: %w", path, err)
		}
		if raw.Name == "" {
			continue // skip empty / comment-only files
		}

		if prev, exists := seen[raw.Name]; exists {
			return nil, fmt.Errorf("definition %q: duplicate name (defined in %s and %s)", raw.Name, prev, path)
		}
		seen[raw.Name] = path

		def := &Definition{
			Name:         raw.Name,
			Kind:         Kind(raw.Kind),
			Column:       raw.Column,
			Subtrahend:   raw.Subtrahend,
			OrderColumn:  raw.OrderColumn,
			PartitionBy:  raw.PartitionBy,
			WindowLength: raw.WindowLength,
			Offset:       raw.Offset,
			Unit:         window.Unit(raw.Unit),
			Strategy:     metric.Strategy(raw.Strategy),
			Fingerprint:  fmt.Sprintf("%x", sha256.Sum256(data)),
		}

		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("definition file %s: %w", path, err)
		}

		defs = append(defs, def)
	}
	return defs, nil
}
