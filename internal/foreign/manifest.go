package foreign

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest is the `foreign.yaml` file the `--foreign <name>` flag
// resolves against: it maps a source name to a backing CSV file and its
// declared schema.
type Manifest struct {
	Sources []SourceSpec `yaml:"sources"`
}

// SourceSpec declares one foreign source.
type SourceSpec struct {
	Name    string       `yaml:"name"`
	File    string       `yaml:"file"`
	Ordered bool         `yaml:"ordered"`
	Columns []ColumnSpec `yaml:"columns"`
}

// ColumnSpec declares one column: its label and primitive type (int,
// real, bool, or string).
type ColumnSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// ManifestName is the file looked up in the session directory.
const ManifestName = "foreign.yaml"

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, s := range m.Sources {
		if s.Name == "" || s.File == "" {
			return nil, fmt.Errorf("%s: source needs both name and file", path)
		}
		if len(s.Columns) == 0 {
			return nil, fmt.Errorf("%s: source %q declares no columns", path, s.Name)
		}
		for _, c := range s.Columns {
			switch c.Type {
			case "int", "real", "bool", "string":
			default:
				return nil, fmt.Errorf("%s: source %q column %q has unsupported type %q", path, s.Name, c.Name, c.Type)
			}
		}
	}
	return &m, nil
}

// Open resolves a named source from the manifest in dir, returning the
// CSV-backed implementation.
func Open(dir, name string) (Source, error) {
	m, err := LoadManifest(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}
	for _, s := range m.Sources {
		if s.Name == name {
			return NewCSVSource(s, dir), nil
		}
	}
	return nil, fmt.Errorf("foreign source %q not declared in %s", name, ManifestName)
}
