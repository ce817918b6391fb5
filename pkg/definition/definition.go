package definition

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition describes one node and, recursively, its subtree.
// Composites use Children, decorators use Child, leaves use neither.
type Definition struct {
	ID          string         `yaml:"id,omitempty" json:"id,omitempty"`
	Type        string         `yaml:"type" json:"type"`
	Name        string         `yaml:"name,omitempty" json:"name,omitempty"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Properties  map[string]any `yaml:"properties,omitempty" json:"properties,omitempty"`
	Children    []*Definition  `yaml:"children,omitempty" json:"children,omitempty"`
	Child       *Definition    `yaml:"child,omitempty" json:"child,omitempty"`
}

// TreeDefinition is the document describing a whole tree.
type TreeDefinition struct {
	ID          string         `yaml:"id,omitempty" json:"id,omitempty"`
	Name        string         `yaml:"name,omitempty" json:"name,omitempty"`
	Description string         `yaml:"description,omitempty" json:"description,omitempty"`
	Properties  map[string]any `yaml:"properties,omitempty" json:"properties,omitempty"`
	Root        *Definition    `yaml:"root" json:"root"`
}

// Format selects the document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from the file extension (YAML unless ".json").
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Parse decodes a tree definition.
func Parse(data []byte, format Format) (*TreeDefinition, error) {
	var def TreeDefinition
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("failed to parse json definition: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("failed to parse yaml definition: %w", err)
		}
	}
	return &def, nil
}

// Load reads and decodes a definition file (YAML or JSON by extension).
func Load(path string) (*TreeDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	return Parse(data, FormatFromPath(path))
}

// Marshal encodes def in the given format.
func Marshal(def *TreeDefinition, format Format) ([]byte, error) {
	if format == FormatJSON {
		return json.MarshalIndent(def, "", "  ")
	}
	return yaml.Marshal(def)
}

// Walk visits def and its descendants in pre-order with their paths.
func (d *Definition) Walk(path string, fn func(path string, def *Definition)) {
	if d == nil {
		return
	}
	fn(path, d)
	for i, c := range d.Children {
		c.Walk(fmt.Sprintf("%s.children[%d]", path, i), fn)
	}
	if d.Child != nil {
		d.Child.Walk(path+".child", fn)
	}
}
