package document

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the textual serialization used for source and extracted
// files. It also determines the file extension the compiler filters on and
// the extractor writes with.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor maps the boolean format flag carried by pipeline options to a
// Format. JSON is the default.
func FormatFor(yamlEnabled bool) Format {
	if yamlEnabled {
		return FormatYAML
	}
	return FormatJSON
}

// Extension returns the file suffix written by the extractor for this format.
func (f Format) Extension() string {
	if f == FormatYAML {
		return ".yml"
	}
	return ".json"
}

// Matches reports whether a filename carries an extension belonging to this
// format. YAML accepts both common suffixes.
func (f Format) Matches(filename string) bool {
	lower := strings.ToLower(filename)
	if f == FormatYAML {
		return strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml")
	}
	return strings.HasSuffix(lower, ".json")
}

// Decode parses file contents into a raw document map.
func (f Format) Decode(data []byte) (map[string]any, error) {
	raw := map[string]any{}
	switch f {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("invalid json: %w", err)
		}
	}
	return raw, nil
}

// Encode serializes a raw document map for writing to a file.
func (f Format) Encode(raw map[string]any) ([]byte, error) {
	if f == FormatYAML {
		return yaml.Marshal(raw)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
