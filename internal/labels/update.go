package labels

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Update is a set of changes to apply to a Map. A nil descriptor suppresses
// the category.
type Update map[Category]*Descriptor

type rawUpdate map[string]*descriptorSpec

func (r rawUpdate) resolve() (Update, error) {
	u := make(Update, len(r))
	for label, spec := range r {
		c, err := ParseCategory(label)
		if err != nil {
			return nil, err
		}
		if spec == nil {
			u[c] = nil
			continue
		}
		d, err := spec.descriptor()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		u[c] = &d
	}
	return u, nil
}

// ParseUpdate decodes a JSON object keyed by category label, for example
//
//	{"CC": {"type": "modifier", "modifiers": ["readonly"]}, "IN": null}
func ParseUpdate(data []byte) (Update, error) {
	var raw rawUpdate
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
	}
	return raw.resolve()
}

// ParseUpdateYAML decodes the YAML form of ParseUpdate's input.
func ParseUpdateYAML(data []byte) (Update, error) {
	var raw rawUpdate
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
	}
	return raw.resolve()
}

// LoadUpdateFile reads an update from disk, choosing the decoder by extension.
func LoadUpdateFile(path string) (Update, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseUpdateYAML(data)
	default:
		return ParseUpdate(data)
	}
}

// MarshalJSON writes the update keyed by category label.
func (u Update) MarshalJSON() ([]byte, error) {
	raw := make(map[string]*descriptorSpec, len(u))
	for c, d := range u {
		if d == nil {
			raw[c.String()] = nil
			continue
		}
		s := d.spec()
		raw[c.String()] = &s
	}
	return json.Marshal(raw)
}

// Table renders a full category table keyed by label.
func Table(table map[Category]Descriptor) map[string]Descriptor {
	out := make(map[string]Descriptor, len(table))
	for c, d := range table {
		out[c.String()] = d
	}
	return out
}
