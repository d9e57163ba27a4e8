package labels

import (
	"encoding/json"
	"fmt"
)

// Descriptor is how a category renders: a token type plus modifier bits.
type Descriptor struct {
	Type      TokenType
	Modifiers Modifiers
}

// Describe builds a Descriptor from a token type and modifiers.
func Describe(t TokenType, mods ...TokenModifier) Descriptor {
	return Descriptor{Type: t, Modifiers: ModifierSet(mods...)}
}

type descriptorSpec struct {
	Type      string   `json:"type" yaml:"type"`
	Modifiers []string `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
}

func (s descriptorSpec) descriptor() (Descriptor, error) {
	t, err := ParseTokenType(s.Type)
	if err != nil {
		return Descriptor{}, err
	}
	d := Descriptor{Type: t}
	for _, name := range s.Modifiers {
		m, err := ParseTokenModifier(name)
		if err != nil {
			return Descriptor{}, err
		}
		d.Modifiers |= ModifierSet(m)
	}
	return d, nil
}

func (d Descriptor) spec() descriptorSpec {
	s := descriptorSpec{Type: d.Type.String()}
	for _, m := range d.Modifiers.List() {
		s.Modifiers = append(s.Modifiers, m.String())
	}
	return s
}

// MarshalJSON encodes the descriptor using legend names.
func (d Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.spec())
}

// UnmarshalJSON decodes a descriptor written with legend names.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var s descriptorSpec
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUpdate, err)
	}
	parsed, err := s.descriptor()
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
