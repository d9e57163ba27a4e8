package labels

import "fmt"

// TokenType is an index into the semantic token type legend advertised to
// clients. The numeric values are part of the wire format.
type TokenType uint32

const (
	TypeNamespace TokenType = iota
	TypeType
	TypeClass
	TypeEnum
	TypeInterface
	TypeStruct
	TypeTypeParameter
	TypeParameter
	TypeVariable
	TypeProperty
	TypeEnumMember
	TypeEvent
	TypeFunction
	TypeMethod
	TypeMacro
	TypeKeyword
	TypeModifier
	TypeComment
	TypeString
	TypeNumber
	TypeRegexp
	TypeOperator
	TypeDecorator

	tokenTypeCount = int(TypeDecorator) + 1
)

var tokenTypeNames = [tokenTypeCount]string{
	"namespace", "type", "class", "enum", "interface", "struct",
	"typeParameter", "parameter", "variable", "property", "enumMember",
	"event", "function", "method", "macro", "keyword", "modifier",
	"comment", "string", "number", "regexp", "operator", "decorator",
}

// TokenModifier is a bit position in the semantic token modifier legend.
type TokenModifier uint32

const (
	ModDeclaration TokenModifier = iota
	ModDefinition
	ModReadonly
	ModStatic
	ModDeprecated
	ModAbstract
	ModAsync
	ModModification
	ModDocumentation
	ModDefaultLibrary

	tokenModifierCount = int(ModDefaultLibrary) + 1
)

var tokenModifierNames = [tokenModifierCount]string{
	"declaration", "definition", "readonly", "static", "deprecated",
	"abstract", "async", "modification", "documentation", "defaultLibrary",
}

// Legend lists the token type and modifier names in index order.
type Legend struct {
	TokenTypes     []string `json:"tokenTypes"`
	TokenModifiers []string `json:"tokenModifiers"`
}

// NewLegend returns the legend clients use to decode token types and modifiers.
func NewLegend() Legend {
	return Legend{
		TokenTypes:     append([]string(nil), tokenTypeNames[:]...),
		TokenModifiers: append([]string(nil), tokenModifierNames[:]...),
	}
}

// ParseTokenType resolves a legend name such as "enumMember".
func ParseTokenType(name string) (TokenType, error) {
	for i, n := range tokenTypeNames {
		if n == name {
			return TokenType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTokenType, name)
}

func (t TokenType) String() string {
	if int(t) >= tokenTypeCount {
		return fmt.Sprintf("TokenType(%d)", uint32(t))
	}
	return tokenTypeNames[t]
}

// MarshalText encodes the legend name.
func (t TokenType) MarshalText() ([]byte, error) {
	if int(t) >= tokenTypeCount {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTokenType, uint32(t))
	}
	return []byte(tokenTypeNames[t]), nil
}

// UnmarshalText decodes a legend name.
func (t *TokenType) UnmarshalText(text []byte) error {
	parsed, err := ParseTokenType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTokenModifier resolves a legend name such as "readonly".
func ParseTokenModifier(name string) (TokenModifier, error) {
	for i, n := range tokenModifierNames {
		if n == name {
			return TokenModifier(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownModifier, name)
}

func (m TokenModifier) String() string {
	if int(m) >= tokenModifierCount {
		return fmt.Sprintf("TokenModifier(%d)", uint32(m))
	}
	return tokenModifierNames[m]
}

// Modifiers is the modifier bitset carried by each encoded token.
type Modifiers uint32

// ModifierSet folds modifiers into a bitset where bit i marks legend entry i.
func ModifierSet(mods ...TokenModifier) Modifiers {
	var set Modifiers
	for _, m := range mods {
		set |= 1 << uint32(m)
	}
	return set
}

// List expands the bitset into modifiers in legend order.
func (s Modifiers) List() []TokenModifier {
	var mods []TokenModifier
	for i := range tokenModifierCount {
		if s&(1<<uint32(i)) != 0 {
			mods = append(mods, TokenModifier(i))
		}
	}
	return mods
}
