// Package labels defines the part-of-speech categories produced by the
// classifier, the semantic token legend they are rendered with, and the
// mutable map between the two.
package labels

import "fmt"

// Category is a part-of-speech label assigned to a span of text.
// Values follow the Penn Treebank tag set used by the tagging model.
type Category uint8

// Penn Treebank categories plus the model's catch-all and punctuation labels.
const (
	CC   Category = iota // coordinating conjunction
	CD                   // cardinal number
	DT                   // determiner
	EX                   // existential there
	FW                   // foreign word
	IN                   // preposition or subordinating conjunction
	JJ                   // adjective
	JJR                  // adjective, comparative
	JJS                  // adjective, superlative
	MD                   // modal
	NN                   // noun, singular or mass
	NNP                  // proper noun, singular
	NNPS                 // proper noun, plural
	NNS                  // noun, plural
	O                    // other
	PDT                  // predeterminer
	POS                  // possessive ending
	PRP                  // personal pronoun
	RB                   // adverb
	RBR                  // adverb, comparative
	RBS                  // adverb, superlative
	RP                   // particle
	SYM                  // symbol
	TO                   // to
	UH                   // interjection
	VB                   // verb, base form
	VBD                  // verb, past tense
	VBG                  // verb, gerund or present participle
	VBN                  // verb, past participle
	VBP                  // verb, non-3rd person singular present
	VBZ                  // verb, 3rd person singular present
	WDT                  // wh-determiner
	WP                   // wh-pronoun
	WRB                  // wh-adverb
	Punctuation

	categoryCount = int(Punctuation) + 1
)

var categoryNames = [categoryCount]string{
	"CC", "CD", "DT", "EX", "FW", "IN", "JJ", "JJR", "JJS", "MD",
	"NN", "NNP", "NNPS", "NNS", "O", "PDT", "POS", "PRP", "RB", "RBR",
	"RBS", "RP", "SYM", "TO", "UH", "VB", "VBD", "VBG", "VBN", "VBP",
	"VBZ", "WDT", "WP", "WRB", ".",
}

var categoryIndex = func() map[string]Category {
	m := make(map[string]Category, categoryCount)
	for i, name := range categoryNames {
		m[name] = Category(i)
	}
	return m
}()

// Categories returns every known category in declaration order.
func Categories() []Category {
	all := make([]Category, categoryCount)
	for i := range all {
		all[i] = Category(i)
	}
	return all
}

// ParseCategory resolves a model label such as "NNS" or "." to its Category.
func ParseCategory(label string) (Category, error) {
	if c, ok := categoryIndex[label]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, label)
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return int(c) < categoryCount
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", uint8(c))
	}
	return categoryNames[c]
}

// MarshalText encodes the category as its model label.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, uint8(c))
	}
	return []byte(categoryNames[c]), nil
}

// UnmarshalText decodes a model label.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
