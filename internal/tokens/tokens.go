// Package tokens encodes classified spans as relative-position semantic
// tokens.
package tokens

import (
	"unicode/utf8"

	"github.com/JaimeStill/speechmark/internal/classifications"
	"github.com/JaimeStill/speechmark/internal/labels"
)

// Token is one span expressed relative to the previously emitted token.
// DeltaStart is relative to the previous token's start when both are on
// the same line, and to the start of the line otherwise.
type Token struct {
	DeltaLine  uint32 `json:"deltaLine"`
	DeltaStart uint32 `json:"deltaStart"`
	Length     uint32 `json:"length"`
	Type       uint32 `json:"tokenType"`
	Modifiers  uint32 `json:"tokenModifiers"`
}

// Lookup resolves a category to its descriptor. The boolean is false when
// the category is suppressed.
type Lookup interface {
	Get(c labels.Category) (labels.Descriptor, bool)
}

// Flatten lays tokens out as consecutive five-integer groups.
func Flatten(tokens []Token) []uint32 {
	data := make([]uint32, 0, len(tokens)*5)
	for _, t := range tokens {
		data = append(data, t.DeltaLine, t.DeltaStart, t.Length, t.Type, t.Modifiers)
	}
	return data
}

type cursor struct {
	text   string
	offset int // byte offset into text
	index  int // code-point index
	line   int
	column int
}

// advance moves forward to code-point index target, counting line breaks.
// A CRLF pair is one break. LF, lone CR, VT, FF, NEL, LS and PS each break
// a line on their own. It reports false when the text ends before target.
func (c *cursor) advance(target int) bool {
	for c.index < target {
		if c.offset >= len(c.text) {
			return false
		}
		r, size := utf8.DecodeRuneInString(c.text[c.offset:])
		c.offset += size
		c.index++

		switch r {
		case '\r':
			if c.offset < len(c.text) && c.text[c.offset] == '\n' {
				c.offset++
				c.index++
			}
			c.line++
			c.column = 0
		case '\n', '\v', '\f', '\u0085', '\u2028', '\u2029':
			c.line++
			c.column = 0
		default:
			c.column++
		}
	}
	return true
}

// Encode walks spans in order in a single forward pass over text and
// emits one token per span whose category the lookup maps. Positions and
// lengths count Unicode code points. Spans that start behind the cursor or
// beyond the end of the text are skipped, as are suppressed categories;
// neither moves the emission baseline.
func Encode(text string, spans []classifications.Span, lookup Lookup) []Token {
	tokens := make([]Token, 0, len(spans))
	cur := cursor{text: text}

	var prevLine, prevStart int

	for _, span := range spans {
		if span.Start < cur.index || span.End < span.Start {
			continue
		}

		d, ok := lookup.Get(span.Category)
		if !ok {
			continue
		}

		if !cur.advance(span.Start) {
			break
		}
		if cur.index != span.Start {
			// start falls between CR and LF
			continue
		}

		deltaLine := cur.line - prevLine
		deltaStart := cur.column
		if deltaLine == 0 {
			deltaStart = cur.column - prevStart
		}

		tokens = append(tokens, Token{
			DeltaLine:  uint32(deltaLine),
			DeltaStart: uint32(deltaStart),
			Length:     uint32(span.End - span.Start),
			Type:       uint32(d.Type),
			Modifiers:  uint32(d.Modifiers),
		})

		prevLine = cur.line
		prevStart = cur.column
	}

	return tokens
}
