package classifications

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/JaimeStill/speechmark/internal/labels"
)

// DefaultThreshold is the minimum confidence a prediction must exceed.
const DefaultThreshold = 1.0 / 3.0

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Gate validates predictions and converts the survivors to spans.
type Gate struct {
	threshold float64
	logger    *slog.Logger
}

// NewGate creates a Gate that keeps predictions scoring strictly above
// threshold. A zero threshold keeps every prediction with a positive score.
func NewGate(threshold float64, logger *slog.Logger) *Gate {
	return &Gate{
		threshold: threshold,
		logger:    logger.With("system", "gate"),
	}
}

// Threshold returns the confidence cut-off in effect.
func (g *Gate) Threshold() float64 {
	return g.threshold
}

// Apply filters predictions for the document identified by key and
// returns the accepted spans ordered by start offset. Malformed
// predictions are logged and dropped without affecting the rest.
func (g *Gate) Apply(key string, preds []Prediction) []Span {
	spans := make([]Span, 0, len(preds))

	for _, p := range preds {
		span, err := convert(p)
		if err != nil {
			g.logger.Warn("dropping prediction",
				"key", key,
				"word", p.Word,
				"label", p.Label,
				"error", err,
			)
			continue
		}

		if span.Score <= g.threshold {
			continue
		}
		if punctuationOnly(span.Word) {
			continue
		}

		spans = append(spans, span)
	}

	slices.SortStableFunc(spans, func(a, b Span) int {
		return a.Start - b.Start
	})

	return spans
}

func convert(p Prediction) (Span, error) {
	category, err := labels.ParseCategory(p.Label)
	if err != nil {
		return Span{}, err
	}
	if p.Offsets == nil {
		return Span{}, ErrMissingOffsets
	}
	if p.Offsets.Begin < 0 || p.Offsets.End < p.Offsets.Begin {
		return Span{}, fmt.Errorf("%w: [%d, %d)", ErrInvalidOffsets, p.Offsets.Begin, p.Offsets.End)
	}

	return Span{
		Word:     p.Word,
		Category: category,
		Score:    p.Score,
		Start:    p.Offsets.Begin,
		End:      p.Offsets.End,
	}, nil
}

// punctuationOnly reports whether every character of word is ASCII
// punctuation. The empty word counts as punctuation only.
func punctuationOnly(word string) bool {
	for _, r := range word {
		if !strings.ContainsRune(asciiPunctuation, r) {
			return false
		}
	}
	return true
}
