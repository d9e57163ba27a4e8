// Package classifications turns raw part-of-speech predictions into
// filtered, ordered spans and provides the classifier collaborators that
// produce those predictions.
package classifications

import (
	"context"

	"github.com/JaimeStill/speechmark/internal/labels"
)

// Offsets are half-open code-point positions [Begin, End) into the text
// that was classified.
type Offsets struct {
	Begin int `json:"begin"`
	End   int `json:"end"`
}

// Prediction is one labeled word as reported by a classifier. Offsets is
// nil when the classifier could not locate the word in the text.
type Prediction struct {
	Word    string   `json:"word"`
	Label   string   `json:"label"`
	Score   float64  `json:"score"`
	Offsets *Offsets `json:"offsets,omitempty"`
}

// Span is a prediction that passed the gate.
type Span struct {
	Word     string          `json:"word"`
	Category labels.Category `json:"category"`
	Score    float64         `json:"score"`
	Start    int             `json:"start"`
	End      int             `json:"end"`
}

// Classifier labels every word of a text.
type Classifier interface {
	Classify(ctx context.Context, text string) ([]Prediction, error)
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(ctx context.Context, text string) ([]Prediction, error)

// Classify calls f.
func (f ClassifierFunc) Classify(ctx context.Context, text string) ([]Prediction, error) {
	return f(ctx, text)
}
