package documents

import "github.com/JaimeStill/speechmark/internal/classifications"

// Revision is one full-text edit of a document. Versions are supplied by
// the caller and must increase for a revision to be processed.
type Revision struct {
	Key     string `json:"key"`
	Text    string `json:"text"`
	Version int32  `json:"version"`
}

// Document is the immutable result of classifying one revision.
type Document struct {
	Text    string                 `json:"text"`
	Spans   []classifications.Span `json:"spans"`
	Version int32                  `json:"version"`
}

// Status summarises the coordinator's view of one document key.
type Status struct {
	Key        string `json:"key"`
	Latest     *int32 `json:"latest,omitempty"`
	Version    *int32 `json:"version,omitempty"`
	Queued     *int32 `json:"queued,omitempty"`
	Processing bool   `json:"processing"`
	Pending    int    `json:"pending"`
	Spans      int    `json:"spans"`
}
