// Package documents coordinates per-document classification: at most one
// classification in flight per key, latest-wins queueing of edits, and
// bounded delivery of semantic tokens to waiting readers.
package documents

import (
	"context"
	"time"

	"github.com/JaimeStill/speechmark/internal/labels"
	"github.com/JaimeStill/speechmark/internal/tokens"
	"github.com/JaimeStill/speechmark/pkg/lifecycle"
	"github.com/JaimeStill/speechmark/pkg/pagination"
)

// System defines the public contract of the document coordinator.
type System interface {
	// Revise submits a full-text edit. Stale versions are discarded.
	Revise(rev Revision)
	// Forget drops all state for key and closes its pending token requests.
	Forget(key string)
	// RemapLabels merges update into the label map.
	RemapLabels(update labels.Update)
	// FetchTokens waits for the tokens of key. It returns ErrNoResult when
	// the request is closed without an answer.
	FetchTokens(ctx context.Context, key string) ([]tokens.Token, error)

	Status(ctx context.Context, key string) (Status, error)
	List(ctx context.Context, page pagination.PageRequest) (pagination.PageResult[Status], error)

	Start(lc *lifecycle.Coordinator) error
	Handler(fetchTimeout time.Duration, maxBodySize int64) *Handler
}
