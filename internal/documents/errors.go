package documents

import (
	"errors"
	"net/http"
)

var (
	// ErrNoResult is returned when a token request is closed without an
	// answer: evicted by newer requests, superseded, forgotten or shut down.
	ErrNoResult = errors.New("no tokens available")
	// ErrStopped is returned once the coordinator is no longer running.
	ErrStopped = errors.New("document coordinator stopped")
	// ErrNotFound is returned for status queries on unknown keys.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("document coordinator already started")
	// ErrInvalidRevision is returned for revisions without a key.
	ErrInvalidRevision = errors.New("revision requires a key")
)

// MapHTTPStatus maps document coordinator errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidRevision):
		return http.StatusBadRequest
	case errors.Is(err, ErrStopped):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
