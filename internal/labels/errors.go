package labels

import (
	"errors"
	"net/http"
)

var (
	// ErrUnknownCategory indicates a label the tag set does not define.
	ErrUnknownCategory = errors.New("unknown part of speech label")
	// ErrUnknownTokenType indicates a semantic token type outside the legend.
	ErrUnknownTokenType = errors.New("unknown token type")
	// ErrUnknownModifier indicates a semantic token modifier outside the legend.
	ErrUnknownModifier = errors.New("unknown token modifier")
	// ErrInvalidUpdate indicates a label map update that could not be decoded.
	ErrInvalidUpdate = errors.New("invalid label map update")
)

// MapHTTPStatus maps label errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidUpdate),
		errors.Is(err, ErrUnknownCategory),
		errors.Is(err, ErrUnknownTokenType),
		errors.Is(err, ErrUnknownModifier):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
