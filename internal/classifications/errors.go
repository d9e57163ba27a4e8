package classifications

import "errors"

var (
	// ErrMissingOffsets marks a prediction the classifier could not place.
	ErrMissingOffsets = errors.New("prediction has no offsets")
	// ErrInvalidOffsets marks a prediction whose offsets are out of order or negative.
	ErrInvalidOffsets = errors.New("prediction offsets invalid")
	// ErrUnknownProvider is returned for an unrecognised classifier provider.
	ErrUnknownProvider = errors.New("unknown classifier provider")
	// ErrEmptyResponse is returned when a remote classifier answers with nothing usable.
	ErrEmptyResponse = errors.New("classifier returned empty response")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("classifier unavailable")
)
