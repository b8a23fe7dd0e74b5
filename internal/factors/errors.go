package factors

import "errors"

var (
	// ErrMissingInput is returned when a required input table is nil
	ErrMissingInput = errors.New("factors: missing input")

	// ErrMissingTenor is returned when the futures input lacks "F1" or "F2"
	ErrMissingTenor = errors.New("factors: missing futures tenor")

	// ErrMissingPosition is returned when the CFTC input lacks a commercial positions table
	ErrMissingPosition = errors.New("factors: missing CFTC position")

	// ErrInvalidBuckets is returned when the long-short transform is asked for fewer than one bucket
	ErrInvalidBuckets = errors.New("factors: bucket count must be positive")
)
