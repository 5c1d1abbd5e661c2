package similarity

import "errors"

// Lookup errors
var (
	// ErrNotFound indicates no medicine matched the query name
	ErrNotFound = errors.New("medicine not found")

	// ErrDatasetUnavailable indicates the reference dataset is not loaded
	ErrDatasetUnavailable = errors.New("medicine dataset not available")

	// ErrInvalidInput indicates an empty or unusable query
	ErrInvalidInput = errors.New("invalid medicine name")
)
