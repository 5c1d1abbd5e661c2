package geo

import "errors"

var (
	// ErrInvalidLocation indicates a location name that is not in the table
	ErrInvalidLocation = errors.New("invalid location")

	// ErrInvalidInput indicates missing or out of range coordinates
	ErrInvalidInput = errors.New("invalid coordinates")
)
