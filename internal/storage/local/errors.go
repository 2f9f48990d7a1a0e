package local

import "errors"

var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidKey is returned for collection or record names that would
	// escape the store directory
	ErrInvalidKey = errors.New("invalid record key")
)
