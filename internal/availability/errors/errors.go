package errors

import "errors"

var (
	ErrNotFound = errors.New("availability status not found")

	ErrVersionConflict = errors.New("availability status version mismatch")
)
