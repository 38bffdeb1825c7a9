package errors

import "errors"

var (
	ErrNotFound = errors.New("business not found")

	ErrInvalidID = errors.New("invalid catalog ID format")

	ErrServiceNotFound = errors.New("service not found")

	ErrEmployeeNotFound = errors.New("employee not found")
)
