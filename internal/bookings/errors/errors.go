package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrStatusChanged means a compare-and-set lost to a concurrent transition.
	ErrStatusChanged = errors.New("booking status changed concurrently")

	ErrDuplicateIdempotencyKey = errors.New("idempotency key already used")

	ErrSlotLocked = errors.New("slot lock held by another request")

	ErrInvalidTransition = errors.New("transition not allowed")

	ErrAlreadyCancelled = errors.New("booking already cancelled")

	ErrImmutable = errors.New("booking is completed and can no longer change")
)
