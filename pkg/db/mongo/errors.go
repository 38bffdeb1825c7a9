package mongo

import (
	"context"
	"errors"

	apperrors "bizqueue/pkg/errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
)

// IsUnavailable reports storage failures a caller may retry: lost connections,
// server selection failures and driver timeouts.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	var selErr topology.ServerSelectionError
	if errors.As(err, &selErr) {
		return true
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.HasErrorLabel("TransientTransactionError") {
		return true
	}
	return false
}

// ToAppError maps a storage error to the taxonomy exposed to callers.
// AppErrors pass through untouched.
func ToAppError(err error, message string) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Timeout(message)
	}
	if IsUnavailable(err) {
		unavailable := apperrors.Unavailable("storage")
		unavailable.Err = err
		return unavailable
	}
	return apperrors.Internal(message, err)
}
