package middleware

import (
	"net/http"

	apperrors "bizqueue/pkg/errors"
	httputil "bizqueue/pkg/http"
)

const (
	DefaultIdempotencyHeader = "Idempotency-Key"
	MaxIdempotencyKeyLength  = 128
)

// IdempotencyKeyValidation rejects malformed keys before they reach storage.
// Replays themselves are resolved by the booking ledger.
func IdempotencyKeyValidation(headerName string) func(http.Handler) http.Handler {
	if headerName == "" {
		headerName = DefaultIdempotencyHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(headerName)
			if key != "" && !validIdempotencyKey(key) {
				_ = httputil.WriteError(w, apperrors.InvalidInput(headerName+" must be 1-128 printable ASCII characters"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func validIdempotencyKey(key string) bool {
	if len(key) > MaxIdempotencyKeyLength {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < 0x21 || key[i] > 0x7e {
			return false
		}
	}
	return true
}
