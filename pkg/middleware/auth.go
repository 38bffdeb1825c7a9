package middleware

import (
	"net/http"
	"strings"

	"bizqueue/pkg/auth"
	apperrors "bizqueue/pkg/errors"
	httputil "bizqueue/pkg/http"
	"bizqueue/pkg/logger"
)

type Verifier interface {
	Verify(token string) (auth.Principal, error)
}

// Authenticate attaches the verified principal to the request context.
// Requests without credentials continue as guests; a credential that fails
// verification is rejected outright.
func Authenticate(verifier Verifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				_ = httputil.WriteError(w, apperrors.Unauthorized("Authorization header must be a bearer token"))
				return
			}

			principal, err := verifier.Verify(strings.TrimSpace(token))
			if err != nil {
				log.Warn("Credential rejected",
					"request_id", RequestID(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				_ = httputil.WriteError(w, apperrors.Unauthorized("Invalid or expired credential"))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}
