package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "bizqueue/pkg/errors"
	httputil "bizqueue/pkg/http"
	"bizqueue/pkg/logger"
)

// Recovery turns a handler panic into a 500. http.ErrAbortHandler is re-raised
// so the server can drop the connection as it intends.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}

				log.Error("Panic recovered",
					"request_id", RequestID(r.Context()),
					"method", r.Method,
					"path", r.URL.Path,
					"panic", fmt.Sprint(p),
					"stack", string(debug.Stack()),
				)
				if err := httputil.WriteError(w, apperrors.Internal("panic", nil)); err != nil {
					log.Error("failed to write error response", "handler", "Recovery", "error", err)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
