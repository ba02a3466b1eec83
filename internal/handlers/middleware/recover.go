package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"

	"videotube/internal/handlers/render"
)

type errorLogger interface {
	Error(msg string, args ...any)
}

// RecoverMiddleware turns handler panics into plain 500 responses.
// The panic is reported to Sentry when sentry.Init was called at startup;
// with no DSN configured CaptureMessage is a no-op.
func RecoverMiddleware(l errorLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					sentry.WithScope(func(scope *sentry.Scope) {
						scope.SetExtra("panic", rec)
						scope.SetExtra("stack", string(debug.Stack()))
						sentry.CaptureMessage("panic in request")
					})

					l.Error("panic recovered",
						"method", r.Method,
						"uri", r.RequestURI,
						"panic", rec,
					)

					render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
