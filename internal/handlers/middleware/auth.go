package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"videotube/internal/handlers/render"
	"videotube/internal/handlers/userctx"
)

type authService interface {
	// Resolve caller identity from the request token.
	// Must not hit the data store.
	Authenticate(r *http.Request) (uuid.UUID, error)
}

// AuthMiddleware guards protected routes.
// Every failure mode (missing, malformed, expired, bad signature) gets
// the same response so the token check can't be used as an oracle.
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := as.Authenticate(r)
			if err != nil {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := userctx.New(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
