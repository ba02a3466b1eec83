package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"videotube/internal/handlers/middleware"
	"videotube/internal/logger"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type authenticator interface {
	Authenticate(r *http.Request) (uuid.UUID, error)
}

func NewRouter(
	auth *AuthHandler,
	user *UserHandler,
	authenticator authenticator,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authenticator)
	withAuth := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(h)
	}

	apiusers := http.NewServeMux()

	apiusers.Handle("POST /register", http.HandlerFunc(auth.register))
	apiusers.Handle("POST /login", http.HandlerFunc(auth.login))
	apiusers.Handle("POST /refresh", http.HandlerFunc(auth.refresh))

	apiusers.Handle("POST /logout", withAuth(auth.logout))
	apiusers.Handle("POST /change-password", withAuth(auth.changePassword))
	apiusers.Handle("GET /me", withAuth(user.me))
	apiusers.Handle("PATCH /me", withAuth(user.updateProfile))
	apiusers.Handle("PATCH /me/avatar", withAuth(user.updateAvatar))
	apiusers.Handle("PATCH /me/cover", withAuth(user.updateCover))

	root := http.NewServeMux()
	root.Handle("/api/v1/users/", http.StripPrefix("/api/v1/users", apiusers))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
		middleware.RecoverMiddleware(logger),
	)

	return handler
}
