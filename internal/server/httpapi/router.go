// Package httpapi exposes the session service over HTTP with a chi router.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes builds the router:
//
//	POST   /auth/signup
//	POST   /auth/signin
//	POST   /auth/refresh
//	DELETE /auth/logout   (guarded)
//	GET    /users/me      (guarded)
//	GET    /health
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.SignUp)
		r.Post("/signin", h.SignIn)
		r.Post("/refresh", h.Refresh)
		r.With(h.requireAuth).Delete("/logout", h.Logout)
	})

	r.With(h.requireAuth).Get("/users/me", h.Me)

	return r
}
