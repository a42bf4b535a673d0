package wire

import (
	"yamdb-api/internal/adaptor"
	"yamdb-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireUser registers the admin console and the caller's own profile. Every
// route needs a signed-in caller; the admin check happens in the service.
func wireUser(r chi.Router, userHandler *adaptor.UserHandler, log *zap.Logger) {
	r.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireAuth(log))

		r.Get("/", userHandler.List)
		r.Post("/", userHandler.Create)

		// static "me" wins over the {username} pattern
		r.Get("/me", userHandler.Me)
		r.Patch("/me", userHandler.UpdateMe)

		r.Get("/{username}", userHandler.Get)
		r.Patch("/{username}", userHandler.Update)
		r.Delete("/{username}", userHandler.Delete)
	})
}
