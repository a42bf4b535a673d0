package wire

import (
	"yamdb-api/internal/adaptor"
	"yamdb-api/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler, log *zap.Logger) {
	// ==================== PUBLIC ROUTES ====================
	r.Post("/auth/signup", authHandler.Signup)
	r.Post("/auth/token", authHandler.Token)
	r.Post("/auth/token/refresh", authHandler.Refresh)

	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(log))

		// admin re-sends a code to an existing account
		r.Patch("/auth/signup", authHandler.ReissueCode)
		r.Post("/auth/logout", authHandler.Logout)
	})
}
