package middleware

import (
	"net/http"
	"strings"

	"yamdb-api/internal/data/repository"
	"yamdb-api/pkg/token"
	"yamdb-api/pkg/utils"

	"go.uber.org/zap"
)

// Authenticate resolves an optional bearer access token into the request context.
// Requests without an Authorization header pass through as anonymous; a header
// that is present but not a valid, unrevoked access token is rejected with 401.
// The role comes from the stored user so role changes apply immediately.
func Authenticate(issuer *token.Issuer, userRepo repository.UserRepository, revoked token.RevocationStore, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, raw, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			claims, err := issuer.Parse(strings.TrimSpace(raw), token.TypeAccess)
			if err != nil {
				logger.Debug("Rejected access token", zap.Error(err))
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			isRevoked, err := revoked.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				logger.Error("Failed to check token revocation", zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if isRevoked {
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			userID, _ := claims.UserID()
			user, err := userRepo.FindByID(r.Context(), userID)
			if err != nil {
				logger.Error("Failed to load token user", zap.Error(err), zap.String("user_id", userID.String()))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if user == nil {
				logger.Warn("Token for deleted user", zap.String("user_id", userID.String()))
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx := utils.SetUserContext(r.Context(), user.ID, user.Username, string(user.Role))
			ctx = utils.SetTokenIDContext(ctx, claims.ID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests. Routes that only make sense for a
// signed-in caller mount it so they fail before decoding the body.
func RequireAuth(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
				logger.Debug("Anonymous access to protected route", zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
