package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireAdmin middleware ensures the authenticated user may administer the store
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := CurrentUser(r.Context())
			if !ok {
				logger.Warn("User not found in context")
				RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if !user.Role.CanAdminister() {
				logger.Warn("Non-admin user attempted to access admin endpoint",
					zap.String("user_id", user.ID.String()),
					zap.String("role", string(user.Role)),
				)
				RespondWithError(w, http.StatusForbidden, "unauthorized access")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
