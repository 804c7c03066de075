package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserKey contextKey = "user"
)

// UserLookup resolves the account behind a token
type UserLookup interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// AuthMiddleware validates JWT tokens and loads the caller's account into the context
func AuthMiddleware(jwtSecret string, users UserLookup, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})

			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					RespondWithError(w, http.StatusUnauthorized, "token expired")
				} else {
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
				}
				return
			}

			if !token.Valid {
				logger.Debug("Invalid token")
				RespondWithError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				logger.Error("Failed to extract claims from token")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			rawID, ok := claims["user_id"].(string)
			if !ok {
				logger.Debug("Missing user_id in token claims")
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			userID, err := uuid.Parse(rawID)
			if err != nil {
				logger.Debug("Malformed user_id in token claims", zap.String("user_id", rawID))
				RespondWithError(w, http.StatusUnauthorized, "invalid token claims")
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, repository.ErrUserNotFound) {
					logger.Debug("Token refers to a missing user", zap.String("user_id", rawID))
					RespondWithError(w, http.StatusUnauthorized, "invalid token")
					return
				}
				logger.Error("Failed to load authenticated user",
					zap.String("user_id", rawID),
					zap.Error(err),
				)
				RespondWithError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			logger.Debug("User authenticated",
				zap.String("user_id", rawID),
				zap.String("role", string(user.Role)),
			)

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser returns a copy of ctx carrying user
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// CurrentUser extracts the authenticated account from request context
func CurrentUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(UserKey).(*domain.User)
	return user, ok && user != nil
}

// GetUserID extracts user ID from request context
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	user, ok := CurrentUser(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return user.ID, true
}

// GetUserRole extracts user role from request context
func GetUserRole(ctx context.Context) (domain.Role, bool) {
	user, ok := CurrentUser(ctx)
	if !ok {
		return "", false
	}
	return user.Role, true
}
