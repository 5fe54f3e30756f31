package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/trailpoint/listing-service/internal/platform/logger"
)

// ContextKey is a private type for request context keys to avoid collisions.
type ContextKey string

const (
	// UserIDCtxKey carries the authenticated user id, when present.
	UserIDCtxKey = ContextKey("user_id")
	// UserRoleCtxKey carries the authenticated user's role, when present.
	UserRoleCtxKey = ContextKey("user_role")
)

// Claims defines the structure of the JWT claims expected from the token.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// UserID extracts the authenticated user id from the request context.
// Empty string means anonymous.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDCtxKey).(string)
	return id
}

// IsAdmin reports whether the request carries the admin role.
func IsAdmin(ctx context.Context) bool {
	role, _ := ctx.Value(UserRoleCtxKey).(string)
	return role == "admin"
}

// JWTAuth validates a Bearer token when one is present and stores the
// identity in the request context. Requests without a token pass through
// anonymously; requests with a bad token are rejected.
func JWTAuth(jwtSecret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "authorization token format is invalid, expected 'Bearer <token>'")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(jwtSecret), nil
			})
			if err != nil {
				log.Debug("Token validation failed", zap.Error(err))
				if errors.Is(err, jwt.ErrTokenExpired) {
					writeError(w, http.StatusUnauthorized, "token has expired")
					return
				}
				writeError(w, http.StatusUnauthorized, "token is invalid")
				return
			}
			if !token.Valid || claims.UserID == "" {
				writeError(w, http.StatusUnauthorized, "token is not valid")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDCtxKey, claims.UserID)
			ctx = context.WithValue(ctx, UserRoleCtxKey, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests. Must run after JWTAuth.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserID(r.Context()) == "" {
			writeError(w, http.StatusUnauthorized, "authorization token is not provided")
			return
		}
		next.ServeHTTP(w, r)
	})
}
