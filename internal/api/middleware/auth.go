package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/cenk2025/hardpath/internal/api/auth"
	"github.com/cenk2025/hardpath/internal/api/respond"
	"github.com/cenk2025/hardpath/internal/models"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	emailKey  contextKey = "email"
	roleKey   contextKey = "role"
)

// AccessTokenQueryParam carries the token on websocket upgrades, where
// browsers cannot set an Authorization header.
const AccessTokenQueryParam = "access_token"

// WithUserContext stores the authenticated identity on ctx.
func WithUserContext(ctx context.Context, userID, email string, role models.Role) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, emailKey, email)
	return context.WithValue(ctx, roleKey, role)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func authenticate(jwtService *auth.JWTService, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" && allowQuery {
				token = r.URL.Query().Get(AccessTokenQueryParam)
			}
			if token == "" {
				respond.Unauthorized(w, "invalid or expired token")
				return
			}

			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				log.Printf("JWT auth failed for %s: %v", r.RemoteAddr, err)
				respond.Unauthorized(w, "invalid or expired token")
				return
			}

			ctx := WithUserContext(r.Context(), claims.UserID, claims.Email, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// JWTAuth requires a valid bearer token in the Authorization header.
func JWTAuth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return authenticate(jwtService, false)
}

// JWTAuthOrQuery also accepts the token in the access_token query parameter.
func JWTAuthOrQuery(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return authenticate(jwtService, true)
}

// GetUserID returns the user ID from context.
func GetUserID(ctx context.Context) string {
	s, _ := ctx.Value(userIDKey).(string)
	return s
}

// GetEmail returns the email from context.
func GetEmail(ctx context.Context) string {
	s, _ := ctx.Value(emailKey).(string)
	return s
}

// GetRole returns the user role from context.
func GetRole(ctx context.Context) models.Role {
	r, _ := ctx.Value(roleKey).(models.Role)
	return r
}
