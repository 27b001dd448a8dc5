package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "govinda/pkg/domain"
	"govinda/pkg/requestcontext"
)

// Claims is what the token validator hands back after verifying a bearer
// token.
type Claims struct {
	UserID   id.UserID
	TenantID id.TenantID
	Role     string
	JTI      string
}

// TokenValidator verifies a bearer token and extracts its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

// RevocationChecker reports whether a token was revoked before its expiry.
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
}

type roleKey struct{}
type jtiKey struct{}

// RoleFrom retrieves the authenticated user's role from the context.
func RoleFrom(ctx context.Context) string {
	if role, ok := ctx.Value(roleKey{}).(string); ok {
		return role
	}
	return ""
}

// JTIFrom retrieves the authenticated token's JTI from the context. Logout
// uses it to revoke the presented token.
func JTIFrom(ctx context.Context) string {
	if jti, ok := ctx.Value(jtiKey{}).(string); ok {
		return jti
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"` + message + `"}`))
}

// RequireAuth validates the bearer token and seeds the request context with
// the authenticated user and tenant. Every request downstream of this
// middleware is tenant-scoped.
func RequireAuth(validator TokenValidator, revocation RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "invalid token",
					"error", err, "request_id", requestcontext.RequestID(ctx))
				writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if revocation != nil {
				revoked, err := revocation.IsTokenRevoked(ctx, claims.JTI)
				if err != nil {
					logger.ErrorContext(ctx, "revocation check failed",
						"error", err, "request_id", requestcontext.RequestID(ctx))
					writeAuthError(w, http.StatusInternalServerError, "failed to validate token")
					return
				}
				if revoked {
					writeAuthError(w, http.StatusUnauthorized, "token has been revoked")
					return
				}
			}

			ctx = requestcontext.WithUserID(ctx, claims.UserID)
			ctx = requestcontext.WithTenantID(ctx, claims.TenantID)
			ctx = context.WithValue(ctx, roleKey{}, claims.Role)
			ctx = context.WithValue(ctx, jtiKey{}, claims.JTI)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole gates an endpoint on the authenticated user's role.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allowed[RoleFrom(r.Context())]; !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","message":"insufficient role"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
