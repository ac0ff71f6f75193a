package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/BradenHooton/roster/internal/models"
	pkghttp "github.com/BradenHooton/roster/pkg/http"
	pkglogger "github.com/BradenHooton/roster/pkg/logger"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing token claims in context
	UserContextKey contextKey = "user"
)

// AuthMiddleware validates bearer tokens and injects their claims into context.
// Rejected requests are written to the access audit log.
func AuthMiddleware(tm *TokenManager, audit *pkglogger.AuditLogger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reject := func(reason, message string) {
				audit.LogAccessDenied(r.Context(), pkglogger.AccessEvent{
					EventType: pkglogger.EventTokenRejected,
					IPAddress: pkghttp.ClientIPFromContext(r.Context()),
					UserAgent: r.UserAgent(),
					Path:      r.URL.Path,
					Reason:    reason,
				})
				pkghttp.WriteUnauthorized(w, message)
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				reject("missing authorization header", "missing authorization header")
				return
			}

			// Parse Bearer token
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				reject("malformed authorization header", "invalid authorization header format")
				return
			}

			claims, err := tm.ValidateToken(parts[1])
			if err != nil {
				reject(err.Error(), "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerFromContext returns the account acting on the request
func OwnerFromContext(ctx context.Context) (models.Owner, bool) {
	claims, ok := ctx.Value(UserContextKey).(*models.TokenClaims)
	if !ok || claims == nil {
		return models.Owner{}, false
	}
	return claims.Owner(), true
}

// WithClaims returns a copy of ctx carrying claims
func WithClaims(ctx context.Context, claims *models.TokenClaims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}
