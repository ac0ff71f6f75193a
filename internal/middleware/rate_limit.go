package middleware

import (
	"net/http"
	"time"

	"github.com/BradenHooton/roster/internal/auth"
	pkghttp "github.com/BradenHooton/roster/pkg/http"
	pkglogger "github.com/BradenHooton/roster/pkg/logger"
	"github.com/go-chi/httprate"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
}

// DefaultImportRateLimit returns the default limit for upload endpoints
func DefaultImportRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 10,
	}
}

// keyByOwner limits per account once authenticated and per client address otherwise
func keyByOwner(r *http.Request) (string, error) {
	if owner, ok := auth.OwnerFromContext(r.Context()); ok {
		return "owner:" + owner.ID, nil
	}
	if ip := pkghttp.ClientIPFromContext(r.Context()); ip != "" {
		return "ip:" + ip, nil
	}
	return httprate.KeyByRealIP(r)
}

// RateLimitByOwner creates a middleware that rate limits requests per account.
// It must run after the auth middleware to key by owner.
func RateLimitByOwner(config RateLimitConfig, audit *pkglogger.AuditLogger) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(keyByOwner),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			event := pkglogger.AccessEvent{
				EventType: pkglogger.EventRateLimited,
				IPAddress: pkghttp.ClientIPFromContext(r.Context()),
				Path:      r.URL.Path,
			}
			if owner, ok := auth.OwnerFromContext(r.Context()); ok {
				event.OwnerID = owner.ID
			}
			audit.LogAccessDenied(r.Context(), event)
			pkghttp.WriteTooManyRequests(w, "Too many uploads, please wait a minute and try again")
		}),
	)
}
