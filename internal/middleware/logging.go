package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/roster/internal/auth"
	pkghttp "github.com/BradenHooton/roster/pkg/http"
	pkglogger "github.com/BradenHooton/roster/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

// ClientIP resolves the caller's address once and stores it in the request
// context for audit entries and access logs.
func ClientIP(config *pkghttp.IPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := pkghttp.ExtractClientIP(r, config)
			next.ServeHTTP(w, r.WithContext(pkghttp.WithClientIP(r.Context(), ip)))
		})
	}
}

// SecureLogger returns a middleware for logging HTTP requests. Query strings
// that may carry personal data are redacted.
func SecureLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Wrap response writer to capture status and size
			wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// The auth middleware runs further in, so the owner is read from
			// the request the handler chain saw.
			var owner string
			next.ServeHTTP(wrapped, r.WithContext(withOwnerSink(r.Context(), &owner)))

			path := r.URL.Path
			if pkglogger.SensitiveQuery(r.URL.RawQuery) {
				path = path + "?[REDACTED]"
			} else if r.URL.RawQuery != "" {
				path = r.URL.Path + "?" + r.URL.RawQuery
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", path),
				slog.Int("status", wrapped.Status()),
				slog.Int64("bytes", int64(wrapped.BytesWritten())),
				slog.String("duration", time.Since(start).String()),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("client_ip", pkghttp.ClientIPFromContext(r.Context())),
			}
			if owner != "" {
				attrs = append(attrs, slog.String("owner_id", owner))
			}

			level := slog.LevelInfo
			if wrapped.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.LogAttrs(r.Context(), level, "http_request", attrs...)
		})
	}
}

// RecordOwner copies the authenticated owner into the sink installed by
// SecureLogger. It must run after the auth middleware.
func RecordOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sink := ownerSink(r.Context()); sink != nil {
			if owner, ok := auth.OwnerFromContext(r.Context()); ok {
				*sink = owner.ID
			}
		}
		next.ServeHTTP(w, r)
	})
}
