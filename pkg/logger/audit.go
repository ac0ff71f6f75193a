package logger

import (
	"context"
	"log/slog"
	"time"
)

// Access event types
const (
	EventTokenRejected = "token_rejected"
	EventRateLimited   = "rate_limited"
)

// AccessEvent is a request refused before it reached a handler
type AccessEvent struct {
	EventType string
	OwnerID   string
	IPAddress string
	UserAgent string
	Path      string
	Reason    string
}

// AuditLogger writes access audit lines to the application log
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogAccessDenied logs a refused request at warn level
func (al *AuditLogger) LogAccessDenied(ctx context.Context, event AccessEvent) {
	if al == nil {
		return
	}

	attrs := []slog.Attr{
		slog.String("audit_type", "access"),
		slog.String("event_type", event.EventType),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.OwnerID != "" {
		attrs = append(attrs, slog.String("owner_id", event.OwnerID))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	if event.Path != "" {
		attrs = append(attrs, slog.String("path", event.Path))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}

	al.logger.LogAttrs(ctx, slog.LevelWarn, "audit", attrs...)
}
