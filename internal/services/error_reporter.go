package services

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/roster/internal/config"
	"github.com/getsentry/sentry-go"
)

// ErrorReporter forwards unexpected failures to an error tracker.
type ErrorReporter interface {
	Capture(ctx context.Context, err error, tags map[string]string)
}

// NoopReporter discards reports. It is used when no tracker is configured.
type NoopReporter struct{}

func (NoopReporter) Capture(context.Context, error, map[string]string) {}

// SentryReporter sends reports to Sentry.
type SentryReporter struct{}

// NewSentryReporter initializes the Sentry client.
func NewSentryReporter(cfg config.SentryConfig) (*SentryReporter, error) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sentry: %w", err)
	}
	return &SentryReporter{}, nil
}

func (r *SentryReporter) Capture(ctx context.Context, err error, tags map[string]string) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub().Clone()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}

// Flush waits up to timeout for buffered events to be delivered.
func (r *SentryReporter) Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}
