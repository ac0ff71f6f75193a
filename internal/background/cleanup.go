package background

import (
	"context"
	"log/slog"
	"time"
)

// SessionSweeper deletes pending imports that were never confirmed in time
type SessionSweeper interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// AuditPruner deletes audit entries older than a number of days
type AuditPruner interface {
	Cleanup(ctx context.Context, olderThanDays int) (int64, error)
}

// CleanupManager periodically removes expired import sessions and, when a
// retention window is set, old audit entries.
type CleanupManager struct {
	sessions      SessionSweeper
	audit         AuditPruner
	retentionDays int
	logger        *slog.Logger
	interval      time.Duration
	stopCh        chan struct{}
}

// NewCleanupManager creates a new cleanup manager. audit may be nil, and a
// retentionDays of zero or less disables audit pruning.
func NewCleanupManager(
	sessions SessionSweeper,
	audit AuditPruner,
	retentionDays int,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	return &CleanupManager{
		sessions:      sessions,
		audit:         audit,
		retentionDays: retentionDays,
		logger:        logger,
		interval:      interval,
		stopCh:        make(chan struct{}),
	}
}

// Start begins the periodic cleanup task. It blocks until Stop is called or
// ctx is cancelled.
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rowsDeleted, err := cm.sessions.CleanupExpiredSessions(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to cleanup expired import sessions", slog.Any("error", err))
	} else if rowsDeleted > 0 {
		cm.logger.Info("expired import sessions removed", slog.Int64("rows_deleted", rowsDeleted))
	}

	if cm.audit == nil || cm.retentionDays <= 0 {
		return
	}

	rowsDeleted, err = cm.audit.Cleanup(cleanupCtx, cm.retentionDays)
	if err != nil {
		cm.logger.Error("failed to cleanup audit logs", slog.Any("error", err))
		return
	}
	if rowsDeleted > 0 {
		cm.logger.Info("old audit logs removed",
			slog.Int64("rows_deleted", rowsDeleted),
			slog.Int("retention_days", cm.retentionDays),
		)
	}
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
