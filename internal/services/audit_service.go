package services

import (
	"context"
	"log/slog"

	"github.com/BradenHooton/roster/internal/models"
	pkghttp "github.com/BradenHooton/roster/pkg/http"
	"github.com/google/uuid"
)

// AuditLogRepository defines the audit log data access the services need
type AuditLogRepository interface {
	Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int, offset int) ([]*models.AuditLog, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

func clientIP(ctx context.Context) *string {
	if ip := pkghttp.ClientIPFromContext(ctx); ip != "" {
		return &ip
	}
	return nil
}

// AuditService handles audit logging with dual-write pattern (slog + database)
type AuditService struct {
	repo   AuditLogRepository
	logger *slog.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo AuditLogRepository, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:   repo,
		logger: logger,
	}
}

// AuditEntry describes one auditable action.
type AuditEntry struct {
	OwnerID       string
	EventType     string
	ResourceType  string
	ResourceID    string
	Action        string
	Success       bool
	FailureReason string
	Metadata      models.AuditMetadata
}

// Record writes entry to the log and persists it. Persistence failures are
// logged and never returned to the caller. A nil service records nothing.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	if s == nil {
		return
	}
	attrs := []any{
		slog.String("event_type", entry.EventType),
		slog.String("owner_id", entry.OwnerID),
		slog.String("action", entry.Action),
	}
	if entry.ResourceID != "" {
		attrs = append(attrs, slog.String("resource_id", entry.ResourceID))
	}
	if len(entry.Metadata) > 0 {
		attrs = append(attrs, slog.Any("metadata", entry.Metadata))
	}

	// Dual-write: immediate slog output
	if entry.Success {
		s.logger.InfoContext(ctx, "audit event", attrs...)
	} else {
		attrs = append(attrs, slog.String("failure_reason", entry.FailureReason))
		s.logger.WarnContext(ctx, "audit event failed", attrs...)
	}

	ownerID, err := uuid.Parse(entry.OwnerID)
	if err != nil {
		s.logger.WarnContext(ctx, "audit event not persisted: owner id is not a uuid",
			slog.String("owner_id", entry.OwnerID))
		return
	}

	log := &models.AuditLog{
		OwnerID:   ownerID,
		EventType: entry.EventType,
		Action:    entry.Action,
		Success:   entry.Success,
		IPAddress: clientIP(ctx),
		Metadata:  entry.Metadata,
	}
	if entry.ResourceType != "" {
		log.ResourceType = &entry.ResourceType
	}
	if entry.ResourceID != "" {
		log.ResourceID = &entry.ResourceID
	}
	if entry.FailureReason != "" {
		log.FailureReason = &entry.FailureReason
	}

	// Non-critical: the audited action has already happened
	if _, err := s.repo.Create(ctx, log); err != nil {
		s.logger.ErrorContext(ctx, "failed to persist audit log",
			slog.String("event_type", entry.EventType),
			slog.Any("error", err),
		)
	}
}

// List returns a page of an owner's audit trail and the total count.
func (s *AuditService) List(ctx context.Context, ownerID string, limit, offset int) ([]*models.AuditLog, int64, error) {
	id, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, 0, models.ErrUnauthorized
	}

	logs, err := s.repo.ListByOwner(ctx, id, limit, offset)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list audit logs", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}

	total, err := s.repo.CountByOwner(ctx, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to count audit logs", slog.Any("error", err))
		return nil, 0, models.ErrInternalServer
	}

	return logs, total, nil
}
