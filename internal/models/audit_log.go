package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types for audit logging
const (
	AuditEventTypeEmployee = "employee"
	AuditEventTypeImport   = "import"
	AuditEventTypeExport   = "export"
)

// Resource types
const (
	AuditResourceTypeEmployee      = "employee"
	AuditResourceTypeImportSession = "import_session"
)

// Actions
const (
	AuditActionCreate  = "create"
	AuditActionUpdate  = "update"
	AuditActionDelete  = "delete"
	AuditActionImport  = "import"
	AuditActionConfirm = "confirm"
	AuditActionCancel  = "cancel"
	AuditActionExport  = "export"
)

type AuditLog struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	OwnerID       uuid.UUID     `db:"owner_id" json:"owner_id"`
	EventType     string        `db:"event_type" json:"event_type"`
	ResourceType  *string       `db:"resource_type" json:"resource_type,omitempty"`
	ResourceID    *string       `db:"resource_id" json:"resource_id,omitempty"`
	Action        string        `db:"action" json:"action"`
	Success       bool          `db:"success" json:"success"`
	FailureReason *string       `db:"failure_reason" json:"failure_reason,omitempty"`
	IPAddress     *string       `db:"ip_address" json:"ip_address,omitempty"`
	Metadata      AuditMetadata `db:"metadata" json:"metadata"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

// AuditMetadata holds additional context for audit events
type AuditMetadata map[string]interface{}

// Scan implements sql.Scanner for JSONB
func (am *AuditMetadata) Scan(value interface{}) error {
	if value == nil {
		*am = make(AuditMetadata)
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return ErrBadRequest
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	*am = AuditMetadata(m)
	return nil
}

// Value implements driver.Valuer for JSONB
func (am AuditMetadata) Value() (driver.Value, error) {
	if am == nil {
		return nil, nil
	}
	return json.Marshal(am)
}

// NewImportMetadata builds audit metadata for a finished import.
func NewImportMetadata(summary *ImportSummary) AuditMetadata {
	metadata := AuditMetadata{
		"file_name":          summary.FileName,
		"total":              summary.Total,
		"succeeded":          summary.Succeeded,
		"skipped_duplicates": summary.SkippedDuplicates,
		"failed":             summary.Failed,
		"not_attempted":      summary.NotAttempted,
		"rejected":           len(summary.Rejected),
	}
	if summary.FailureReason != "" {
		metadata["failure_reason"] = summary.FailureReason
	}
	return metadata
}
