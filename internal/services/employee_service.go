package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/BradenHooton/roster/internal/catalog"
	"github.com/BradenHooton/roster/internal/filter"
	"github.com/BradenHooton/roster/internal/models"
	"github.com/BradenHooton/roster/internal/normalize"
	"github.com/BradenHooton/roster/internal/report"
	"github.com/BradenHooton/roster/internal/spreadsheet"
)

// EmployeeRepository defines the employee data access the services need.
// Every call is scoped to the owning account.
type EmployeeRepository interface {
	FindByEmails(ctx context.Context, ownerID string, emails []string) ([]string, error)
	Create(ctx context.Context, e *models.Employee) (*models.Employee, error)
	Update(ctx context.Context, e *models.Employee) (*models.Employee, error)
	Delete(ctx context.Context, ownerID, id string) error
	GetByID(ctx context.Context, ownerID, id string) (*models.Employee, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Employee, error)
}

// Export formats
const (
	ExportXLSX = "xlsx"
	ExportCSV  = "csv"
	ExportPDF  = "pdf"
)

// ExportContentType returns the MIME type of an export format.
func ExportContentType(format string) string {
	switch format {
	case ExportXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ExportCSV:
		return "text/csv; charset=utf-8"
	case ExportPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// readOnlyFields may appear in submitted forms but are never taken from them.
var readOnlyFields = map[string]bool{
	"id": true, "owner_id": true, "created_at": true, "updated_at": true,
}

// FilterResult is a filtered collection and the field definitions it was filtered with.
type FilterResult struct {
	Records []*models.Employee       `json:"records"`
	Fields  []models.FieldDefinition `json:"fields"`
	Total   int                      `json:"total"`
}

// EmployeeService handles the form-submission path and queries over an owner's records
type EmployeeService struct {
	repo     EmployeeRepository
	catalog  *catalog.Catalog
	audit    *AuditService
	reporter ErrorReporter
	logger   *slog.Logger
	now      func() time.Time
}

// NewEmployeeService creates a new EmployeeService
func NewEmployeeService(repo EmployeeRepository, cat *catalog.Catalog, audit *AuditService, reporter ErrorReporter, logger *slog.Logger) *EmployeeService {
	if reporter == nil {
		reporter = NoopReporter{}
	}
	return &EmployeeService{
		repo:     repo,
		catalog:  cat,
		audit:    audit,
		reporter: reporter,
		logger:   logger,
		now:      time.Now,
	}
}

// toRawRecord drops read-only keys and rejects keys that name no catalogued field.
func (s *EmployeeService) toRawRecord(values map[string]any) (models.RawRecord, error) {
	raw := models.RawRecord{Values: make(map[string]any, len(values))}
	for key, v := range values {
		if readOnlyFields[key] {
			continue
		}
		if _, ok := s.catalog.Resolve(key); !ok {
			return raw, fmt.Errorf("%w: unknown field %q", models.ErrBadRequest, key)
		}
		raw.Values[key] = v
	}
	return raw, nil
}

func (s *EmployeeService) logInvalid(ctx context.Context, invalid []string) {
	if len(invalid) > 0 {
		s.logger.InfoContext(ctx, "submitted values could not be read and were left blank",
			slog.Any("fields", invalid))
	}
}

// Create normalizes and validates a submitted form and stores the employee
func (s *EmployeeService) Create(ctx context.Context, ownerID string, values map[string]any) (*models.Employee, error) {
	raw, err := s.toRawRecord(values)
	if err != nil {
		return nil, err
	}

	emp, invalid := normalize.Record(raw, s.catalog)
	s.logInvalid(ctx, invalid)
	emp.OwnerID = ownerID

	if err := validateEmployee(emp, 0); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, emp)
	if err != nil {
		return nil, s.writeError(ctx, ownerID, models.AuditActionCreate, "", err)
	}

	s.audit.Record(ctx, AuditEntry{
		OwnerID:      ownerID,
		EventType:    models.AuditEventTypeEmployee,
		ResourceType: models.AuditResourceTypeEmployee,
		ResourceID:   created.ID,
		Action:       models.AuditActionCreate,
		Success:      true,
	})
	return created, nil
}

// Update overlays the submitted fields onto the stored employee. Fields not
// present in values keep their stored value; a present blank value clears a field.
func (s *EmployeeService) Update(ctx context.Context, ownerID, id string, values map[string]any) (*models.Employee, error) {
	raw, err := s.toRawRecord(values)
	if err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	// A name is derived again unless the form supplies one.
	if derivesName(raw, s.catalog) {
		existing.FullName = ""
	}
	invalid := normalize.Overlay(existing, raw, s.catalog)
	s.logInvalid(ctx, invalid)

	if err := validateEmployee(existing, 0); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, existing)
	if err != nil {
		return nil, s.writeError(ctx, ownerID, models.AuditActionUpdate, id, err)
	}

	s.audit.Record(ctx, AuditEntry{
		OwnerID:      ownerID,
		EventType:    models.AuditEventTypeEmployee,
		ResourceType: models.AuditResourceTypeEmployee,
		ResourceID:   id,
		Action:       models.AuditActionUpdate,
		Success:      true,
		Metadata:     models.AuditMetadata{"fields": len(raw.Values)},
	})
	return updated, nil
}

// derivesName reports whether raw changes a field the display name is built from
// while leaving the explicit full name alone.
func derivesName(raw models.RawRecord, cat *catalog.Catalog) bool {
	var parts bool
	for key := range raw.Values {
		name, _ := cat.Resolve(key)
		switch name {
		case "full_name":
			return false
		case "first_name", "last_name":
			parts = true
		}
	}
	return parts
}

// Delete hard-deletes an employee
func (s *EmployeeService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrBadRequest) {
			return models.ErrNotFound
		}
		return s.writeError(ctx, ownerID, models.AuditActionDelete, id, err)
	}

	s.audit.Record(ctx, AuditEntry{
		OwnerID:      ownerID,
		EventType:    models.AuditEventTypeEmployee,
		ResourceType: models.AuditResourceTypeEmployee,
		ResourceID:   id,
		Action:       models.AuditActionDelete,
		Success:      true,
	})
	return nil
}

// Get retrieves one employee
func (s *EmployeeService) Get(ctx context.Context, ownerID, id string) (*models.Employee, error) {
	emp, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		// A malformed id cannot name a stored employee
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrBadRequest) {
			return nil, models.ErrNotFound
		}
		s.logger.ErrorContext(ctx, "failed to get employee", slog.String("employee_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return emp, nil
}

// List returns all of an owner's employees
func (s *EmployeeService) List(ctx context.Context, ownerID string) ([]*models.Employee, error) {
	records, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list employees", slog.Any("error", err))
		s.reporter.Capture(ctx, err, map[string]string{"operation": "list_employees"})
		return nil, models.ErrInternalServer
	}
	return records, nil
}

// Fields returns the filterable field definitions with select options taken
// from the owner's current records.
func (s *EmployeeService) Fields(ctx context.Context, ownerID string) ([]models.FieldDefinition, error) {
	records, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return filter.Definitions(s.catalog, records), nil
}

// Filter applies rules to the owner's employees
func (s *EmployeeService) Filter(ctx context.Context, ownerID string, rules []models.FilterRule) (*FilterResult, error) {
	records, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	defs := filter.Definitions(s.catalog, records)
	matched := filter.Apply(records, rules, defs)

	return &FilterResult{Records: matched, Fields: defs, Total: len(records)}, nil
}

// Export writes the owner's employees matching rules to w in format
func (s *EmployeeService) Export(ctx context.Context, ownerID, format string, rules []models.FilterRule, w io.Writer) error {
	result, err := s.Filter(ctx, ownerID, rules)
	if err != nil {
		return err
	}

	switch format {
	case ExportXLSX:
		err = spreadsheet.WriteXLSX(w, s.catalog, result.Records)
	case ExportCSV:
		err = spreadsheet.WriteCSV(w, s.catalog, result.Records)
	case ExportPDF:
		err = report.WriteRoster(w, "Employee roster", result.Records, s.now())
	default:
		return fmt.Errorf("%w: export format %q", models.ErrUnsupportedFormat, format)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to write export", slog.String("format", format), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.Record(ctx, AuditEntry{
		OwnerID:   ownerID,
		EventType: models.AuditEventTypeExport,
		Action:    models.AuditActionExport,
		Success:   true,
		Metadata: models.AuditMetadata{
			"format":  format,
			"records": len(result.Records),
			"rules":   len(rules),
		},
	})
	return nil
}

// writeError maps a repository write failure and records it. Conflicts and
// bad input go back to the caller; anything else is reported and hidden.
func (s *EmployeeService) writeError(ctx context.Context, ownerID, action, id string, err error) error {
	entry := AuditEntry{
		OwnerID:       ownerID,
		EventType:     models.AuditEventTypeEmployee,
		ResourceType:  models.AuditResourceTypeEmployee,
		ResourceID:    id,
		Action:        action,
		Success:       false,
		FailureReason: err.Error(),
	}

	switch {
	case errors.Is(err, models.ErrConflict):
		entry.FailureReason = "email already in use"
		s.audit.Record(ctx, entry)
		return fmt.Errorf("%w: an employee with this email already exists", models.ErrConflict)
	case errors.Is(err, models.ErrNotFound):
		return models.ErrNotFound
	case errors.Is(err, models.ErrBadRequest):
		s.audit.Record(ctx, entry)
		return err
	}

	s.audit.Record(ctx, entry)
	s.logger.ErrorContext(ctx, "failed to write employee", slog.String("action", action), slog.Any("error", err))
	s.reporter.Capture(ctx, err, map[string]string{"operation": action + "_employee"})
	return models.ErrInternalServer
}
