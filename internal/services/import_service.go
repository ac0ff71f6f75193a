package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/BradenHooton/roster/internal/catalog"
	"github.com/BradenHooton/roster/internal/dedupe"
	"github.com/BradenHooton/roster/internal/models"
	"github.com/BradenHooton/roster/internal/normalize"
	"github.com/BradenHooton/roster/internal/spreadsheet"
)

// ImportSessionRepository defines the pending-import data access the services need
type ImportSessionRepository interface {
	Create(ctx context.Context, s *models.ImportSession) (*models.ImportSession, error)
	GetByID(ctx context.Context, ownerID, id string) (*models.ImportSession, error)
	Close(ctx context.Context, ownerID, id, status string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ImportResult is the outcome of an upload: either a finished import or a
// preview waiting on the owner's duplicate decision.
type ImportResult struct {
	Summary *models.ImportSummary `json:"summary,omitempty"`
	Preview *models.ImportPreview `json:"preview,omitempty"`
}

// ImportOptions tunes the import pipeline
type ImportOptions struct {
	MaxRows    int
	SessionTTL time.Duration
}

// ImportService runs spreadsheet imports: parse, normalize, validate,
// detect duplicates, then write new records one at a time.
type ImportService struct {
	employees EmployeeRepository
	sessions  ImportSessionRepository
	catalog   *catalog.Catalog
	audit     *AuditService
	notifier  ImportNotifier
	reporter  ErrorReporter
	logger    *slog.Logger
	opts      ImportOptions
	now       func() time.Time
}

// NewImportService creates a new ImportService
func NewImportService(
	employees EmployeeRepository,
	sessions ImportSessionRepository,
	cat *catalog.Catalog,
	audit *AuditService,
	notifier ImportNotifier,
	reporter ErrorReporter,
	logger *slog.Logger,
	opts ImportOptions,
) *ImportService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if reporter == nil {
		reporter = NoopReporter{}
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	return &ImportService{
		employees: employees,
		sessions:  sessions,
		catalog:   cat,
		audit:     audit,
		notifier:  notifier,
		reporter:  reporter,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
	}
}

// batch is a parsed and normalized upload, before duplicate detection
type batch struct {
	total    int
	valid    []models.ImportRecord
	rejected []models.RecordError
	warnings []models.ParseWarning
}

// prepare reads and normalizes a spreadsheet without touching the store.
func (s *ImportService) prepare(fileName string, r io.Reader) (*batch, error) {
	parsed, err := spreadsheet.Read(fileName, r, s.opts.MaxRows)
	if err != nil {
		if errors.Is(err, models.ErrUnsupportedFormat) || errors.Is(err, models.ErrEmptyImport) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", models.ErrBadRequest, err)
	}

	b := &batch{total: len(parsed.Records), warnings: parsed.Warnings}

	for col, header := range parsed.Headers {
		if header == "" {
			continue
		}
		if _, ok := s.catalog.Resolve(header); !ok {
			b.warnings = append(b.warnings, models.ParseWarning{
				Row:     1,
				Message: fmt.Sprintf("column %d %q is not a known field and was ignored", col+1, header),
			})
		}
	}

	for _, raw := range parsed.Records {
		emp, invalid := normalize.Record(raw, s.catalog)
		for _, field := range invalid {
			b.warnings = append(b.warnings, models.ParseWarning{
				Row:     raw.Row,
				Message: fmt.Sprintf("value for %s could not be read and was left blank", field),
			})
		}

		if err := validateEmployee(emp, raw.Row); err != nil {
			var recErr *models.RecordError
			if errors.As(err, &recErr) {
				b.rejected = append(b.rejected, *recErr)
			}
			continue
		}
		b.valid = append(b.valid, models.ImportRecord{Row: raw.Row, Employee: emp})
	}

	return b, nil
}

// Import processes an uploaded spreadsheet for owner. With no duplicates the
// new records are written immediately and a summary is returned. Otherwise the
// batch is held in a pending session and a preview is returned.
func (s *ImportService) Import(ctx context.Context, owner models.Owner, fileName string, r io.Reader) (*ImportResult, error) {
	b, err := s.prepare(fileName, r)
	if err != nil {
		return nil, err
	}

	part, err := s.partition(ctx, owner.ID, b.valid)
	if err != nil {
		return nil, err
	}

	newRecords, repeated := dropRepeats(part.NewRecords)
	rejected := append(b.rejected, repeated...)

	if len(part.Duplicates) == 0 {
		summary := &models.ImportSummary{
			FileName: fileName,
			Total:    b.total,
			Rejected: rejected,
			Warnings: b.warnings,
		}
		s.commit(ctx, owner, newRecords, summary)
		s.finish(ctx, owner, "", models.AuditActionImport, summary)
		return &ImportResult{Summary: summary}, nil
	}

	session, err := s.sessions.Create(ctx, &models.ImportSession{
		OwnerID:   owner.ID,
		FileName:  fileName,
		ExpiresAt: s.now().Add(s.opts.SessionTTL),
		Payload: models.ImportPayload{
			NewRecords: newRecords,
			Duplicates: len(part.Duplicates),
			Total:      b.total,
			Rejected:   rejected,
			Warnings:   b.warnings,
		},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to store import session", slog.Any("error", err))
		s.reporter.Capture(ctx, err, map[string]string{"operation": "create_import_session"})
		return nil, models.ErrInternalServer
	}

	duplicateEmails := make([]string, len(part.Duplicates))
	for i, d := range part.Duplicates {
		duplicateEmails[i] = d.Employee.Email
	}

	s.logger.InfoContext(ctx, "import awaiting duplicate decision",
		slog.String("session_id", session.ID),
		slog.Int("new", len(newRecords)),
		slog.Int("duplicates", len(part.Duplicates)),
	)

	return &ImportResult{Preview: &models.ImportPreview{
		SessionID:       session.ID,
		FileName:        fileName,
		Total:           b.total,
		NewCount:        len(newRecords),
		DuplicateCount:  len(part.Duplicates),
		DuplicateEmails: duplicateEmails,
		RepeatedInBatch: part.RepeatedInBatch,
		Rejected:        rejected,
		Warnings:        b.warnings,
		ExpiresAt:       session.ExpiresAt,
	}}, nil
}

// Check runs an upload through parsing, validation and duplicate detection
// without writing records or holding a session. The preview has no session id.
func (s *ImportService) Check(ctx context.Context, owner models.Owner, fileName string, r io.Reader) (*models.ImportPreview, error) {
	b, err := s.prepare(fileName, r)
	if err != nil {
		return nil, err
	}

	part, err := s.partition(ctx, owner.ID, b.valid)
	if err != nil {
		return nil, err
	}
	newRecords, repeated := dropRepeats(part.NewRecords)

	duplicateEmails := make([]string, len(part.Duplicates))
	for i, d := range part.Duplicates {
		duplicateEmails[i] = d.Employee.Email
	}

	return &models.ImportPreview{
		FileName:        fileName,
		Total:           b.total,
		NewCount:        len(newRecords),
		DuplicateCount:  len(part.Duplicates),
		DuplicateEmails: duplicateEmails,
		RepeatedInBatch: part.RepeatedInBatch,
		Rejected:        append(b.rejected, repeated...),
		Warnings:        b.warnings,
	}, nil
}

// Confirm proceeds with a pending import, writing only its new records.
func (s *ImportService) Confirm(ctx context.Context, owner models.Owner, sessionID string) (*models.ImportSummary, error) {
	session, err := s.pendingSession(ctx, owner.ID, sessionID)
	if err != nil {
		return nil, err
	}

	payload := session.Payload

	// Records that were new at preview time may have been added since.
	// A failed lookup leaves the session pending so the confirm can be retried.
	part, err := s.partition(ctx, owner.ID, payload.NewRecords)
	if err != nil {
		return nil, err
	}

	// The session is claimed before any write so a second confirm cannot write the batch again.
	if err := s.sessions.Close(ctx, owner.ID, sessionID, models.ImportStatusCommitted); err != nil {
		return nil, s.sessionError(ctx, err)
	}

	summary := &models.ImportSummary{
		FileName:          session.FileName,
		Total:             payload.Total,
		SkippedDuplicates: payload.Duplicates + len(part.Duplicates),
		Rejected:          payload.Rejected,
		Warnings:          payload.Warnings,
	}

	s.commit(ctx, owner, part.NewRecords, summary)
	s.finish(ctx, owner, sessionID, models.AuditActionConfirm, summary)
	return summary, nil
}

// Cancel abandons a pending import without writing anything.
func (s *ImportService) Cancel(ctx context.Context, owner models.Owner, sessionID string) error {
	session, err := s.pendingSession(ctx, owner.ID, sessionID)
	if err != nil {
		return err
	}

	if err := s.sessions.Close(ctx, owner.ID, sessionID, models.ImportStatusCancelled); err != nil {
		return s.sessionError(ctx, err)
	}

	s.audit.Record(ctx, AuditEntry{
		OwnerID:      owner.ID,
		EventType:    models.AuditEventTypeImport,
		ResourceType: models.AuditResourceTypeImportSession,
		ResourceID:   sessionID,
		Action:       models.AuditActionCancel,
		Success:      true,
		Metadata: models.AuditMetadata{
			"file_name":  session.FileName,
			"duplicates": session.Payload.Duplicates,
			"new":        len(session.Payload.NewRecords),
		},
	})
	return nil
}

// CleanupExpiredSessions deletes pending imports past their expiry.
func (s *ImportService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

func (s *ImportService) pendingSession(ctx context.Context, ownerID, sessionID string) (*models.ImportSession, error) {
	session, err := s.sessions.GetByID(ctx, ownerID, sessionID)
	if err != nil {
		return nil, s.sessionError(ctx, err)
	}
	if session.Status != models.ImportStatusPending {
		return nil, models.ErrImportSessionClosed
	}
	if s.now().After(session.ExpiresAt) {
		return nil, models.ErrImportSessionExpired
	}
	return session, nil
}

func (s *ImportService) sessionError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrBadRequest):
		return models.ErrNotFound
	case errors.Is(err, models.ErrImportSessionClosed):
		return models.ErrImportSessionClosed
	}
	s.logger.ErrorContext(ctx, "failed to load import session", slog.Any("error", err))
	s.reporter.Capture(ctx, err, map[string]string{"operation": "import_session"})
	return models.ErrInternalServer
}

// partition looks up which records already exist for the owner and splits them.
func (s *ImportService) partition(ctx context.Context, ownerID string, records []models.ImportRecord) (dedupe.Result[models.ImportRecord], error) {
	emails := make([]string, 0, len(records))
	for _, r := range records {
		if r.Employee.Email != "" {
			emails = append(emails, r.Employee.Email)
		}
	}

	existing, err := s.employees.FindByEmails(ctx, ownerID, emails)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to look up existing emails", slog.Any("error", err))
		s.reporter.Capture(ctx, err, map[string]string{"operation": "find_by_emails"})
		return dedupe.Result[models.ImportRecord]{}, models.ErrInternalServer
	}

	return dedupe.Partition(records, importRecordEmail, dedupe.NewEmailSet(existing...)), nil
}

func importRecordEmail(r models.ImportRecord) string {
	return r.Employee.Email
}

// dropRepeats keeps the first record for each email and rejects the rest,
// since the store holds one employee per email.
func dropRepeats(records []models.ImportRecord) ([]models.ImportRecord, []models.RecordError) {
	firstRow := make(map[string]int, len(records))
	kept := make([]models.ImportRecord, 0, len(records))
	var rejected []models.RecordError

	for _, r := range records {
		email := r.Employee.Email
		if row, seen := firstRow[email]; seen && email != "" {
			rejected = append(rejected, models.RecordError{
				Row:    r.Row,
				Email:  email,
				Field:  "email",
				Reason: fmt.Sprintf("email already appears in row %d of this file", row),
			})
			continue
		}
		firstRow[email] = r.Row
		kept = append(kept, r)
	}
	return kept, rejected
}

// commit writes records sequentially and stops at the first failed write.
// Records written before the failure stay written.
func (s *ImportService) commit(ctx context.Context, owner models.Owner, records []models.ImportRecord, summary *models.ImportSummary) {
	// The batch outcome must be accounted for even if the caller goes away mid-import.
	ctx = context.WithoutCancel(ctx)
	summary.Failed = len(summary.Rejected)

	for i, rec := range records {
		rec.Employee.OwnerID = owner.ID
		created, err := s.employees.Create(ctx, rec.Employee)
		if err != nil {
			summary.Failed++
			summary.NotAttempted = len(records) - i - 1
			summary.FailureReason = fmt.Sprintf("row %d: %s", rec.Row, writeFailureReason(err))

			s.logger.ErrorContext(ctx, "import write failed; remaining records not attempted",
				slog.Int("row", rec.Row),
				slog.Int("succeeded", summary.Succeeded),
				slog.Int("not_attempted", summary.NotAttempted),
				slog.Any("error", err),
			)
			if !errors.Is(err, models.ErrConflict) && !errors.Is(err, models.ErrBadRequest) {
				s.reporter.Capture(ctx, err, map[string]string{"operation": "import_write"})
			}
			return
		}
		summary.Succeeded++
		summary.CreatedIDs = append(summary.CreatedIDs, created.ID)
	}
}

func writeFailureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrConflict):
		return "an employee with this email already exists"
	case errors.Is(err, models.ErrBadRequest):
		return "the record was rejected by the store"
	}
	return "the record could not be saved"
}

// finish audits a completed import and notifies the owner.
func (s *ImportService) finish(ctx context.Context, owner models.Owner, sessionID, action string, summary *models.ImportSummary) {
	s.logger.InfoContext(ctx, "import finished",
		slog.String("file_name", summary.FileName),
		slog.Int("total", summary.Total),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("skipped_duplicates", summary.SkippedDuplicates),
		slog.Int("failed", summary.Failed),
	)

	entry := AuditEntry{
		OwnerID:       owner.ID,
		EventType:     models.AuditEventTypeImport,
		Action:        action,
		Success:       summary.FailureReason == "",
		FailureReason: summary.FailureReason,
		Metadata:      models.NewImportMetadata(summary),
	}
	if sessionID != "" {
		entry.ResourceType = models.AuditResourceTypeImportSession
		entry.ResourceID = sessionID
	}
	s.audit.Record(ctx, entry)

	if err := s.notifier.SendImportSummary(context.WithoutCancel(ctx), owner.Email, summary); err != nil {
		s.logger.WarnContext(ctx, "failed to send import summary", slog.Any("error", err))
	}
}
