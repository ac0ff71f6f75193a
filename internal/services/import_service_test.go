package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/BradenHooton/roster/internal/catalog"
	"github.com/BradenHooton/roster/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type importFixture struct {
	svc       *ImportService
	employees *MemoryEmployeeRepository
	sessions  *MemoryImportSessionRepository
	audit     *MockAuditLogRepository
	notifier  *MockNotifier
	reporter  *MockReporter
	owner     models.Owner
}

func newImportFixture(t *testing.T, seed ...string) *importFixture {
	t.Helper()

	f := &importFixture{
		sessions: NewMemoryImportSessionRepository(),
		audit:    &MockAuditLogRepository{},
		notifier: &MockNotifier{},
		reporter: &MockReporter{},
		owner:    NewTestOwner("owner@example.com"),
	}

	var existing []*models.Employee
	for _, email := range seed {
		existing = append(existing, NewTestEmployee(f.owner.ID, email, "Existing "+email))
	}
	f.employees = NewMemoryEmployeeRepository(existing...)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewImportService(
		f.employees,
		f.sessions,
		catalog.Default(),
		NewAuditService(f.audit, logger),
		f.notifier,
		f.reporter,
		logger,
		ImportOptions{MaxRows: 100, SessionTTL: 30 * time.Minute},
	)
	return f
}

func csvFile(lines ...string) io.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func TestImportService_Import_NoDuplicatesCommitsImmediately(t *testing.T) {
	f := newImportFixture(t)

	result, err := f.svc.Import(context.Background(), f.owner, "staff.csv", csvFile(
		"Email,Full Name,Department",
		"Ann@Example.com,Ann Lee,Engineering",
		"bob@example.com,Bob Tan,Finance",
	))

	require.NoError(t, err)
	require.NotNil(t, result.Summary)
	assert.Nil(t, result.Preview)
	assert.Equal(t, 2, result.Summary.Total)
	assert.Equal(t, 2, result.Summary.Succeeded)
	assert.Equal(t, 0, result.Summary.Failed)
	assert.Len(t, result.Summary.CreatedIDs, 2)
	assert.Equal(t, []string{"ann@example.com", "bob@example.com"}, f.employees.Emails(f.owner.ID))

	require.Len(t, f.notifier.Sent, 1)
	assert.Equal(t, "owner@example.com", f.notifier.To[0])
	assert.Equal(t, []string{models.AuditActionImport}, f.audit.Actions())
}

func TestImportService_Import_AllDuplicatesNeedsDecision(t *testing.T) {
	f := newImportFixture(t, "a@x.com", "b@x.com")

	result, err := f.svc.Import(context.Background(), f.owner, "staff.csv", csvFile(
		"Email,Full Name",
		"a@x.com,Ann",
		"B@X.com,Bob",
	))

	require.NoError(t, err)
	require.NotNil(t, result.Preview)
	assert.Nil(t, result.Summary)
	assert.Equal(t, 2, result.Preview.DuplicateCount)
	assert.Equal(t, 0, result.Preview.NewCount)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, result.Preview.DuplicateEmails)
	assert.Empty(t, f.notifier.Sent)

	summary, err := f.svc.Confirm(context.Background(), f.owner, result.Preview.SessionID)

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 2, summary.SkippedDuplicates)
	assert.Equal(t, 0, f.employees.Creates)
	assert.Len(t, f.employees.Emails(f.owner.ID), 2)
}

func TestImportService_Confirm_WritesOnlyNewRecords(t *testing.T) {
	f := newImportFixture(t, "a@x.com")

	result, err := f.svc.Import(context.Background(), f.owner, "staff.csv", csvFile(
		"Email,Full Name",
		"a@x.com,Ann",
		"c@x.com,Cat",
		"d@x.com,Dan",
	))
	require.NoError(t, err)
	require.NotNil(t, result.Preview)
	assert.Equal(t, 2, result.Preview.NewCount)
	assert.Equal(t, 1, result.Preview.DuplicateCount)

	summary, err := f.svc.Confirm(context.Background(), f.owner, result.Preview.SessionID)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.SkippedDuplicates)
	assert.Equal(t, []string{"a@x.com", "c@x.com", "d@x.com"}, f.employees.Emails(f.owner.ID))
	assert.Equal(t, []string{models.AuditActionConfirm}, f.audit.Actions())
	assert.Len(t, f.notifier.Sent, 1)
}

func TestImportService_Confirm_SkipsRecordsAddedSincePreview(t *testing.T) {
	f := newImportFixture(t, "a@x.com")

	result, err := f.svc.Import(context.Background(), f.owner, "staff.csv", csvFile(
		"Email,Full Name",
		"a@x.com,Ann",
		"c@x.com,Cat",
	))
	require.NoError(t, err)
	require.NotNil(t, result.Preview)

	_, err = f.employees.Create(context.Background(), NewTestEmployee(f.owner.ID, "c@x.com", "Cat"))
	require.NoError(t, err)
	creates := f.employees.Creates

	summary, err := f.svc.Confirm(context.Background(), f.owner, result.Preview.SessionID)

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Succeeded)
	assert.Equal(t, 2, summary.SkippedDuplicates)
	assert.Equal(t, creates, f.employees.Creates)
}

func TestImportService_Import_StopsAtFirstFailedWrite(t *testing.T) {
	f := newImportFixture(t)
	f.employees.FailOnEmail = "b@x.com"

	result, err := f.svc.Import(context.Background(), f.owner, "staff.csv", csvFile(
		"Email,Full Name",
		"a@x.com,Ann",
		"b@x.com,Bob",
		"c@x.com,Cat",
	))

	require.NoError(t, err)
	summary := result.Summary
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.NotAttempted)
	assert.Contains(t, summary.FailureReason, "row 3")
	assert.Equal(t, []string{"a@x.com"}, f.employees.Emails(f.owner.ID))
	assert.Equal(t, 2, f.employees.Creates)
	assert.Len(t, f.reporter.Captured, 1)

	require.Len(t, f.audit.Entries, 1)
	assert.False(t, f.audit.Entries[0].Success)
}

func TestImportService_Import_RejectsInvalidRowsAndContinues(t *testing.T) {
	f := newImportFixture(t)

	result, err := f.svc.Import(context.Background(), f.owner, "staff.csv", csvFile(
		"Email,Full Name",
		",No Email",
		"not-an-email,Bad Email",
		"c@x.com,Cat",
	))

	require.NoError(t, err)
	summary := result.Summary
	require.NotNil(t, summary)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	require.Len(t, summary.Rejected, 2)
	assert.Equal(t, 2, summary.Rejected[0].Row)
	assert.Equal(t, "email", summary.Rejected[0].Field)
	assert.Equal(t, 3, summary.Rejected[1].Row)
}

func TestImportService_Import_RejectsEmailRepeatedInFile(t *testing.T) {
	f := newImportFixture(t)

	result, err := f.svc.Import(context.Background(), f.owner, "staff.csv", csvFile(
		"Email,Full Name",
		"a@x.com,Ann",
		"A@x.com,Ann Again",
	))

	require.NoError(t, err)
	summary := result.Summary
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Succeeded)
	require.Len(t, summary.Rejected, 1)
	assert.Equal(t, 3, summary.Rejected[0].Row)
	assert.Contains(t, summary.Rejected[0].Reason, "row 2")
}

func TestImportService_Import_WarnsOnUnknownColumnsAndBadValues(t *testing.T) {
	f := newImportFixture(t)

	result, err := f.svc.Import(context.Background(), f.owner, "staff.csv", csvFile(
		"Email,Full Name,Shoe Size,Date of Hire",
		"a@x.com,Ann,42,sometime",
	))

	require.NoError(t, err)
	require.NotNil(t, result.Summary)
	assert.Equal(t, 1, result.Summary.Succeeded)

	var messages []string
	for _, w := range result.Summary.Warnings {
		messages = append(messages, w.Message)
	}
	require.Len(t, messages, 2)
	assert.Contains(t, messages[0], "Shoe Size")
	assert.Contains(t, messages[1], "date_of_hire")
}

func TestImportService_Import_UnsupportedFormat(t *testing.T) {
	f := newImportFixture(t)

	result, err := f.svc.Import(context.Background(), f.owner, "staff.pdf", strings.NewReader("%PDF-1.4"))

	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
	assert.Nil(t, result)
}

func TestImportService_Import_EmptyFile(t *testing.T) {
	f := newImportFixture(t)

	_, err := f.svc.Import(context.Background(), f.owner, "staff.csv", csvFile("Email,Full Name"))

	assert.ErrorIs(t, err, models.ErrEmptyImport)
}

func TestImportService_Import_LookupFailure(t *testing.T) {
	f := newImportFixture(t)
	f.svc.employees = &MockEmployeeRepository{
		FindByEmailsFunc: func(ctx context.Context, ownerID string, emails []string) ([]string, error) {
			return nil, models.ErrInternalServer
		},
	}

	_, err := f.svc.Import(context.Background(), f.owner, "staff.csv", csvFile("Email,Full Name", "a@x.com,Ann"))

	assert.Equal(t, models.ErrInternalServer, err)
	assert.Len(t, f.reporter.Captured, 1)
}

func TestImportService_Cancel_WritesNothing(t *testing.T) {
	f := newImportFixture(t, "a@x.com")

	result, err := f.svc.Import(context.Background(), f.owner, "staff.csv", csvFile(
		"Email,Full Name",
		"a@x.com,Ann",
		"c@x.com,Cat",
	))
	require.NoError(t, err)
	require.NotNil(t, result.Preview)

	require.NoError(t, f.svc.Cancel(context.Background(), f.owner, result.Preview.SessionID))

	assert.Equal(t, 0, f.employees.Creates)
	assert.Equal(t, []string{models.AuditActionCancel}, f.audit.Actions())

	_, err = f.svc.Confirm(context.Background(), f.owner, result.Preview.SessionID)
	assert.ErrorIs(t, err, models.ErrImportSessionClosed)
}

func TestImportService_Confirm_Twice(t *testing.T) {
	f := newImportFixture(t, "a@x.com")

	result, err := f.svc.Import(context.Background(), f.owner, "staff.csv", csvFile("Email,Full Name", "a@x.com,Ann", "c@x.com,Cat"))
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), f.owner, result.Preview.SessionID)
	require.NoError(t, err)
	_, err = f.svc.Confirm(context.Background(), f.owner, result.Preview.SessionID)

	assert.ErrorIs(t, err, models.ErrImportSessionClosed)
	assert.Equal(t, 1, f.employees.Creates)
}

func TestImportService_Confirm_Expired(t *testing.T) {
	f := newImportFixture(t, "a@x.com")

	result, err := f.svc.Import(context.Background(), f.owner, "staff.csv", csvFile("Email,Full Name", "a@x.com,Ann", "c@x.com,Cat"))
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = f.svc.Confirm(context.Background(), f.owner, result.Preview.SessionID)

	assert.ErrorIs(t, err, models.ErrImportSessionExpired)
	assert.Equal(t, 0, f.employees.Creates)

	removed, err := f.svc.CleanupExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}

func TestImportService_Confirm_OtherOwnersSession(t *testing.T) {
	f := newImportFixture(t, "a@x.com")

	result, err := f.svc.Import(context.Background(), f.owner, "staff.csv", csvFile("Email,Full Name", "a@x.com,Ann"))
	require.NoError(t, err)

	_, err = f.svc.Confirm(context.Background(), NewTestOwner("intruder@example.com"), result.Preview.SessionID)

	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestImportService_NotifierFailureDoesNotFailImport(t *testing.T) {
	f := newImportFixture(t)
	f.notifier.Err = assert.AnError

	result, err := f.svc.Import(context.Background(), f.owner, "staff.csv", csvFile("Email,Full Name", "a@x.com,Ann"))

	require.NoError(t, err)
	assert.Equal(t, 1, result.Summary.Succeeded)
}

func TestImportService_Check_WritesNothing(t *testing.T) {
	f := newImportFixture(t, "ann@example.com")

	preview, err := f.svc.Check(context.Background(), f.owner, "staff.csv", csvFile(
		"Email,Full Name",
		"ann@example.com,Ann",
		"bob@example.com,Bob",
		"bob@example.com,Bobby",
	))

	require.NoError(t, err)
	assert.Empty(t, preview.SessionID)
	assert.Equal(t, 3, preview.Total)
	assert.Equal(t, 1, preview.NewCount)
	assert.Equal(t, []string{"ann@example.com"}, preview.DuplicateEmails)
	require.Len(t, preview.Rejected, 1)
	assert.Equal(t, 4, preview.Rejected[0].Row)

	assert.Equal(t, []string{"ann@example.com"}, f.employees.Emails(f.owner.ID))
	assert.Empty(t, f.audit.Entries)
	assert.Empty(t, f.notifier.Sent)
}

func TestImportService_Import_BadOptionalEmailIsLeftBlank(t *testing.T) {
	f := newImportFixture(t)

	result, err := f.svc.Import(context.Background(), f.owner, "staff.csv", csvFile(
		"Email,Full Name,Personal Email,Emergency Contact Email",
		"ann@example.com,Ann,not-an-email,Kin@Example.com",
	))

	require.NoError(t, err)
	require.NotNil(t, result.Summary)
	assert.Equal(t, 1, result.Summary.Succeeded)
	assert.Equal(t, 0, result.Summary.Failed)
	assert.Empty(t, result.Summary.Rejected)
	require.Len(t, result.Summary.Warnings, 1)
	assert.Equal(t, 2, result.Summary.Warnings[0].Row)
	assert.Contains(t, result.Summary.Warnings[0].Message, "personal_email")

	stored, err := f.employees.ListByOwner(context.Background(), f.owner.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Nil(t, stored[0].PersonalEmail)
	require.NotNil(t, stored[0].EmergencyContactEmail)
	assert.Equal(t, "kin@example.com", *stored[0].EmergencyContactEmail)
}

func TestImportService_Confirm_LookupFailureKeepsSessionPending(t *testing.T) {
	f := newImportFixture(t, "dup@example.com")

	result, err := f.svc.Import(context.Background(), f.owner, "staff.csv", csvFile(
		"Email,Full Name",
		"dup@example.com,Dup",
		"new@example.com,New",
	))
	require.NoError(t, err)
	require.NotNil(t, result.Preview)

	f.svc.employees = &MockEmployeeRepository{
		FindByEmailsFunc: func(ctx context.Context, ownerID string, emails []string) ([]string, error) {
			return nil, assert.AnError
		},
	}

	_, err = f.svc.Confirm(context.Background(), f.owner, result.Preview.SessionID)
	assert.Equal(t, models.ErrInternalServer, err)

	f.svc.employees = f.employees

	summary, err := f.svc.Confirm(context.Background(), f.owner, result.Preview.SessionID)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.SkippedDuplicates)
	assert.Equal(t, []string{"dup@example.com", "new@example.com"}, f.employees.Emails(f.owner.ID))
}
