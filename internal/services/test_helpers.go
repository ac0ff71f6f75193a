package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/roster/internal/models"
	"github.com/google/uuid"
)

// MockEmployeeRepository implements EmployeeRepository for testing
type MockEmployeeRepository struct {
	FindByEmailsFunc func(ctx context.Context, ownerID string, emails []string) ([]string, error)
	CreateFunc       func(ctx context.Context, e *models.Employee) (*models.Employee, error)
	UpdateFunc       func(ctx context.Context, e *models.Employee) (*models.Employee, error)
	DeleteFunc       func(ctx context.Context, ownerID, id string) error
	GetByIDFunc      func(ctx context.Context, ownerID, id string) (*models.Employee, error)
	ListByOwnerFunc  func(ctx context.Context, ownerID string) ([]*models.Employee, error)
}

func (m *MockEmployeeRepository) FindByEmails(ctx context.Context, ownerID string, emails []string) ([]string, error) {
	if m.FindByEmailsFunc != nil {
		return m.FindByEmailsFunc(ctx, ownerID, emails)
	}
	return nil, nil
}

func (m *MockEmployeeRepository) Create(ctx context.Context, e *models.Employee) (*models.Employee, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, e)
	}
	return nil, models.ErrInternalServer
}

func (m *MockEmployeeRepository) Update(ctx context.Context, e *models.Employee) (*models.Employee, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, e)
	}
	return nil, models.ErrInternalServer
}

func (m *MockEmployeeRepository) Delete(ctx context.Context, ownerID, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, ownerID, id)
	}
	return nil
}

func (m *MockEmployeeRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Employee, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, ownerID, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockEmployeeRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Employee, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID)
	}
	return []*models.Employee{}, nil
}

// MemoryEmployeeRepository is an in-memory EmployeeRepository that enforces
// one employee per owner and email. FailOnEmail makes Create fail for that address.
type MemoryEmployeeRepository struct {
	mu          sync.Mutex
	records     []*models.Employee
	FailOnEmail string
	Creates     int
}

// NewMemoryEmployeeRepository seeds a repository with records
func NewMemoryEmployeeRepository(seed ...*models.Employee) *MemoryEmployeeRepository {
	r := &MemoryEmployeeRepository{}
	for _, e := range seed {
		cp := *e
		if cp.ID == "" {
			cp.ID = uuid.NewString()
		}
		r.records = append(r.records, &cp)
	}
	return r
}

func (r *MemoryEmployeeRepository) FindByEmails(ctx context.Context, ownerID string, emails []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[string]bool, len(emails))
	for _, e := range emails {
		want[strings.ToLower(e)] = true
	}
	var found []string
	for _, e := range r.records {
		if e.OwnerID == ownerID && want[strings.ToLower(e.Email)] {
			found = append(found, e.Email)
		}
	}
	return found, nil
}

func (r *MemoryEmployeeRepository) Create(ctx context.Context, e *models.Employee) (*models.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Creates++
	if r.FailOnEmail != "" && strings.EqualFold(e.Email, r.FailOnEmail) {
		return nil, fmt.Errorf("insert employee: %w", models.ErrInternalServer)
	}
	for _, existing := range r.records {
		if existing.OwnerID == e.OwnerID && strings.EqualFold(existing.Email, e.Email) {
			return nil, models.ErrConflict
		}
	}

	cp := *e
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.records = append(r.records, &cp)
	out := cp
	return &out, nil
}

func (r *MemoryEmployeeRepository) Update(ctx context.Context, e *models.Employee) (*models.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.records {
		if existing.OwnerID == e.OwnerID && existing.ID == e.ID {
			cp := *e
			r.records[i] = &cp
			out := cp
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *MemoryEmployeeRepository) Delete(ctx context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.records {
		if existing.OwnerID == ownerID && existing.ID == id {
			r.records = append(r.records[:i], r.records[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

func (r *MemoryEmployeeRepository) GetByID(ctx context.Context, ownerID, id string) (*models.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.records {
		if existing.OwnerID == ownerID && existing.ID == id {
			out := *existing
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *MemoryEmployeeRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*models.Employee{}
	for _, existing := range r.records {
		if existing.OwnerID == ownerID {
			cp := *existing
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Emails returns the stored emails for ownerID in insertion order
func (r *MemoryEmployeeRepository) Emails(ownerID string) []string {
	records, _ := r.ListByOwner(context.Background(), ownerID)
	out := make([]string, len(records))
	for i, e := range records {
		out[i] = e.Email
	}
	return out
}

// MockImportSessionRepository implements ImportSessionRepository for testing
type MockImportSessionRepository struct {
	CreateFunc        func(ctx context.Context, s *models.ImportSession) (*models.ImportSession, error)
	GetByIDFunc       func(ctx context.Context, ownerID, id string) (*models.ImportSession, error)
	CloseFunc         func(ctx context.Context, ownerID, id, status string) error
	DeleteExpiredFunc func(ctx context.Context, now time.Time) (int64, error)
}

func (m *MockImportSessionRepository) Create(ctx context.Context, s *models.ImportSession) (*models.ImportSession, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, s)
	}
	return nil, models.ErrInternalServer
}

func (m *MockImportSessionRepository) GetByID(ctx context.Context, ownerID, id string) (*models.ImportSession, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, ownerID, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockImportSessionRepository) Close(ctx context.Context, ownerID, id, status string) error {
	if m.CloseFunc != nil {
		return m.CloseFunc(ctx, ownerID, id, status)
	}
	return nil
}

func (m *MockImportSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx, now)
	}
	return 0, nil
}

// MemoryImportSessionRepository is an in-memory ImportSessionRepository
type MemoryImportSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*models.ImportSession
}

// NewMemoryImportSessionRepository creates an empty session store
func NewMemoryImportSessionRepository() *MemoryImportSessionRepository {
	return &MemoryImportSessionRepository{sessions: make(map[string]*models.ImportSession)}
}

func (r *MemoryImportSessionRepository) Create(ctx context.Context, s *models.ImportSession) (*models.ImportSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *s
	cp.ID = uuid.NewString()
	cp.Status = models.ImportStatusPending
	r.sessions[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *MemoryImportSessionRepository) GetByID(ctx context.Context, ownerID, id string) (*models.ImportSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.OwnerID != ownerID {
		return nil, models.ErrNotFound
	}
	out := *s
	return &out, nil
}

func (r *MemoryImportSessionRepository) Close(ctx context.Context, ownerID, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || s.OwnerID != ownerID || s.Status != models.ImportStatusPending {
		return models.ErrImportSessionClosed
	}
	s.Status = status
	return nil
}

func (r *MemoryImportSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, s := range r.sessions {
		if s.Status == models.ImportStatusPending && now.After(s.ExpiresAt) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}

// MockAuditLogRepository implements AuditLogRepository for testing
type MockAuditLogRepository struct {
	CreateFunc       func(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error)
	ListByOwnerFunc  func(ctx context.Context, ownerID uuid.UUID, limit int, offset int) ([]*models.AuditLog, error)
	CountByOwnerFunc func(ctx context.Context, ownerID uuid.UUID) (int64, error)

	mu      sync.Mutex
	Entries []*models.AuditLog
}

func (m *MockAuditLogRepository) Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, log)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, log)
	return log, nil
}

func (m *MockAuditLogRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit int, offset int) ([]*models.AuditLog, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID, limit, offset)
	}
	return []*models.AuditLog{}, nil
}

func (m *MockAuditLogRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	if m.CountByOwnerFunc != nil {
		return m.CountByOwnerFunc(ctx, ownerID)
	}
	return 0, nil
}

// Actions returns the recorded audit actions in order
func (m *MockAuditLogRepository) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		out[i] = e.Action
	}
	return out
}

// MockNotifier records import summaries instead of sending them
type MockNotifier struct {
	Err  error
	Sent []*models.ImportSummary
	To   []string
}

func (m *MockNotifier) SendImportSummary(ctx context.Context, to string, summary *models.ImportSummary) error {
	m.To = append(m.To, to)
	m.Sent = append(m.Sent, summary)
	return m.Err
}

// MockReporter records captured errors
type MockReporter struct {
	mu       sync.Mutex
	Captured []error
}

func (m *MockReporter) Capture(ctx context.Context, err error, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Captured = append(m.Captured, err)
}

// NewTestEmployee creates an employee owned by ownerID
func NewTestEmployee(ownerID, email, fullName string) *models.Employee {
	return &models.Employee{
		ID:       uuid.NewString(),
		OwnerID:  ownerID,
		Email:    email,
		FullName: fullName,
	}
}

// NewTestOwner creates an account owner with a random id
func NewTestOwner(email string) models.Owner {
	return models.Owner{ID: uuid.NewString(), Email: email}
}
