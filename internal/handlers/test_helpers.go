package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BradenHooton/roster/internal/auth"
	"github.com/BradenHooton/roster/internal/models"
	"github.com/BradenHooton/roster/internal/services"
	pkghttp "github.com/BradenHooton/roster/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewUploadRequest creates a multipart upload with content in the "file" field
func NewUploadRequest(t *testing.T, url, fileName, content string) *http.Request {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(uploadField, fileName)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := io.Copy(part, strings.NewReader(content)); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// WithAuthContext adds token claims for ownerID to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, ownerID, email string) *http.Request {
	claims := &models.TokenClaims{
		Email:            email,
		RegisteredClaims: jwt.RegisteredClaims{Subject: ownerID},
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// WithChiRouteContext adds chi URL parameters to request context for testing
//
// Example usage:
//
//	req := httptest.NewRequest("PUT", "/employees/abc", body)
//	req = WithChiRouteContext(req, map[string]string{
//	    "id": "abc",
//	})
func WithChiRouteContext(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// MockEmployeeService implements EmployeeService for testing
type MockEmployeeService struct {
	CreateFunc func(ctx context.Context, ownerID string, values map[string]any) (*models.Employee, error)
	UpdateFunc func(ctx context.Context, ownerID, id string, values map[string]any) (*models.Employee, error)
	DeleteFunc func(ctx context.Context, ownerID, id string) error
	GetFunc    func(ctx context.Context, ownerID, id string) (*models.Employee, error)
	ListFunc   func(ctx context.Context, ownerID string) ([]*models.Employee, error)
	FieldsFunc func(ctx context.Context, ownerID string) ([]models.FieldDefinition, error)
	FilterFunc func(ctx context.Context, ownerID string, rules []models.FilterRule) (*services.FilterResult, error)
	ExportFunc func(ctx context.Context, ownerID, format string, rules []models.FilterRule, w io.Writer) error
}

func (m *MockEmployeeService) Create(ctx context.Context, ownerID string, values map[string]any) (*models.Employee, error) {
	if m.CreateFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateFunc(ctx, ownerID, values)
}

func (m *MockEmployeeService) Update(ctx context.Context, ownerID, id string, values map[string]any) (*models.Employee, error) {
	if m.UpdateFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.UpdateFunc(ctx, ownerID, id, values)
}

func (m *MockEmployeeService) Delete(ctx context.Context, ownerID, id string) error {
	if m.DeleteFunc == nil {
		return nil
	}
	return m.DeleteFunc(ctx, ownerID, id)
}

func (m *MockEmployeeService) Get(ctx context.Context, ownerID, id string) (*models.Employee, error) {
	if m.GetFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetFunc(ctx, ownerID, id)
}

func (m *MockEmployeeService) List(ctx context.Context, ownerID string) ([]*models.Employee, error) {
	if m.ListFunc == nil {
		return []*models.Employee{}, nil
	}
	return m.ListFunc(ctx, ownerID)
}

func (m *MockEmployeeService) Fields(ctx context.Context, ownerID string) ([]models.FieldDefinition, error) {
	if m.FieldsFunc == nil {
		return []models.FieldDefinition{}, nil
	}
	return m.FieldsFunc(ctx, ownerID)
}

func (m *MockEmployeeService) Filter(ctx context.Context, ownerID string, rules []models.FilterRule) (*services.FilterResult, error) {
	if m.FilterFunc == nil {
		return &services.FilterResult{Records: []*models.Employee{}}, nil
	}
	return m.FilterFunc(ctx, ownerID, rules)
}

func (m *MockEmployeeService) Export(ctx context.Context, ownerID, format string, rules []models.FilterRule, w io.Writer) error {
	if m.ExportFunc == nil {
		return nil
	}
	return m.ExportFunc(ctx, ownerID, format, rules, w)
}

// MockImportService implements ImportService for testing
type MockImportService struct {
	ImportFunc  func(ctx context.Context, owner models.Owner, fileName string, r io.Reader) (*services.ImportResult, error)
	ConfirmFunc func(ctx context.Context, owner models.Owner, sessionID string) (*models.ImportSummary, error)
	CancelFunc  func(ctx context.Context, owner models.Owner, sessionID string) error
}

func (m *MockImportService) Import(ctx context.Context, owner models.Owner, fileName string, r io.Reader) (*services.ImportResult, error) {
	if m.ImportFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.ImportFunc(ctx, owner, fileName, r)
}

func (m *MockImportService) Confirm(ctx context.Context, owner models.Owner, sessionID string) (*models.ImportSummary, error) {
	if m.ConfirmFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.ConfirmFunc(ctx, owner, sessionID)
}

func (m *MockImportService) Cancel(ctx context.Context, owner models.Owner, sessionID string) error {
	if m.CancelFunc == nil {
		return nil
	}
	return m.CancelFunc(ctx, owner, sessionID)
}

// MockAuditTrail implements AuditTrail for testing
type MockAuditTrail struct {
	ListFunc func(ctx context.Context, ownerID string, limit, offset int) ([]*models.AuditLog, int64, error)
}

func (m *MockAuditTrail) List(ctx context.Context, ownerID string, limit, offset int) ([]*models.AuditLog, int64, error) {
	if m.ListFunc == nil {
		return []*models.AuditLog{}, 0, nil
	}
	return m.ListFunc(ctx, ownerID, limit, offset)
}
