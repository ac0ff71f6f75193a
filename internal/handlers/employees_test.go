package handlers_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/roster/internal/handlers"
	"github.com/BradenHooton/roster/internal/models"
	"github.com/BradenHooton/roster/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ownerID = "6f1c2a8e-3b7d-4e52-9a61-0c8d5e4f7b21"

func newEmployeeHandler(svc handlers.EmployeeService) *handlers.EmployeeHandler {
	return handlers.NewEmployeeHandler(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCreateEmployee_Success(t *testing.T) {
	var gotOwner string
	var gotValues map[string]any
	mockService := &handlers.MockEmployeeService{
		CreateFunc: func(ctx context.Context, owner string, values map[string]any) (*models.Employee, error) {
			gotOwner, gotValues = owner, values
			return &models.Employee{ID: "emp-1", OwnerID: owner, Email: "ann@example.com", FullName: "Ann Lee"}, nil
		},
	}

	handler := newEmployeeHandler(mockService)
	req := handlers.NewTestRequest(t, "POST", "/employees", map[string]any{
		"Email":     "ann@example.com",
		"Full Name": "Ann Lee",
	})
	req = handlers.WithAuthContext(req, ownerID, "owner@example.com")

	w := httptest.NewRecorder()
	handler.CreateEmployee(w, req)

	var resp models.Employee
	handlers.AssertJSONResponse(t, w, 201, &resp)
	assert.Equal(t, "emp-1", resp.ID)
	assert.Equal(t, ownerID, gotOwner)
	assert.Equal(t, "Ann Lee", gotValues["Full Name"])
}

func TestCreateEmployee_Unauthenticated(t *testing.T) {
	handler := newEmployeeHandler(&handlers.MockEmployeeService{})
	req := handlers.NewTestRequest(t, "POST", "/employees", map[string]any{"email": "ann@example.com"})

	w := httptest.NewRecorder()
	handler.CreateEmployee(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestCreateEmployee_InvalidJSON(t *testing.T) {
	handler := newEmployeeHandler(&handlers.MockEmployeeService{})
	req := httptest.NewRequest("POST", "/employees", nil)
	req = handlers.WithAuthContext(req, ownerID, "")

	w := httptest.NewRecorder()
	handler.CreateEmployee(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestCreateEmployee_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &models.RecordError{Field: "email", Reason: "email is required"}, 422, "validation_failed"},
		{"conflict", fmt.Errorf("%w: duplicate", models.ErrConflict), 409, "conflict"},
		{"unknown field", fmt.Errorf("%w: unknown field \"shoe_size\"", models.ErrBadRequest), 400, "bad_request"},
		{"internal", models.ErrInternalServer, 500, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &handlers.MockEmployeeService{
				CreateFunc: func(ctx context.Context, owner string, values map[string]any) (*models.Employee, error) {
					return nil, tt.err
				},
			}
			handler := newEmployeeHandler(mockService)
			req := handlers.NewTestRequest(t, "POST", "/employees", map[string]any{"full_name": "Ann"})
			req = handlers.WithAuthContext(req, ownerID, "")

			w := httptest.NewRecorder()
			handler.CreateEmployee(w, req)

			handlers.AssertErrorResponse(t, w, tt.status, tt.code)
		})
	}
}

func TestGetEmployee_NotFound(t *testing.T) {
	var gotID string
	mockService := &handlers.MockEmployeeService{
		GetFunc: func(ctx context.Context, owner, id string) (*models.Employee, error) {
			gotID = id
			return nil, models.ErrNotFound
		},
	}

	handler := newEmployeeHandler(mockService)
	req := handlers.NewTestRequest(t, "GET", "/employees/emp-9", nil)
	req = handlers.WithAuthContext(req, ownerID, "")
	req = handlers.WithChiRouteContext(req, map[string]string{"id": "emp-9"})

	w := httptest.NewRecorder()
	handler.GetEmployee(w, req)

	handlers.AssertErrorResponse(t, w, 404, "not_found")
	assert.Equal(t, "emp-9", gotID)
}

func TestUpdateEmployee_Success(t *testing.T) {
	mockService := &handlers.MockEmployeeService{
		UpdateFunc: func(ctx context.Context, owner, id string, values map[string]any) (*models.Employee, error) {
			dept := values["department"].(string)
			return &models.Employee{ID: id, Email: "ann@example.com", FullName: "Ann", Department: &dept}, nil
		},
	}

	handler := newEmployeeHandler(mockService)
	req := handlers.NewTestRequest(t, "PUT", "/employees/emp-1", map[string]any{"department": "Finance"})
	req = handlers.WithAuthContext(req, ownerID, "")
	req = handlers.WithChiRouteContext(req, map[string]string{"id": "emp-1"})

	w := httptest.NewRecorder()
	handler.UpdateEmployee(w, req)

	var resp models.Employee
	handlers.AssertJSONResponse(t, w, 200, &resp)
	require.NotNil(t, resp.Department)
	assert.Equal(t, "Finance", *resp.Department)
}

func TestDeleteEmployee(t *testing.T) {
	handler := newEmployeeHandler(&handlers.MockEmployeeService{})
	req := handlers.NewTestRequest(t, "DELETE", "/employees/emp-1", nil)
	req = handlers.WithAuthContext(req, ownerID, "")
	req = handlers.WithChiRouteContext(req, map[string]string{"id": "emp-1"})

	w := httptest.NewRecorder()
	handler.DeleteEmployee(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestFilterEmployees_PassesRules(t *testing.T) {
	var gotRules []models.FilterRule
	mockService := &handlers.MockEmployeeService{
		FilterFunc: func(ctx context.Context, owner string, rules []models.FilterRule) (*services.FilterResult, error) {
			gotRules = rules
			return &services.FilterResult{Records: []*models.Employee{{ID: "emp-1"}}, Total: 3}, nil
		},
	}

	handler := newEmployeeHandler(mockService)
	req := handlers.NewTestRequest(t, "POST", "/employees/filter", handlers.FilterRequest{
		Rules: []models.FilterRule{{ID: "r1", Field: "department", Value: "eng"}},
	})
	req = handlers.WithAuthContext(req, ownerID, "")

	w := httptest.NewRecorder()
	handler.FilterEmployees(w, req)

	var resp services.FilterResult
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, 3, resp.Total)
	assert.Len(t, resp.Records, 1)
	require.Len(t, gotRules, 1)
	assert.Equal(t, "department", gotRules[0].Field)
}

func TestFilterEmployees_RuleWithoutField(t *testing.T) {
	handler := newEmployeeHandler(&handlers.MockEmployeeService{})
	req := handlers.NewTestRequest(t, "POST", "/employees/filter", map[string]any{
		"rules": []map[string]string{{"id": "r1", "value": "eng"}},
	})
	req = handlers.WithAuthContext(req, ownerID, "")

	w := httptest.NewRecorder()
	handler.FilterEmployees(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestExportEmployees_CSV(t *testing.T) {
	mockService := &handlers.MockEmployeeService{
		ExportFunc: func(ctx context.Context, owner, format string, rules []models.FilterRule, w io.Writer) error {
			_, err := io.WriteString(w, "Email,Full Name\nann@example.com,Ann\n")
			return err
		},
	}

	handler := newEmployeeHandler(mockService)
	req := handlers.NewTestRequest(t, "POST", "/employees/export", handlers.ExportRequest{Format: "csv"})
	req = handlers.WithAuthContext(req, ownerID, "")

	w := httptest.NewRecorder()
	handler.ExportEmployees(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, w.Body.String(), "ann@example.com")
}

func TestExportEmployees_UnknownFormat(t *testing.T) {
	handler := newEmployeeHandler(&handlers.MockEmployeeService{})
	req := handlers.NewTestRequest(t, "POST", "/employees/export", map[string]any{"format": "docx"})
	req = handlers.WithAuthContext(req, ownerID, "")

	w := httptest.NewRecorder()
	handler.ExportEmployees(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestExportEmployees_FailureIsJSON(t *testing.T) {
	mockService := &handlers.MockEmployeeService{
		ExportFunc: func(ctx context.Context, owner, format string, rules []models.FilterRule, w io.Writer) error {
			_, _ = io.WriteString(w, "partial")
			return models.ErrInternalServer
		},
	}

	handler := newEmployeeHandler(mockService)
	req := handlers.NewTestRequest(t, "POST", "/employees/export", handlers.ExportRequest{Format: "pdf"})
	req = handlers.WithAuthContext(req, ownerID, "")

	w := httptest.NewRecorder()
	handler.ExportEmployees(w, req)

	handlers.AssertErrorResponse(t, w, 500, "internal_error")
	assert.NotContains(t, w.Body.String(), "partial")
}

func TestListFields(t *testing.T) {
	mockService := &handlers.MockEmployeeService{
		FieldsFunc: func(ctx context.Context, owner string) ([]models.FieldDefinition, error) {
			return []models.FieldDefinition{{Field: "department", Label: "Department", Type: models.FilterSelect, Options: []string{"Finance"}}}, nil
		},
	}

	handler := newEmployeeHandler(mockService)
	req := handlers.NewTestRequest(t, "GET", "/employees/fields", nil)
	req = handlers.WithAuthContext(req, ownerID, "")

	w := httptest.NewRecorder()
	handler.ListFields(w, req)

	var resp struct {
		Fields []models.FieldDefinition `json:"fields"`
	}
	handlers.AssertJSONResponse(t, w, 200, &resp)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, []string{"Finance"}, resp.Fields[0].Options)
}
