package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/BradenHooton/roster/internal/models"
	"github.com/BradenHooton/roster/internal/services"
	pkghttp "github.com/BradenHooton/roster/pkg/http"
	"github.com/go-chi/chi/v5"
)

// EmployeeService defines the interface for employee business logic
type EmployeeService interface {
	Create(ctx context.Context, ownerID string, values map[string]any) (*models.Employee, error)
	Update(ctx context.Context, ownerID, id string, values map[string]any) (*models.Employee, error)
	Delete(ctx context.Context, ownerID, id string) error
	Get(ctx context.Context, ownerID, id string) (*models.Employee, error)
	List(ctx context.Context, ownerID string) ([]*models.Employee, error)
	Fields(ctx context.Context, ownerID string) ([]models.FieldDefinition, error)
	Filter(ctx context.Context, ownerID string, rules []models.FilterRule) (*services.FilterResult, error)
	Export(ctx context.Context, ownerID, format string, rules []models.FilterRule, w io.Writer) error
}

// EmployeeHandler handles employee record HTTP requests
type EmployeeHandler struct {
	service EmployeeService
	logger  *slog.Logger
	now     func() time.Time
}

// NewEmployeeHandler creates a new EmployeeHandler
func NewEmployeeHandler(service EmployeeService, logger *slog.Logger) *EmployeeHandler {
	return &EmployeeHandler{
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// Request/Response DTOs

// FilterRequest is the body of a filter query
type FilterRequest struct {
	Rules []models.FilterRule `json:"rules" validate:"max=50,dive"`
}

// ExportRequest is the body of an export; rules narrow the exported records
type ExportRequest struct {
	Format string              `json:"format" validate:"required,oneof=xlsx csv pdf"`
	Rules  []models.FilterRule `json:"rules" validate:"max=50,dive"`
}

// ListEmployeesResponse represents a list of employees
type ListEmployeesResponse struct {
	Employees []*models.Employee `json:"employees"`
	Total     int                `json:"total"`
}

// RegisterRoutes registers all employee routes with the chi router
func (h *EmployeeHandler) RegisterRoutes(router chi.Router) {
	router.Route("/employees", func(r chi.Router) {
		r.Get("/", h.ListEmployees)          // GET /employees
		r.Post("/", h.CreateEmployee)        // POST /employees
		r.Get("/fields", h.ListFields)       // GET /employees/fields
		r.Post("/filter", h.FilterEmployees) // POST /employees/filter
		r.Post("/export", h.ExportEmployees) // POST /employees/export
		r.Get("/{id}", h.GetEmployee)        // GET /employees/{id}
		r.Put("/{id}", h.UpdateEmployee)     // PUT /employees/{id}
		r.Delete("/{id}", h.DeleteEmployee)  // DELETE /employees/{id}
	})
}

// ListEmployees returns all of the caller's employees
//
// @Summary List employees
// @Produce json
// @Success 200 {object} ListEmployeesResponse
// @Router /employees [get]
func (h *EmployeeHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	records, err := h.service.List(r.Context(), owner.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ListEmployeesResponse{Employees: records, Total: len(records)})
}

// CreateEmployee stores an employee submitted through the form. The body is a
// JSON object keyed by field name or label.
//
// @Summary Create employee
// @Accept json
// @Produce json
// @Success 201 {object} models.Employee
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /employees [post]
func (h *EmployeeHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var values map[string]any
	if !decodeJSON(w, r, &values) {
		return
	}

	emp, err := h.service.Create(r.Context(), owner.ID, values)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, emp)
}

// GetEmployee retrieves one employee
func (h *EmployeeHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	emp, err := h.service.Get(r.Context(), owner.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, emp)
}

// UpdateEmployee applies the submitted fields to an employee. Fields left out
// of the body keep their stored values.
func (h *EmployeeHandler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var values map[string]any
	if !decodeJSON(w, r, &values) {
		return
	}

	emp, err := h.service.Update(r.Context(), owner.ID, chi.URLParam(r, "id"), values)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, emp)
}

// DeleteEmployee hard-deletes an employee
func (h *EmployeeHandler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), owner.ID, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListFields returns the filterable fields with options from the caller's records
func (h *EmployeeHandler) ListFields(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	defs, err := h.service.Fields(r.Context(), owner.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]any{"fields": defs})
}

// FilterEmployees applies filter rules to the caller's employees
func (h *EmployeeHandler) FilterEmployees(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req FilterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Filter(r.Context(), owner.ID, req.Rules)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// ExportEmployees downloads the caller's filtered employees as xlsx, csv or pdf
func (h *EmployeeHandler) ExportEmployees(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	var req ExportRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	// Buffered so a failure can still be reported as a JSON error
	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), owner.ID, req.Format, req.Rules, &buf); err != nil {
		writeServiceError(w, err)
		return
	}

	name := fmt.Sprintf("employees-%s.%s", h.now().Format("20060102"), req.Format)
	w.Header().Set("Content-Type", services.ExportContentType(req.Format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write export response", slog.Any("error", err))
	}
}
