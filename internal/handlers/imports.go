package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/BradenHooton/roster/internal/catalog"
	"github.com/BradenHooton/roster/internal/models"
	"github.com/BradenHooton/roster/internal/services"
	"github.com/BradenHooton/roster/internal/spreadsheet"
	pkghttp "github.com/BradenHooton/roster/pkg/http"
	"github.com/go-chi/chi/v5"
)

// ImportService defines the interface for spreadsheet imports
type ImportService interface {
	Import(ctx context.Context, owner models.Owner, fileName string, r io.Reader) (*services.ImportResult, error)
	Confirm(ctx context.Context, owner models.Owner, sessionID string) (*models.ImportSummary, error)
	Cancel(ctx context.Context, owner models.Owner, sessionID string) error
}

// uploadField is the multipart form field carrying the spreadsheet
const uploadField = "file"

// ImportHandler handles spreadsheet import HTTP requests
type ImportHandler struct {
	service        ImportService
	catalog        *catalog.Catalog
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(service ImportService, cat *catalog.Catalog, maxUploadBytes int64, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		service:        service,
		catalog:        cat,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// RegisterRoutes registers the import routes. upload wraps the upload endpoint,
// typically with a rate limiter.
func (h *ImportHandler) RegisterRoutes(router chi.Router, upload func(http.Handler) http.Handler) {
	router.Route("/imports", func(r chi.Router) {
		r.Get("/template", h.DownloadTemplate)   // GET /imports/template
		r.With(upload).Post("/", h.Upload)       // POST /imports
		r.Post("/{id}/confirm", h.Confirm)       // POST /imports/{id}/confirm
		r.Post("/{id}/cancel", h.Cancel)         // POST /imports/{id}/cancel
	})
}

// Upload imports a spreadsheet. A batch without duplicates is written at once
// and answered with 200 and a summary. A batch with duplicates is held and
// answered with 202 and a preview to confirm or cancel.
//
// @Summary Upload employee spreadsheet
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} models.ImportSummary
// @Success 202 {object} models.ImportPreview
// @Failure 413 {object} ErrorResponse
// @Failure 415 {object} ErrorResponse
// @Router /imports [post]
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			pkghttp.WritePayloadTooLarge(w, "The uploaded file is too large")
			return
		}
		pkghttp.WriteBadRequest(w, "Attach the spreadsheet in the \"file\" form field")
		return
	}
	defer file.Close()

	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	name := filepath.Base(header.Filename)
	result, err := h.service.Import(r.Context(), owner, name, file)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if result.Preview != nil {
		pkghttp.WriteJSON(w, http.StatusAccepted, result.Preview)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, result.Summary)
}

// Confirm writes the new records of a pending import and skips its duplicates
func (h *ImportHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	summary, err := h.service.Confirm(r.Context(), owner, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, summary)
}

// Cancel abandons a pending import
func (h *ImportHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if err := h.service.Cancel(r.Context(), owner, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DownloadTemplate serves a blank import workbook with one column per field
func (h *ImportHandler) DownloadTemplate(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := spreadsheet.WriteTemplate(&buf, h.catalog); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to build import template", slog.Any("error", err))
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.Header().Set("Content-Type", services.ExportContentType(services.ExportXLSX))
	w.Header().Set("Content-Disposition", `attachment; filename="employee-import-template.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
