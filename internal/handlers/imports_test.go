package handlers_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BradenHooton/roster/internal/catalog"
	"github.com/BradenHooton/roster/internal/handlers"
	"github.com/BradenHooton/roster/internal/models"
	"github.com/BradenHooton/roster/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImportHandler(svc handlers.ImportService, maxUpload int64) *handlers.ImportHandler {
	return handlers.NewImportHandler(svc, catalog.Default(), maxUpload, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestUpload_NoDuplicatesReturnsSummary(t *testing.T) {
	var gotName, gotBody string
	var gotOwner models.Owner
	mockService := &handlers.MockImportService{
		ImportFunc: func(ctx context.Context, owner models.Owner, fileName string, r io.Reader) (*services.ImportResult, error) {
			data, _ := io.ReadAll(r)
			gotOwner, gotName, gotBody = owner, fileName, string(data)
			return &services.ImportResult{Summary: &models.ImportSummary{FileName: fileName, Total: 1, Succeeded: 1}}, nil
		},
	}

	handler := newImportHandler(mockService, 1<<20)
	req := handlers.NewUploadRequest(t, "/imports", "staff.csv", "Email,Full Name\nann@example.com,Ann\n")
	req = handlers.WithAuthContext(req, ownerID, "owner@example.com")

	w := httptest.NewRecorder()
	handler.Upload(w, req)

	var resp models.ImportSummary
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, 1, resp.Succeeded)
	assert.Equal(t, "staff.csv", gotName)
	assert.Contains(t, gotBody, "ann@example.com")
	assert.Equal(t, ownerID, gotOwner.ID)
	assert.Equal(t, "owner@example.com", gotOwner.Email)
}

func TestUpload_DuplicatesReturnPreview(t *testing.T) {
	mockService := &handlers.MockImportService{
		ImportFunc: func(ctx context.Context, owner models.Owner, fileName string, r io.Reader) (*services.ImportResult, error) {
			return &services.ImportResult{Preview: &models.ImportPreview{
				SessionID:       "sess-1",
				Total:           2,
				NewCount:        1,
				DuplicateCount:  1,
				DuplicateEmails: []string{"ann@example.com"},
				ExpiresAt:       time.Now().Add(30 * time.Minute),
			}}, nil
		},
	}

	handler := newImportHandler(mockService, 1<<20)
	req := handlers.NewUploadRequest(t, "/imports", "staff.xlsx", "irrelevant")
	req = handlers.WithAuthContext(req, ownerID, "")

	w := httptest.NewRecorder()
	handler.Upload(w, req)

	var resp models.ImportPreview
	handlers.AssertJSONResponse(t, w, 202, &resp)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, []string{"ann@example.com"}, resp.DuplicateEmails)
}

func TestUpload_FileNameIsStrippedOfPath(t *testing.T) {
	var gotName string
	mockService := &handlers.MockImportService{
		ImportFunc: func(ctx context.Context, owner models.Owner, fileName string, r io.Reader) (*services.ImportResult, error) {
			gotName = fileName
			return &services.ImportResult{Summary: &models.ImportSummary{}}, nil
		},
	}

	handler := newImportHandler(mockService, 1<<20)
	req := handlers.NewUploadRequest(t, "/imports", "../../etc/staff.csv", "Email\n")
	req = handlers.WithAuthContext(req, ownerID, "")

	w := httptest.NewRecorder()
	handler.Upload(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "staff.csv", gotName)
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"unsupported format", models.ErrUnsupportedFormat, 415, "unsupported_media_type"},
		{"empty file", models.ErrEmptyImport, 400, "bad_request"},
		{"unreadable file", models.ErrBadRequest, 400, "bad_request"},
		{"internal", models.ErrInternalServer, 500, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &handlers.MockImportService{
				ImportFunc: func(ctx context.Context, owner models.Owner, fileName string, r io.Reader) (*services.ImportResult, error) {
					return nil, tt.err
				},
			}
			handler := newImportHandler(mockService, 1<<20)
			req := handlers.NewUploadRequest(t, "/imports", "staff.txt", "hello")
			req = handlers.WithAuthContext(req, ownerID, "")

			w := httptest.NewRecorder()
			handler.Upload(w, req)

			handlers.AssertErrorResponse(t, w, tt.status, tt.code)
		})
	}
}

func TestUpload_TooLarge(t *testing.T) {
	called := false
	mockService := &handlers.MockImportService{
		ImportFunc: func(ctx context.Context, owner models.Owner, fileName string, r io.Reader) (*services.ImportResult, error) {
			called = true
			return nil, nil
		},
	}

	handler := newImportHandler(mockService, 256)
	req := handlers.NewUploadRequest(t, "/imports", "staff.csv", strings.Repeat("a", 10_000))
	req = handlers.WithAuthContext(req, ownerID, "")

	w := httptest.NewRecorder()
	handler.Upload(w, req)

	handlers.AssertErrorResponse(t, w, 413, "payload_too_large")
	assert.False(t, called)
}

func TestUpload_MissingFile(t *testing.T) {
	handler := newImportHandler(&handlers.MockImportService{}, 1<<20)
	req := handlers.NewTestRequest(t, "POST", "/imports", map[string]string{"file": "staff.csv"})
	req = handlers.WithAuthContext(req, ownerID, "")

	w := httptest.NewRecorder()
	handler.Upload(w, req)

	handlers.AssertErrorResponse(t, w, 400, "bad_request")
}

func TestUpload_Unauthenticated(t *testing.T) {
	handler := newImportHandler(&handlers.MockImportService{}, 1<<20)
	req := handlers.NewUploadRequest(t, "/imports", "staff.csv", "Email\n")

	w := httptest.NewRecorder()
	handler.Upload(w, req)

	handlers.AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestConfirm(t *testing.T) {
	var gotSession string
	mockService := &handlers.MockImportService{
		ConfirmFunc: func(ctx context.Context, owner models.Owner, sessionID string) (*models.ImportSummary, error) {
			gotSession = sessionID
			return &models.ImportSummary{Total: 2, Succeeded: 1, SkippedDuplicates: 1}, nil
		},
	}

	handler := newImportHandler(mockService, 1<<20)
	req := handlers.NewTestRequest(t, "POST", "/imports/sess-1/confirm", nil)
	req = handlers.WithAuthContext(req, ownerID, "")
	req = handlers.WithChiRouteContext(req, map[string]string{"id": "sess-1"})

	w := httptest.NewRecorder()
	handler.Confirm(w, req)

	var resp models.ImportSummary
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, 1, resp.SkippedDuplicates)
	assert.Equal(t, "sess-1", gotSession)
}

func TestConfirm_SessionErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"expired", models.ErrImportSessionExpired, 410, "gone"},
		{"already closed", models.ErrImportSessionClosed, 409, "conflict"},
		{"unknown", models.ErrNotFound, 404, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &handlers.MockImportService{
				ConfirmFunc: func(ctx context.Context, owner models.Owner, sessionID string) (*models.ImportSummary, error) {
					return nil, tt.err
				},
			}
			handler := newImportHandler(mockService, 1<<20)
			req := handlers.NewTestRequest(t, "POST", "/imports/sess-1/confirm", nil)
			req = handlers.WithAuthContext(req, ownerID, "")
			req = handlers.WithChiRouteContext(req, map[string]string{"id": "sess-1"})

			w := httptest.NewRecorder()
			handler.Confirm(w, req)

			handlers.AssertErrorResponse(t, w, tt.status, tt.code)
		})
	}
}

func TestCancel(t *testing.T) {
	handler := newImportHandler(&handlers.MockImportService{}, 1<<20)
	req := handlers.NewTestRequest(t, "POST", "/imports/sess-1/cancel", nil)
	req = handlers.WithAuthContext(req, ownerID, "")
	req = handlers.WithChiRouteContext(req, map[string]string{"id": "sess-1"})

	w := httptest.NewRecorder()
	handler.Cancel(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestDownloadTemplate(t *testing.T) {
	handler := newImportHandler(&handlers.MockImportService{}, 1<<20)
	req := httptest.NewRequest("GET", "/imports/template", nil)

	w := httptest.NewRecorder()
	handler.DownloadTemplate(w, req)

	require.Equal(t, 200, w.Code)
	assert.Equal(t, services.ExportContentType(services.ExportXLSX), w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "employee-import-template.xlsx")
	// xlsx is a zip archive
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"))
}
