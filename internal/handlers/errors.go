package handlers

import (
	"errors"
	"net/http"

	"github.com/BradenHooton/roster/internal/auth"
	"github.com/BradenHooton/roster/internal/models"
	pkghttp "github.com/BradenHooton/roster/pkg/http"
)

// requireOwner returns the authenticated account, writing 401 when there is none
func requireOwner(w http.ResponseWriter, r *http.Request) (models.Owner, bool) {
	owner, ok := auth.OwnerFromContext(r.Context())
	if !ok || owner.ID == "" {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return models.Owner{}, false
	}
	return owner, true
}

// writeServiceError maps a service error onto the API error envelope
func writeServiceError(w http.ResponseWriter, err error) {
	var recErr *models.RecordError
	switch {
	case errors.As(err, &recErr):
		pkghttp.WriteValidationError(w, "Employee record is invalid", recErr.Error())
	case errors.Is(err, models.ErrUnsupportedFormat):
		pkghttp.WriteUnsupportedMediaType(w, "Upload an .xlsx or .csv file")
	case errors.Is(err, models.ErrEmptyImport):
		pkghttp.WriteBadRequest(w, "The file contains no employee records")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteErrorWithDetails(w, http.StatusBadRequest, "bad_request", "Invalid request", err.Error())
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Resource not found")
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "An employee with this email already exists")
	case errors.Is(err, models.ErrImportSessionExpired):
		pkghttp.WriteGone(w, "The import session has expired, please upload the file again")
	case errors.Is(err, models.ErrImportSessionClosed):
		pkghttp.WriteConflict(w, "The import session has already been confirmed or cancelled")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "authentication required")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
