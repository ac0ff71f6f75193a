package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Employee and import errors
	ErrValidation           = errors.New("validation failed")
	ErrUnsupportedFormat    = errors.New("unsupported file format")
	ErrEmptyImport          = errors.New("import file contains no records")
	ErrImportSessionExpired = errors.New("import session has expired")
	ErrImportSessionClosed  = errors.New("import session is no longer pending")
)

// RecordError describes why a single record was rejected.
// Row is the 1-based spreadsheet row, or 0 for form submissions.
type RecordError struct {
	Row    int    `json:"row,omitempty"`
	Email  string `json:"email,omitempty"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (e *RecordError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: %s", e.Row, e.Reason)
	}
	return e.Reason
}

// Unwrap lets callers match record errors with errors.Is(err, ErrValidation).
func (e *RecordError) Unwrap() error {
	return ErrValidation
}
