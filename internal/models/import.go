package models

import "time"

// RawRecord is one spreadsheet row or form submission keyed by header or field name.
type RawRecord struct {
	Row    int
	Values map[string]any
}

// ParseWarning is a non-fatal issue found while reading a spreadsheet.
type ParseWarning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportPreview is returned when an import batch contains duplicates and
// needs the user to decide whether to continue with the new records only.
type ImportPreview struct {
	SessionID       string         `json:"session_id"`
	FileName        string         `json:"file_name"`
	Total           int            `json:"total"`
	NewCount        int            `json:"new_count"`
	DuplicateCount  int            `json:"duplicate_count"`
	DuplicateEmails []string       `json:"duplicate_emails"`
	RepeatedInBatch []string       `json:"repeated_in_batch,omitempty"`
	Rejected        []RecordError  `json:"rejected,omitempty"`
	Warnings        []ParseWarning `json:"warnings,omitempty"`
	ExpiresAt       time.Time      `json:"expires_at"`
}

// ImportSummary is the final outcome of an import. Partial success is normal.
// Failed counts records rejected by validation plus a write that failed;
// NotAttempted counts the records after a failed write.
type ImportSummary struct {
	FileName          string         `json:"file_name"`
	Total             int            `json:"total"`
	Succeeded         int            `json:"succeeded"`
	SkippedDuplicates int            `json:"skipped_duplicates"`
	Failed            int            `json:"failed"`
	NotAttempted      int            `json:"not_attempted"`
	Rejected          []RecordError  `json:"rejected,omitempty"`
	Warnings          []ParseWarning `json:"warnings,omitempty"`
	FailureReason     string         `json:"failure_reason,omitempty"`
	CreatedIDs        []string       `json:"created_ids,omitempty"`
}

// Import session statuses
const (
	ImportStatusPending   = "pending"
	ImportStatusCommitted = "committed"
	ImportStatusCancelled = "cancelled"
)

// ImportSession holds a normalized batch awaiting the user's duplicate decision.
type ImportSession struct {
	ID        string
	OwnerID   string
	FileName  string
	Status    string
	Payload   ImportPayload
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ImportRecord is a normalized record together with its source row.
type ImportRecord struct {
	Row      int       `json:"row"`
	Employee *Employee `json:"employee"`
}

// ImportPayload is the persisted part of a pending import.
type ImportPayload struct {
	NewRecords []ImportRecord `json:"new_records"`
	Duplicates int            `json:"duplicates"`
	Total      int            `json:"total"`
	Rejected   []RecordError  `json:"rejected,omitempty"`
	Warnings   []ParseWarning `json:"warnings,omitempty"`
}
