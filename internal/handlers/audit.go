package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/BradenHooton/roster/internal/models"
	pkghttp "github.com/BradenHooton/roster/pkg/http"
	"github.com/go-chi/chi/v5"
)

// AuditTrail defines the audit log queries the handler needs
type AuditTrail interface {
	List(ctx context.Context, ownerID string, limit, offset int) ([]*models.AuditLog, int64, error)
}

// AuditHandler handles audit log HTTP requests
type AuditHandler struct {
	audit AuditTrail
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(audit AuditTrail) *AuditHandler {
	return &AuditHandler{
		audit: audit,
	}
}

// AuditLogResponse represents an audit log entry in HTTP response
type AuditLogResponse struct {
	ID            string                 `json:"id"`
	EventType     string                 `json:"event_type"`
	ResourceType  *string                `json:"resource_type,omitempty"`
	ResourceID    *string                `json:"resource_id,omitempty"`
	Action        string                 `json:"action"`
	Success       bool                   `json:"success"`
	FailureReason *string                `json:"failure_reason,omitempty"`
	IPAddress     *string                `json:"ip_address,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     string                 `json:"created_at"`
}

// RegisterRoutes registers the audit routes with the chi router
func (h *AuditHandler) RegisterRoutes(router chi.Router) {
	router.Get("/audit-logs", h.GetAuditTrail) // GET /audit-logs
}

// GetAuditTrail returns a page of the caller's own audit trail
func (h *AuditHandler) GetAuditTrail(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	// Get pagination parameters
	limit := 50
	offset := 0

	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o >= 0 {
		offset = o
	}

	logs, count, err := h.audit.List(r.Context(), owner.ID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]*AuditLogResponse, len(logs))
	for i, log := range logs {
		response[i] = auditLogToResponse(log)
	}

	w.Header().Set("X-Total-Count", strconv.FormatInt(count, 10))
	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"logs":   response,
		"total":  count,
		"limit":  limit,
		"offset": offset,
	})
}

// auditLogToResponse converts an audit log model to a response DTO
func auditLogToResponse(log *models.AuditLog) *AuditLogResponse {
	return &AuditLogResponse{
		ID:            log.ID.String(),
		EventType:     log.EventType,
		ResourceType:  log.ResourceType,
		ResourceID:    log.ResourceID,
		Action:        log.Action,
		Success:       log.Success,
		FailureReason: log.FailureReason,
		IPAddress:     log.IPAddress,
		Metadata:      log.Metadata,
		CreatedAt:     log.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
