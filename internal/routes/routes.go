package routes

import (
	"net/http"

	"github.com/BradenHooton/roster/internal/auth"
	"github.com/BradenHooton/roster/internal/handlers"
	"github.com/BradenHooton/roster/internal/middleware"
	pkglogger "github.com/BradenHooton/roster/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// Handlers groups the API handlers mounted under /api/v1
type Handlers struct {
	Employees *handlers.EmployeeHandler
	Imports   *handlers.ImportHandler
	Audit     *handlers.AuditHandler
	Health    http.HandlerFunc
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	tokenManager *auth.TokenManager,
	auditLogger *pkglogger.AuditLogger,
	uploadLimit middleware.RateLimitConfig,
) {
	// Public routes - no authentication required
	if h.Health != nil {
		router.Get("/health", h.Health)
	}

	// Protected routes - authentication required
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokenManager, auditLogger))
		r.Use(middleware.RecordOwner)

		h.Employees.RegisterRoutes(r)
		h.Imports.RegisterRoutes(r, middleware.RateLimitByOwner(uploadLimit, auditLogger))
		h.Audit.RegisterRoutes(r)
	})
}
