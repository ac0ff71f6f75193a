package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/roster/internal/auth"
	"github.com/BradenHooton/roster/internal/background"
	"github.com/BradenHooton/roster/internal/catalog"
	"github.com/BradenHooton/roster/internal/config"
	"github.com/BradenHooton/roster/internal/database"
	"github.com/BradenHooton/roster/internal/handlers"
	middlewareCustom "github.com/BradenHooton/roster/internal/middleware"
	"github.com/BradenHooton/roster/internal/repositories"
	"github.com/BradenHooton/roster/internal/routes"
	"github.com/BradenHooton/roster/internal/services"
	pkghttp "github.com/BradenHooton/roster/pkg/http"
	pkglogger "github.com/BradenHooton/roster/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Error reporting is optional
	var reporter services.ErrorReporter = services.NoopReporter{}
	if cfg.Sentry.DSN != "" {
		sentryReporter, err := services.NewSentryReporter(cfg.Sentry)
		if err != nil {
			logger.Error("failed to initialize error reporting", slog.Any("error", err))
			os.Exit(1)
		}
		defer sentryReporter.Flush(2 * time.Second)
		reporter = sentryReporter
	}

	fields, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Error("failed to load field catalog", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize database
	db, err := database.NewConnection(context.Background(), &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	employeeRepo := repositories.NewEmployeeRepository(db)
	sessionRepo := repositories.NewImportSessionRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)

	// Import summary emails are sent only when a sender address is configured
	var notifier services.ImportNotifier = services.NoopNotifier{}
	if cfg.Email.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		sesNotifier, err := services.NewAWSSESNotifier(ctx, cfg.Email.Region, cfg.Email.FromAddress, logger)
		cancel()
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
		notifier = sesNotifier
	}

	// Initialize services
	auditService := services.NewAuditService(auditRepo, logger)
	employeeService := services.NewEmployeeService(employeeRepo, fields, auditService, reporter, logger)
	importService := services.NewImportService(
		employeeRepo,
		sessionRepo,
		fields,
		auditService,
		notifier,
		reporter,
		logger,
		services.ImportOptions{
			MaxRows:    cfg.Import.MaxRows,
			SessionTTL: cfg.Import.SessionTTL,
		},
	)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	auditLogger := pkglogger.NewAuditLogger(logger)

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager(importService, auditRepo, cfg.Import.AuditRetentionDays, logger, cfg.Import.CleanupInterval)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.ClientIP(&pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}))
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	uploadLimit := middlewareCustom.DefaultImportRateLimit()
	if cfg.Import.RateLimitPerMinute > 0 {
		uploadLimit.RequestsPerMinute = cfg.Import.RateLimitPerMinute
	}

	// Register routes
	routes.RegisterRoutes(router, routes.Handlers{
		Employees: handlers.NewEmployeeHandler(employeeService, logger),
		Imports:   handlers.NewImportHandler(importService, fields, cfg.Import.MaxUploadBytes, logger),
		Audit:     handlers.NewAuditHandler(auditService),
		Health:    handlers.Health(db),
	}, tokenManager, auditLogger, uploadLimit)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		return
	}

	logger.Info("server stopped gracefully")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
