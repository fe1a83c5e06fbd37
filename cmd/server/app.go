package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/certify-api/internal/config"
	"github.com/phrazzld/certify-api/internal/events"
	"github.com/phrazzld/certify-api/internal/platform/postgres"
	"github.com/phrazzld/certify-api/internal/platform/xqueue"
	"github.com/phrazzld/certify-api/internal/service"
	"github.com/phrazzld/certify-api/internal/service/auth"
	"github.com/phrazzld/certify-api/internal/store"
)

// auditLogHandler records every status change event in the server log so
// operators can reconstruct a certificate's history without touching the
// database.
type auditLogHandler struct {
	logger *slog.Logger
}

// HandleEvent logs the event with its payload verbatim.
func (h *auditLogHandler) HandleEvent(ctx context.Context, event *events.StatusChangeEvent) error {
	h.logger.Info("status change",
		"event_id", event.ID,
		"event_type", event.Type,
		"payload", string(event.Payload),
		"created_at", event.CreatedAt)
	return nil
}

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	certStore    store.CertificateStore
	exampleStore store.ExampleCertificateStore
	settingStore store.GenerationSettingStore

	// Service interfaces
	jwtService     auth.JWTService
	queueClient    xqueue.Client
	gateService    *service.GateService
	certService    *service.CertificateService
	exampleService *service.ExampleCertificateService

	// Event system
	eventEmitter events.EventEmitter
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger,
// and database connection that must be established before application
// initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize JWT service
	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	// Initialize stores
	app.certStore = postgres.NewPostgresCertificateStore(db, logger)
	app.exampleStore = postgres.NewPostgresExampleCertificateStore(db, logger)
	app.settingStore = postgres.NewPostgresGenerationSettingStore(db, logger)

	// Initialize the queue client. Submissions go through the retry
	// wrapper so transient transport failures are retried with backoff;
	// queue rejections are not retried.
	baseClient, err := xqueue.NewHTTPClient(cfg.Queue, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize queue client: %w", err)
	}
	app.queueClient = xqueue.NewRetryingClient(
		baseClient,
		cfg.Queue.MaxRetries,
		time.Duration(cfg.Queue.RetryDelaySeconds)*time.Second,
		logger,
	)

	// Initialize event emitter and register the audit-log handler
	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(&auditLogHandler{
		logger: logger.With("component", "status_audit"),
	})
	app.eventEmitter = emitter

	// Create required adapters
	certRepoAdapter := service.NewCertificateRepositoryAdapter(app.certStore, db)
	exampleRepoAdapter := service.NewExampleCertificateRepositoryAdapter(app.exampleStore, db)

	// Initialize services
	app.gateService = service.NewGateService(app.settingStore, app.eventEmitter, logger)
	app.certService = service.NewCertificateService(
		certRepoAdapter,
		app.gateService,
		app.queueClient,
		app.eventEmitter,
		cfg.Queue.CallbackBaseURL,
		logger,
	)
	app.exampleService = service.NewExampleCertificateService(
		exampleRepoAdapter,
		app.queueClient,
		app.eventEmitter,
		cfg.Queue.CallbackBaseURL,
		logger,
	)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	err := app.startHTTPServer(ctx, router)
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
