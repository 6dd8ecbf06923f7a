package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rollcallhq/presence/internal/presence/domain"
	httpapi "github.com/rollcallhq/presence/internal/presence/http"
	"github.com/rollcallhq/presence/internal/presence/service"
	"github.com/rollcallhq/presence/internal/presence/store"
	"github.com/rollcallhq/presence/internal/presence/store/drivers/csv"
	"github.com/rollcallhq/presence/internal/presence/store/drivers/sqlite"
	"github.com/rollcallhq/presence/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the presence service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Durable record sink
	db store.Store

	// Services
	saltRotator         *service.SaltRotator
	challengeService    *service.ChallengeService
	codeService         *service.CodeService
	verificationService *service.VerificationService
	deviceLockService   *service.DeviceLockService
	submissionGate      *service.SubmissionGate
	overrideService     *service.OverrideService
	checkinService      *service.CheckinService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "presence",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.saltRotator.Start()

	app.logger.Info("presence service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"record_sink", app.cfg.RecordSink,
		"lock_policy", app.cfg.DeviceLockPolicy,
		"override_configured", app.overrideService.Available(),
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down presence service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the salt rotation worker
	app.saltRotator.Stop()

	// Close the record sink
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing record sink", "error", err)
		return err
	}

	app.logger.Info("presence service stopped")
	return nil
}

// initStore initializes the configured record sink and prepares it
func (app *Application) initStore() error {
	switch app.cfg.RecordSink {
	case "csv":
		app.db = csv.NewStore(app.cfg.CSVDir)
	case "sqlite":
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
		db, err := sqlite.NewStore(dsn)
		if err != nil {
			return fmt.Errorf("failed to initialize record sink: %w", err)
		}
		app.db = db
	default:
		return fmt.Errorf("unknown record sink %q (expected sqlite or csv)", app.cfg.RecordSink)
	}

	if err := app.db.ApplyMigrations(); err != nil {
		_ = app.db.Close()
		return fmt.Errorf("failed to prepare record sink: %w", err)
	}

	app.logger.Info("record sink ready", "driver", app.cfg.RecordSink)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.saltRotator = service.NewSaltRotator(
		app.cfg.SaltRotation,
		app.cfg.SaltAcceptWindow,
		app.logger,
	)
	app.codeService = service.NewCodeService(app.saltRotator, app.cfg.CodeTolerance)
	app.challengeService = service.NewChallengeService(app.cfg.ChallengeTTL)
	app.verificationService = service.NewVerificationService(app.cfg.VerificationTTL)
	app.submissionGate = service.NewSubmissionGate(app.cfg.CheckinWindow)
	app.deviceLockService = service.NewDeviceLockService(
		app.cfg.DeviceLockTTL,
		domain.LockPolicy(app.cfg.DeviceLockPolicy),
	)

	app.overrideService = service.NewOverrideService(
		app.cfg.OverrideTTL,
		service.OverrideSecrets{
			SecretHash:      app.cfg.OverrideSecretHash,
			Secret:          app.cfg.OverrideSecret,
			TOTPSecret:      app.cfg.OverrideTOTPSecret,
			PasswordVersion: app.cfg.OverridePasswordVersion,
		},
		app.db.OverrideAudit(),
		app.logger,
	)

	app.checkinService = &service.CheckinService{
		Verifications: app.verificationService,
		Overrides:     app.overrideService,
		Gate:          app.submissionGate,
		Locks:         app.deviceLockService,
		Records:       app.db.Checkins(),
		Logger:        app.logger,
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.logger,
		app.cfg.DebugExpectedCodes,
	)

	// Wire services to router
	router.Salts = app.saltRotator
	router.Challenges = app.challengeService
	router.Codes = app.codeService
	router.Verifications = app.verificationService
	router.Checkins = app.checkinService
	router.Overrides = app.overrideService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
