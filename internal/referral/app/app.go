package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"refergate/internal/referral/bot"
	"refergate/internal/referral/service"
	"refergate/internal/referral/store"
	"refergate/internal/referral/store/drivers/sqlite"
	"refergate/internal/referral/telegram"
	"refergate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the referral bot with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db        store.Store
	api       *tgbotapi.BotAPI
	transport *telegram.Client

	// Services
	enrollmentService   *service.EnrollmentService
	attributionService  *service.AttributionService
	housekeepingService *service.HousekeepingService

	// Update loop
	router *bot.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "refergate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initTelegram(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initRouter()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("referral bot starting",
		"group_id", app.cfg.GroupID,
		"threshold", app.cfg.Threshold,
		"version", BuildVersion,
	)

	// Start the update loop in a goroutine
	routerErrors := make(chan error, 1)
	go func() {
		routerErrors <- app.router.Run()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-routerErrors:
		if err != nil {
			return fmt.Errorf("update loop failed: %w", err)
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
	app.logger.Info("shutting down referral bot...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Stop receiving updates and give in-flight handlers a deadline to drain
	app.router.Stop()
	select {
	case <-app.router.Done():
	case <-ctx.Done():
		app.logger.Warn("gave up waiting for in-flight updates")
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("referral bot stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initTelegram authorizes the bot and wraps the API handle in the transport
// client (rate limited, bounded timeouts).
func (app *Application) initTelegram() error {
	api, err := tgbotapi.NewBotAPI(app.cfg.BotToken)
	if err != nil {
		return fmt.Errorf("failed to authorize bot: %w", err)
	}
	app.api = api

	app.transport = telegram.NewClient(api, telegram.Config{
		Timeout:   app.cfg.TransportTimeout,
		SendRate:  app.cfg.SendRate,
		SendBurst: app.cfg.SendBurst,
	})

	app.logger.Info("telegram bot authorized", "username", api.Self.UserName)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.enrollmentService = &service.EnrollmentService{
		Store:     app.db,
		Transport: app.transport,
		GroupID:   app.cfg.GroupID,
	}

	app.attributionService = &service.AttributionService{
		Store:      app.db,
		Transport:  app.transport,
		GroupID:    app.cfg.GroupID,
		Threshold:  app.cfg.Threshold,
		RewardLink: app.cfg.RewardLink,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.FailureRetention,
	)
}

// initRouter wires the services into the update router
func (app *Application) initRouter() {
	router := bot.NewRouter(
		app.api,
		app.transport,
		app.cfg.Threshold,
		app.logger,
	)

	router.Enrollment = app.enrollmentService
	router.Attribution = app.attributionService

	app.router = router
}
