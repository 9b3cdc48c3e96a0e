package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/vporoshok/taskping/internal/config"
	"github.com/vporoshok/taskping/internal/keygen"
	"github.com/vporoshok/taskping/internal/notify"
	"github.com/vporoshok/taskping/internal/platform/postgres"
	"github.com/vporoshok/taskping/internal/scanner"
	"github.com/vporoshok/taskping/internal/scheduler"
	"github.com/vporoshok/taskping/internal/service"
	"github.com/vporoshok/taskping/internal/service/auth"
	"github.com/vporoshok/taskping/internal/store"
)

// scanJobName identifies the due-task sweep in scheduler logs.
const scanJobName = "notify_upcoming_tasks"

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	userStore     store.UserStore
	taskStore     store.TaskStore
	categoryStore store.CategoryStore
	transactor    store.Transactor

	// Service interfaces
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	userService      service.UserService
	taskService      service.TaskService
	categoryService  service.CategoryService

	// Notification pipeline
	dispatcher *notify.Dispatcher
	scanner    *scanner.Scanner
	scheduler  *scheduler.Scheduler
}

// newApplication creates a new application instance with all dependencies
// initialized: database, stores, services, the Telegram delivery pipeline
// and the periodic due-task scan.
func newApplication(cfg *config.Config) (*application, error) {
	logger := slog.Default()

	db, err := setupDatabase(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	if err := runMigrations(db, logger); err != nil {
		closeQuietly(db, logger)
		return nil, err
	}

	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		closeQuietly(db, logger)
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_expiry", cfg.Auth.TokenExpiry)

	app.passwordVerifier = auth.NewBcryptVerifier()

	app.userStore = postgres.NewUserStore(db, logger)
	app.taskStore = postgres.NewTaskStore(db, logger)
	app.categoryStore = postgres.NewCategoryStore(db, logger)
	app.transactor = store.NewDBTransactor(db)

	keys := keygen.NewGenerator(keygen.SanitizePrefix(cfg.Keygen.Prefix))

	app.userService = service.NewUserService(app.userStore, keys, app.passwordVerifier, logger)
	app.taskService = service.NewTaskService(app.taskStore, keys, logger)
	app.categoryService = service.NewCategoryService(app.categoryStore, keys, logger)

	telegram, err := notify.NewClient(notify.ClientConfig{
		Token:   cfg.Telegram.BotToken,
		APIBase: cfg.Telegram.APIBase,
	}, logger)
	if err != nil {
		closeQuietly(db, logger)
		return nil, fmt.Errorf("failed to initialize telegram client: %w", err)
	}

	app.dispatcher = notify.NewDispatcher(telegram, notify.DefaultDispatcherConfig(), logger)

	location, err := time.LoadLocation(cfg.Scanner.Timezone)
	if err != nil {
		closeQuietly(db, logger)
		return nil, fmt.Errorf("failed to load scanner timezone %q: %w", cfg.Scanner.Timezone, err)
	}

	app.scanner = scanner.New(app.taskStore, app.transactor, app.dispatcher, scanner.Config{
		Lookahead: cfg.Scanner.Lookahead,
		Location:  location,
	}, logger)

	app.scheduler = scheduler.New(scheduler.DefaultRunTimeout, logger)
	if err := app.scheduler.Register(scanJobName,
		fmt.Sprintf("@every %s", cfg.Scanner.Interval), app.runScan); err != nil {
		closeQuietly(db, logger)
		return nil, fmt.Errorf("failed to register scan job: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// run seeds the preset categories, starts the background pipeline and the
// HTTP server, and blocks until shutdown completes.
func (app *application) run() error {
	ctx := context.Background()

	seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := app.categoryService.SeedPresets(seedCtx); err != nil {
		app.cleanup()
		return fmt.Errorf("failed to seed preset categories: %w", err)
	}

	app.dispatcher.Start()
	go app.drainDeliveryFailures()
	app.scheduler.Start()

	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// runScan performs one due-task sweep. Registered with the scheduler.
func (app *application) runScan(ctx context.Context) error {
	processed, err := app.scanner.Run(ctx)
	if err != nil {
		return err
	}
	if processed > 0 {
		app.logger.Info("Due-task scan completed", "notified", processed)
	}
	return nil
}

// drainDeliveryFailures logs dropped notifications. The channel closes
// when the dispatcher stops, which ends this goroutine.
func (app *application) drainDeliveryFailures() {
	for failure := range app.dispatcher.Failures() {
		app.logger.Error("Notification dropped",
			"message_id", failure.Message.ID,
			"chat_id", failure.Message.ChatID,
			"attempts", failure.Attempts,
			"error", failure.Err)
	}
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	// Stopping the dispatcher waits for in-flight deliveries and closes
	// the failure channel.
	if app.dispatcher != nil {
		app.dispatcher.Stop()
	}

	if app.db != nil {
		closeQuietly(app.db, app.logger)
	}

	app.logger.Info("Application shutdown completed")
}

func closeQuietly(db *sql.DB, logger *slog.Logger) {
	if err := db.Close(); err != nil {
		logger.Error("Error closing database connection", "error", err)
	}
}
