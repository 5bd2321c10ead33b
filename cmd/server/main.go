// Package main implements the entry point for the kioku API server, which
// schedules spaced-repetition flashcards, builds daily review plans and
// reconciles state pushed by study clients.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/kioku-srs/kioku-api/internal/config"
	"github.com/kioku-srs/kioku-api/internal/platform/logger"
)

// main initializes configuration, logging, the database and the dependency
// graph, then serves HTTP until a shutdown signal arrives.
func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.planRebuildRunner.Start()

	if err := app.startHTTPServer(context.Background(), app.setupRouter()); err != nil {
		app.logger.Error("Server exited with error", "error", err)
	}
}

// initializeApp loads configuration and sets up application components.
func initializeApp() (*application, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Set up structured logging using the configured log level
	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"timezone", cfg.Scheduler.Timezone)

	// Establish database connection
	db, err := setupAppDatabase(cfg, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	// Apply schema migrations
	if err := runMigrations(db, appLogger); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			appLogger.Error("failed to close database after migration failure",
				"error", closeErr)
		}
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Wire the dependency graph
	app, err := newApplication(cfg, db, appLogger)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			appLogger.Error("failed to close database after wiring failure",
				"error", closeErr)
		}
		return nil, fmt.Errorf("failed to wire application: %w", err)
	}

	return app, nil
}
