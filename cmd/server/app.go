package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kioku-srs/kioku-api/internal/config"
	"github.com/kioku-srs/kioku-api/internal/domain/srs"
	"github.com/kioku-srs/kioku-api/internal/platform/postgres"
	"github.com/kioku-srs/kioku-api/internal/service/planner"
	"github.com/kioku-srs/kioku-api/internal/service/study"
	"github.com/kioku-srs/kioku-api/internal/service/syncer"
	"github.com/kioku-srs/kioku-api/internal/store"
	"github.com/kioku-srs/kioku-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	cardStore      store.CardStore
	noteStore      store.NoteStore
	deckStore      store.DeckStore
	reviewLogStore store.ReviewLogStore
	planStore      store.PlanStore

	// Domain services
	srsService   srs.Service
	planService  planner.PlanService
	studyService study.StudyService
	syncService  syncer.SyncService

	// Background jobs
	planRebuildRunner *task.PlanRebuildRunner
}

// newApplication wires the full dependency graph on top of an open
// database handle.
func newApplication(cfg *config.Config, db *sql.DB, logger *slog.Logger) (*application, error) {
	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Scheduler.Timezone, err)
	}

	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Stores
	app.cardStore = postgres.NewPostgresCardStore(db, logger)
	app.noteStore = postgres.NewPostgresNoteStore(db, logger)
	app.deckStore = postgres.NewPostgresDeckStore(db, logger)
	app.reviewLogStore = postgres.NewPostgresReviewLogStore(db, logger)
	app.planStore = postgres.NewPostgresPlanStore(db, logger)

	txRunner := &store.DBTxRunner{DB: db}

	// Services
	app.srsService = srs.NewDefaultService()
	app.planService = planner.NewPlanService(
		txRunner, app.cardStore, app.planStore, cfg.Scheduler, loc, logger)
	app.studyService = study.NewStudyService(
		txRunner,
		app.cardStore,
		app.noteStore,
		app.planStore,
		app.reviewLogStore,
		app.srsService,
		cfg.Scheduler,
		loc,
		true,
		logger,
	)
	app.syncService = syncer.NewSyncService(
		txRunner, app.deckStore, app.noteStore, app.cardStore, app.reviewLogStore, logger)

	// Background jobs
	app.planRebuildRunner = task.NewPlanRebuildRunner(
		app.planService, cfg.Task.PlanRebuildInterval, logger)

	return app, nil
}

// cleanup releases the application's long-lived resources. Safe to call
// once during shutdown.
func (app *application) cleanup() {
	if app.planRebuildRunner != nil {
		app.planRebuildRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
