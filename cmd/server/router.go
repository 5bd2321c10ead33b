package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kioku-srs/kioku-api/internal/api"
	apiMiddleware "github.com/kioku-srs/kioku-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. It accepts the application dependencies to create handlers
// and register routes. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	// Create a router
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	// Create API handlers using the application's services
	syncHandler := api.NewSyncHandler(app.syncService, app.logger)
	studyHandler := api.NewStudyHandler(app.studyService, app.logger)
	planHandler := api.NewPlanHandler(
		app.planService, app.config.Scheduler.ChallengeBatchSize, app.logger)
	cardHandler := api.NewCardHandler(app.cardStore, app.reviewLogStore, app.logger)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// Sync endpoints
		r.Post("/sync/pull", syncHandler.Pull)
		r.Post("/sync/reviews", syncHandler.PushReviews)
		r.Post("/sync/notes", syncHandler.PushNotes)

		// Study endpoints
		r.Get("/study/next", studyHandler.Next)
		r.Post("/study/rate", studyHandler.Rate)
		r.Post("/study/skip", studyHandler.Skip)
		r.Post("/study/batch", studyHandler.StartBatch)

		// Plan endpoints
		r.Post("/plan/build", planHandler.Build)
		r.Get("/plan/counts", planHandler.Counts)
		r.Post("/plan/challenge", planHandler.Challenge)
		r.Post("/plan/challenge/clear", planHandler.ClearChallenge)
		r.Post("/plan/roll", planHandler.Roll)

		// Card endpoints
		r.Get("/cards/{id}/reviews", cardHandler.ReviewHistory)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
