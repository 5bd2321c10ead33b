package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/kioku-srs/kioku-api/internal/api/shared"
	"github.com/kioku-srs/kioku-api/internal/platform/logger"
	"github.com/kioku-srs/kioku-api/internal/service/planner"
)

// PlanHandler handles daily plan HTTP requests
type PlanHandler struct {
	planService        planner.PlanService
	challengeBatchSize int
	logger             *slog.Logger
}

// NewPlanHandler creates a new PlanHandler. challengeBatchSize is the
// default size used when a challenge request does not carry one.
func NewPlanHandler(
	planService planner.PlanService,
	challengeBatchSize int,
	logger *slog.Logger,
) *PlanHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for PlanHandler")
	}

	return &PlanHandler{
		planService:        planService,
		challengeBatchSize: challengeBatchSize,
		logger:             logger.With(slog.String("component", "plan_handler")),
	}
}

// Build handles POST /api/plan/build requests.
// It rebuilds today's plan, optionally restricted to one deck. An empty
// body means an unfiltered rebuild.
func (h *PlanHandler) Build(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var deckID *uuid.UUID
	if r.ContentLength > 0 {
		var req BuildPlanRequest
		if err := shared.DecodeJSON(r, &req); err != nil {
			log.Warn("invalid plan build body", slog.String("error", err.Error()))
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
		if req.DeckID != nil && *req.DeckID != "" {
			parsed, err := uuid.Parse(*req.DeckID)
			if err != nil {
				shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid deck ID")
				return
			}
			deckID = &parsed
		}
	}

	counts, err := h.planService.BuildToday(r.Context(), deckID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), "Failed to build plan", err)
		return
	}

	log.Debug("plan built",
		slog.Int("pending", counts.Pending),
		slog.Int("total", counts.Total))
	shared.RespondWithJSON(w, r, http.StatusOK, counts)
}

// Counts handles GET /api/plan/counts requests.
func (h *PlanHandler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.planService.Counts(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), "Failed to count plan items", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, counts)
}

// Challenge handles POST /api/plan/challenge requests.
// It appends an ad-hoc batch of new cards to today's plan.
func (h *PlanHandler) Challenge(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	size := h.challengeBatchSize
	if r.ContentLength > 0 {
		var req ChallengeRequest
		if err := shared.DecodeJSON(r, &req); err != nil {
			log.Warn("invalid challenge body", slog.String("error", err.Error()))
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
		if req.Size > 0 {
			size = req.Size
		}
	}

	added, err := h.planService.AppendChallengeBatch(r.Context(), size)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to append challenge batch"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("challenge batch appended", slog.Int("added", added))
	shared.RespondWithJSON(w, r, http.StatusOK, ChallengeResponse{Added: added})
}

// Roll handles POST /api/plan/roll requests.
// It rolls every remaining pending item to the next day's plan.
func (h *PlanHandler) Roll(w http.ResponseWriter, r *http.Request) {
	rolled, err := h.planService.RollRemainingToday(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), "Failed to roll plan items", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CountResponse{Count: rolled})
}

// ClearChallenge handles POST /api/plan/challenge/clear requests.
// It drops today's remaining challenge items without rolling them over.
func (h *PlanHandler) ClearChallenge(w http.ResponseWriter, r *http.Request) {
	cleared, err := h.planService.ClearChallengeToday(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), "Failed to clear challenge items", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, CountResponse{Count: cleared})
}
