package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kioku-srs/kioku-api/internal/api/shared"
	"github.com/kioku-srs/kioku-api/internal/domain"
	"github.com/kioku-srs/kioku-api/internal/platform/logger"
	"github.com/kioku-srs/kioku-api/internal/service/study"
)

// StudyHandler handles study session HTTP requests
type StudyHandler struct {
	studyService study.StudyService
	logger       *slog.Logger
}

// NewStudyHandler creates a new StudyHandler
func NewStudyHandler(studyService study.StudyService, logger *slog.Logger) *StudyHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for StudyHandler")
	}

	return &StudyHandler{
		studyService: studyService,
		logger:       logger.With(slog.String("component", "study_handler")),
	}
}

// Next handles GET /api/study/next requests.
// It picks the next card to show, responding 204 when nothing qualifies.
func (h *StudyHandler) Next(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	view, err := h.studyService.NextCard(r.Context())
	if errors.Is(err, study.ErrNothingToStudy) {
		log.Debug("nothing to study")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), "Failed to get next card", err)
		return
	}

	log.Debug("next card served", slog.String("card_id", view.CardID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// Rate handles POST /api/study/rate requests.
// It applies a rating to the showing card. Rating accepts either the
// numeric form (1-4) or the name (AGAIN, HARD, GOOD, EASY).
func (h *StudyHandler) Rate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid rate request body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	rating, err := domain.ParseRating(string(req.Rating))
	if err != nil {
		log.Warn("invalid rating value", slog.String("rating", string(req.Rating)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid rating")
		return
	}

	outcome, err := h.studyService.Rate(r.Context(), rating)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to rate card"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("card rated",
		slog.String("card_id", outcome.CardID.String()),
		slog.String("rating", outcome.Rating.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, RateResponse{
		CardID:       outcome.CardID.String(),
		Rating:       int(outcome.Rating),
		IntervalDays: outcome.IntervalDays,
		Ease:         outcome.Ease,
		DueAt:        timeToMillis(outcome.DueAt),
		IsLapse:      outcome.IsLapse,
	})
}

// Skip handles POST /api/study/skip requests.
// It clears the showing card without rescheduling it.
func (h *StudyHandler) Skip(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req SkipRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid skip request body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.studyService.Skip(r.Context(), req.MarkSkipped); err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to skip card"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// StartBatch handles POST /api/study/batch requests.
// It begins a fixed-size, plan-first study batch.
func (h *StudyHandler) StartBatch(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req BatchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid batch request body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	h.studyService.StartBatch(req.Size)

	log.Debug("study batch started", slog.Int("size", req.Size))
	shared.RespondWithJSON(w, r, http.StatusOK, map[string]int{
		"remaining": h.studyService.RemainingInBatch(),
	})
}
