package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kioku-srs/kioku-api/internal/api/shared"
	"github.com/kioku-srs/kioku-api/internal/platform/logger"
	"github.com/kioku-srs/kioku-api/internal/store"
)

// defaultReviewHistoryLimit caps GET /api/cards/{id}/reviews when the
// client does not ask for a specific page size.
const defaultReviewHistoryLimit = 50

// CardHandler handles card-related HTTP requests
type CardHandler struct {
	cards  store.CardStore
	logs   store.ReviewLogStore
	logger *slog.Logger
}

// NewCardHandler creates a new CardHandler
func NewCardHandler(
	cards store.CardStore,
	logs store.ReviewLogStore,
	logger *slog.Logger,
) *CardHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for CardHandler")
	}

	return &CardHandler{
		cards:  cards,
		logs:   logs,
		logger: logger.With(slog.String("component", "card_handler")),
	}
}

// ReviewHistory handles GET /api/cards/{id}/reviews requests.
// It lists a card's review history, most recent first, capped by the
// optional limit query parameter.
func (h *CardHandler) ReviewHistory(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid card ID")
		return
	}

	// Resolve the card first so an unknown ID is a 404, not an empty list.
	if _, err := h.cards.GetByID(r.Context(), cardID); err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"), defaultReviewHistoryLimit)
	entries, err := h.logs.ListByCard(r.Context(), cardID, limit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), "Failed to list review history", err)
		return
	}

	response := ReviewHistoryResponse{
		CardID:  cardID.String(),
		Reviews: make([]ReviewLogPayload, 0, len(entries)),
	}
	for _, entry := range entries {
		response.Reviews = append(response.Reviews, toReviewLogPayload(entry))
	}

	log.Debug("review history served",
		slog.String("card_id", cardID.String()),
		slog.Int("entries", len(response.Reviews)))
	shared.RespondWithJSON(w, r, http.StatusOK, response)
}
