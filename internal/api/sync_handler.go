// Package api provides HTTP handlers for the API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/kioku-srs/kioku-api/internal/api/shared"
	"github.com/kioku-srs/kioku-api/internal/platform/logger"
	"github.com/kioku-srs/kioku-api/internal/service/syncer"
)

// SyncHandler handles client synchronization HTTP requests
type SyncHandler struct {
	syncService syncer.SyncService
	logger      *slog.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncService syncer.SyncService, logger *slog.Logger) *SyncHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SyncHandler")
	}

	return &SyncHandler{
		syncService: syncService,
		logger:      logger.With(slog.String("component", "sync_handler")),
	}
}

// Pull handles POST /api/sync/pull requests.
// It returns decks plus the notes and cards changed since the client's
// watermark, with a fresh watermark for the next pull.
func (h *SyncHandler) Pull(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req PullRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid pull request body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	result, err := h.syncService.Pull(r.Context(), millisToTime(req.Since))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), "Failed to compute pull", err)
		return
	}

	response := PullResponse{
		SyncTimestamp: timeToMillis(result.SyncTimestamp),
		Decks:         make([]DeckPayload, 0, len(result.Decks)),
		Notes:         make([]NotePayload, 0, len(result.Notes)),
		Cards:         make([]CardPayload, 0, len(result.Cards)),
	}
	for _, deck := range result.Decks {
		response.Decks = append(response.Decks, toDeckPayload(deck))
	}
	for _, note := range result.Notes {
		response.Notes = append(response.Notes, toNotePayload(note))
	}
	for _, card := range result.Cards {
		response.Cards = append(response.Cards, toCardPayload(card))
	}

	log.Debug("pull served",
		slog.Int64("since", req.Since),
		slog.Int("decks", len(response.Decks)),
		slog.Int("notes", len(response.Notes)),
		slog.Int("cards", len(response.Cards)))
	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

// PushReviews handles POST /api/sync/reviews requests.
// The body is an array of client review records; malformed records are
// skipped individually and never fail the batch.
func (h *SyncHandler) PushReviews(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var records []ReviewPushRecord
	if err := shared.DecodeJSON(r, &records); err != nil {
		log.Warn("invalid review push body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	pushes := make([]syncer.ReviewPush, 0, len(records))
	for _, rec := range records {
		pushes = append(pushes, syncer.ReviewPush{
			CardID:     rec.CardID,
			Rating:     string(rec.Rating),
			ReviewedAt: millisToTime(rec.ReviewedAt),
			LatencyMs:  rec.LatencyMs,
			ClientUUID: rec.UUID,
		})
	}

	result, err := h.syncService.PushReviews(r.Context(), pushes)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), "Failed to reconcile reviews", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, ReviewPushResponse{
		OK:        true,
		Processed: result.Processed,
	})
}

// PushNotes handles POST /api/sync/notes requests.
// The body is an array of client note states reconciled last-writer-wins;
// the response echoes the server state of every edit that won.
func (h *SyncHandler) PushNotes(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var records []NoteEditRecord
	if err := shared.DecodeJSON(r, &records); err != nil {
		log.Warn("invalid note push body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	edits := make([]syncer.NoteEdit, 0, len(records))
	for _, rec := range records {
		edits = append(edits, syncer.NoteEdit{
			ID:        rec.ID,
			DeckID:    rec.DeckID,
			Front:     rec.Front,
			Back:      rec.Back,
			Reading:   rec.Reading,
			POS:       rec.POS,
			Examples:  rec.Examples,
			Tags:      rec.Tags,
			UpdatedAt: millisToTime(rec.UpdatedAt),
		})
	}

	result, err := h.syncService.PushNotes(r.Context(), edits)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), "Failed to reconcile notes", err)
		return
	}

	response := NotePushResponse{
		Updated: result.Updated,
		Notes:   make([]NotePayload, 0, len(result.Notes)),
	}
	for _, note := range result.Notes {
		response.Notes = append(response.Notes, toNotePayload(note))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, response)
}
