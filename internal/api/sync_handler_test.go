package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kioku-srs/kioku-api/internal/domain"
	"github.com/kioku-srs/kioku-api/internal/service/syncer"
)

func TestSyncHandlerPull(t *testing.T) {
	t.Parallel()

	watermark := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	deck, err := domain.NewDeck("Core 2k")
	require.NoError(t, err)
	note, err := domain.NewNote(nil, "犬", "dog")
	require.NoError(t, err)
	card, err := domain.NewCard(note.ID)
	require.NoError(t, err)

	svc := &stubSyncService{
		pullResult: &syncer.PullResult{
			SyncTimestamp: watermark,
			Decks:         []*domain.Deck{deck},
			Notes:         []*domain.Note{note},
			Cards:         []*domain.Card{card},
		},
	}
	handler := NewSyncHandler(svc, slog.Default())

	since := watermark.Add(-time.Hour)
	body := `{"since": ` + strconv.FormatInt(since.UnixMilli(), 10) + `}`
	req := httptest.NewRequest(http.MethodPost, "/api/sync/pull", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Pull(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.gotSince.Equal(since))

	var resp PullResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, watermark.UnixMilli(), resp.SyncTimestamp)
	require.Len(t, resp.Decks, 1)
	assert.Equal(t, deck.ID.String(), resp.Decks[0].ID)
	require.Len(t, resp.Notes, 1)
	assert.Equal(t, "犬", resp.Notes[0].Front)
	require.Len(t, resp.Cards, 1)
	assert.Nil(t, resp.Cards[0].DueAt)
}

func TestSyncHandlerPullSinceZero(t *testing.T) {
	t.Parallel()

	svc := &stubSyncService{
		pullResult: &syncer.PullResult{SyncTimestamp: time.Now().UTC()},
	}
	handler := NewSyncHandler(svc, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/api/sync/pull",
		strings.NewReader(`{"since": 0}`))
	rec := httptest.NewRecorder()
	handler.Pull(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.gotSince.IsZero())

	// Empty collections serialize as arrays, not null.
	body := rec.Body.String()
	assert.Contains(t, body, `"decks":[]`)
	assert.Contains(t, body, `"notes":[]`)
	assert.Contains(t, body, `"cards":[]`)
}

func TestSyncHandlerPushReviews(t *testing.T) {
	t.Parallel()

	cardID := uuid.New()
	svc := &stubSyncService{
		reviewResult: &syncer.ReviewPushResult{Processed: 2},
	}
	handler := NewSyncHandler(svc, slog.Default())

	body := `[
		{"cardId": "` + cardID.String() + `", "rating": 3, "reviewedAt": 1756728000000},
		{"cardId": "` + cardID.String() + `", "rating": "AGAIN", "reviewedAt": 1756731600000, "latencyMs": 1800}
	]`
	req := httptest.NewRequest(http.MethodPost, "/api/sync/reviews", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.PushReviews(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.gotReviews, 2)
	assert.Equal(t, "3", svc.gotReviews[0].Rating)
	assert.Equal(t, "AGAIN", svc.gotReviews[1].Rating)
	assert.True(t, svc.gotReviews[0].ReviewedAt.Equal(time.UnixMilli(1756728000000).UTC()))
	require.NotNil(t, svc.gotReviews[1].LatencyMs)
	assert.Equal(t, int64(1800), *svc.gotReviews[1].LatencyMs)

	var resp ReviewPushResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, 2, resp.Processed)
}

func TestSyncHandlerPushReviewsRejectsNonArrayBody(t *testing.T) {
	t.Parallel()

	handler := NewSyncHandler(&stubSyncService{}, slog.Default())

	req := httptest.NewRequest(http.MethodPost, "/api/sync/reviews",
		strings.NewReader(`{"cardId": "x"}`))
	rec := httptest.NewRecorder()
	handler.PushReviews(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncHandlerPushNotes(t *testing.T) {
	t.Parallel()

	note, err := domain.NewNote(nil, "猫", "cat")
	require.NoError(t, err)
	svc := &stubSyncService{
		noteResult: &syncer.NotePushResult{Updated: 1, Notes: []*domain.Note{note}},
	}
	handler := NewSyncHandler(svc, slog.Default())

	body := `[{"id": "` + note.ID.String() + `", "front": "猫", "back": "cat", "updatedAt": 1756728000000}]`
	req := httptest.NewRequest(http.MethodPost, "/api/sync/notes", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.PushNotes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, svc.gotEdits, 1)
	assert.Equal(t, note.ID.String(), svc.gotEdits[0].ID)
	assert.Equal(t, "猫", svc.gotEdits[0].Front)

	var resp NotePushResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Updated)
	require.Len(t, resp.Notes, 1)
	assert.Equal(t, note.ID.String(), resp.Notes[0].ID)
}
