package api

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/kioku-srs/kioku-api/internal/domain"
)

// RawValue accepts a JSON number or string and keeps it as text, so a
// field whose type drifted across client versions can still be decoded
// and validated record by record.
type RawValue string

// UnmarshalJSON implements json.Unmarshaler for RawValue.
func (v *RawValue) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = RawValue(s)
		return nil
	}
	*v = RawValue(data)
	return nil
}

// timeToMillis converts a time to the wire's epoch-milliseconds form.
func timeToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// millisToTime converts epoch milliseconds to a UTC time. Zero maps to the
// zero time, which the sync layer reads as "everything".
func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// optionalMillis converts a nullable time for the wire.
func optionalMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

// PullRequest is the request body for POST /api/sync/pull.
type PullRequest struct {
	Since int64 `json:"since"`
}

// DeckPayload is the wire form of a deck.
type DeckPayload struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
}

// NotePayload is the wire form of a note.
type NotePayload struct {
	ID        string  `json:"id"`
	DeckID    *string `json:"deckId,omitempty"`
	Front     string  `json:"front"`
	Back      string  `json:"back"`
	Reading   string  `json:"reading,omitempty"`
	POS       string  `json:"pos,omitempty"`
	Examples  string  `json:"examples,omitempty"`
	Tags      string  `json:"tags,omitempty"`
	CreatedAt int64   `json:"createdAt"`
	UpdatedAt int64   `json:"updatedAt"`
}

// CardPayload is the wire form of a card's schedule.
type CardPayload struct {
	ID           string   `json:"id"`
	NoteID       string   `json:"noteId"`
	DueAt        *int64   `json:"dueAt,omitempty"`
	IntervalDays *float64 `json:"intervalDays,omitempty"`
	Ease         float64  `json:"ease"`
	Reps         int      `json:"reps"`
	Lapses       int      `json:"lapses"`
	Status       int      `json:"status"`
	LastReviewAt *int64   `json:"lastReviewAt,omitempty"`
}

// PullResponse is the response body for POST /api/sync/pull.
type PullResponse struct {
	SyncTimestamp int64         `json:"syncTimestamp"`
	Decks         []DeckPayload `json:"decks"`
	Notes         []NotePayload `json:"notes"`
	Cards         []CardPayload `json:"cards"`
}

// ReviewPushRecord is one element of the POST /api/sync/reviews body.
// Rating is a RawValue because older clients send it as a number and
// newer ones as a name.
type ReviewPushRecord struct {
	CardID     string   `json:"cardId"`
	Rating     RawValue `json:"rating"`
	ReviewedAt int64    `json:"reviewedAt"`
	LatencyMs  *int64   `json:"latencyMs,omitempty"`
	UUID       *string  `json:"uuid,omitempty"`
}

// ReviewPushResponse is the response body for POST /api/sync/reviews.
type ReviewPushResponse struct {
	OK        bool `json:"ok"`
	Processed int  `json:"processed"`
}

// NoteEditRecord is one element of the POST /api/sync/notes body.
type NoteEditRecord struct {
	ID        string  `json:"id"`
	DeckID    *string `json:"deckId,omitempty"`
	Front     string  `json:"front"`
	Back      string  `json:"back"`
	Reading   string  `json:"reading,omitempty"`
	POS       string  `json:"pos,omitempty"`
	Examples  string  `json:"examples,omitempty"`
	Tags      string  `json:"tags,omitempty"`
	UpdatedAt int64   `json:"updatedAt"`
}

// NotePushResponse is the response body for POST /api/sync/notes.
type NotePushResponse struct {
	Updated int           `json:"updated"`
	Notes   []NotePayload `json:"notes"`
}

// RateRequest is the request body for POST /api/study/rate.
type RateRequest struct {
	Rating RawValue `json:"rating"`
}

// SkipRequest is the request body for POST /api/study/skip.
type SkipRequest struct {
	MarkSkipped bool `json:"markSkipped"`
}

// BatchRequest is the request body for POST /api/study/batch.
type BatchRequest struct {
	Size int `json:"size" validate:"required,gt=0"`
}

// RateResponse is the response body for POST /api/study/rate.
type RateResponse struct {
	CardID       string  `json:"cardId"`
	Rating       int     `json:"rating"`
	IntervalDays float64 `json:"intervalDays"`
	Ease         float64 `json:"ease"`
	DueAt        int64   `json:"dueAt"`
	IsLapse      bool    `json:"isLapse"`
}

// BuildPlanRequest is the request body for POST /api/plan/build.
type BuildPlanRequest struct {
	DeckID *string `json:"deckId,omitempty"`
}

// ChallengeRequest is the request body for POST /api/plan/challenge.
type ChallengeRequest struct {
	Size int `json:"size" validate:"omitempty,gt=0"`
}

// ChallengeResponse is the response body for POST /api/plan/challenge.
type ChallengeResponse struct {
	Added int `json:"added"`
}

// CountResponse is the response body for count-returning plan endpoints.
type CountResponse struct {
	Count int64 `json:"count"`
}

// ReviewLogPayload is the wire form of one review history row.
type ReviewLogPayload struct {
	ID               string  `json:"id"`
	CardID           string  `json:"cardId"`
	ReviewedAt       int64   `json:"reviewedAt"`
	Rating           int     `json:"rating"`
	LatencyMs        *int64  `json:"latencyMs,omitempty"`
	PrevIntervalDays float64 `json:"prevIntervalDays"`
	NextIntervalDays float64 `json:"nextIntervalDays"`
	Ease             float64 `json:"ease"`
	UUID             *string `json:"uuid,omitempty"`
}

// ReviewHistoryResponse is the response body for GET /api/cards/{id}/reviews.
type ReviewHistoryResponse struct {
	CardID  string             `json:"cardId"`
	Reviews []ReviewLogPayload `json:"reviews"`
}

// toDeckPayload converts a domain deck to its wire form.
func toDeckPayload(deck *domain.Deck) DeckPayload {
	return DeckPayload{
		ID:        deck.ID.String(),
		Name:      deck.Name,
		CreatedAt: timeToMillis(deck.CreatedAt),
	}
}

// toNotePayload converts a domain note to its wire form.
func toNotePayload(note *domain.Note) NotePayload {
	payload := NotePayload{
		ID:        note.ID.String(),
		Front:     note.Front,
		Back:      note.Back,
		Reading:   note.Reading,
		POS:       note.POS,
		Examples:  note.Examples,
		Tags:      note.Tags,
		CreatedAt: timeToMillis(note.CreatedAt),
		UpdatedAt: timeToMillis(note.UpdatedAt),
	}
	if note.DeckID != nil {
		id := note.DeckID.String()
		payload.DeckID = &id
	}
	return payload
}

// toCardPayload converts a domain card to its wire form.
func toCardPayload(card *domain.Card) CardPayload {
	return CardPayload{
		ID:           card.ID.String(),
		NoteID:       card.NoteID.String(),
		DueAt:        optionalMillis(card.DueAt),
		IntervalDays: card.IntervalDays,
		Ease:         card.Ease,
		Reps:         card.Reps,
		Lapses:       card.Lapses,
		Status:       int(card.Status),
		LastReviewAt: optionalMillis(card.LastReviewAt),
	}
}

// toReviewLogPayload converts a review log entry to its wire form.
func toReviewLogPayload(entry *domain.ReviewLogEntry) ReviewLogPayload {
	return ReviewLogPayload{
		ID:               entry.ID.String(),
		CardID:           entry.CardID.String(),
		ReviewedAt:       timeToMillis(entry.ReviewedAt),
		Rating:           int(entry.Rating),
		LatencyMs:        entry.LatencyMs,
		PrevIntervalDays: entry.PrevIntervalDays,
		NextIntervalDays: entry.NextIntervalDays,
		Ease:             entry.Ease,
		UUID:             entry.ClientUUID,
	}
}

// parseLimit reads an optional positive integer query parameter, falling
// back to def when absent or malformed.
func parseLimit(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
