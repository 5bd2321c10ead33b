package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReviewLogEntry validation errors
var (
	// ErrReviewLogCardIDEmpty is returned when a log entry has no card ID.
	ErrReviewLogCardIDEmpty = errors.New("review log card ID cannot be empty")

	// ErrReviewLogRatingInvalid is returned when a log entry carries a
	// rating outside 1-4.
	ErrReviewLogRatingInvalid = errors.New("review log rating must be between 1 and 4")
)

// ReviewLogEntry is one row of the append-only review history. ClientUUID
// is an optional client-generated idempotency key used to dedup pushes
// from multiple devices.
type ReviewLogEntry struct {
	ID               uuid.UUID `json:"id"`
	CardID           uuid.UUID `json:"card_id"`
	ReviewedAt       time.Time `json:"reviewed_at"`
	Rating           Rating    `json:"rating"`
	LatencyMs        *int64    `json:"latency_ms,omitempty"`
	PrevIntervalDays float64   `json:"prev_interval_days"`
	NextIntervalDays float64   `json:"next_interval_days"`
	Ease             float64   `json:"ease"`
	ClientUUID       *string   `json:"client_uuid,omitempty"`
}

// NewReviewLogEntry creates a review log entry for the given card and
// rating, stamped with the given review time.
func NewReviewLogEntry(cardID uuid.UUID, rating Rating, reviewedAt time.Time) (*ReviewLogEntry, error) {
	entry := &ReviewLogEntry{
		ID:         uuid.New(),
		CardID:     cardID,
		ReviewedAt: reviewedAt,
		Rating:     rating,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the entry has valid data.
func (e *ReviewLogEntry) Validate() error {
	if e.CardID == uuid.Nil {
		return ErrReviewLogCardIDEmpty
	}

	if !e.Rating.IsValid() {
		return ErrReviewLogRatingInvalid
	}

	return nil
}
