package study

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kioku-srs/kioku-api/internal/domain"
)

// CardView is what a study client renders for the card currently showing.
type CardView struct {
	CardID   uuid.UUID         `json:"card_id"`
	NoteID   uuid.UUID         `json:"note_id"`
	Front    string            `json:"front"`
	Back     string            `json:"back"`
	Reading  string            `json:"reading,omitempty"`
	Status   domain.CardStatus `json:"status"`
	DueAt    *time.Time        `json:"due_at,omitempty"`
	FromPlan bool              `json:"from_plan"`
	Kind     *domain.PlanKind  `json:"kind,omitempty"`
}

// RateOutcome summarizes the schedule a rating produced.
type RateOutcome struct {
	CardID       uuid.UUID     `json:"card_id"`
	Rating       domain.Rating `json:"rating"`
	IntervalDays float64       `json:"interval_days"`
	Ease         float64       `json:"ease"`
	DueAt        time.Time     `json:"due_at"`
	IsLapse      bool          `json:"is_lapse"`
}

// StudyService runs a single study session: it hands out one card at a
// time, tracks which card is showing, and applies ratings to it.
//
// A session holds at most one showing card. NextCard replaces it, Rate and
// Skip consume it. Rating when nothing is showing has no effect on any
// card's schedule.
type StudyService interface {
	// NextCard picks the next card to show. In plan-driven mode (or during
	// a batch) it draws from today's pending plan items in order, falling
	// back to the due/new pool when the plan is exhausted and fallback is
	// enabled. Otherwise it draws the earliest due card, then the
	// lowest-ID new card.
	// Returns ErrNothingToStudy when no card qualifies.
	NextCard(ctx context.Context) (*CardView, error)

	// Rate applies a rating to the showing card: it reschedules the card,
	// appends a review log entry with the answer latency, and marks the
	// card's plan item done if today's plan has one. The showing slot is
	// cleared, so a second Rate without an intervening NextCard returns
	// ErrNothingShowing and changes nothing.
	Rate(ctx context.Context, rating domain.Rating) (*RateOutcome, error)

	// Skip clears the showing card without touching its schedule. When
	// markSkipped is true the card's plan item, if any, is marked skipped;
	// otherwise the item stays pending and the card can come around again.
	Skip(ctx context.Context, markSkipped bool) error

	// StartBatch begins a fixed-size batch of n cards drawn plan-first.
	// The batch counter decrements on every Rate and Skip.
	StartBatch(n int)

	// RemainingInBatch reports how many cards remain in the current batch,
	// zero when no batch is active.
	RemainingInBatch() int
}

// Common error types for StudyService
var (
	// ErrNothingToStudy indicates that no card qualifies for study.
	ErrNothingToStudy = errors.New("no cards to study")

	// ErrNothingShowing indicates that no card is currently showing.
	ErrNothingShowing = errors.New("no card is showing")

	// ErrInvalidRating indicates a rating outside the accepted range.
	ErrInvalidRating = errors.New("invalid rating")
)
