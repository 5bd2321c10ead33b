package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardNoteIDEmpty is returned when a card's note ID is empty or nil.
	ErrCardNoteIDEmpty = errors.New("card note ID cannot be empty")

	// ErrCardEaseOutOfRange is returned when a card's ease factor falls
	// outside the allowed bounds.
	ErrCardEaseOutOfRange = errors.New("card ease factor out of range")

	// ErrCardNegativeCounter is returned when reps or lapses are negative.
	ErrCardNegativeCounter = errors.New("card reps and lapses cannot be negative")

	// ErrCardIntervalWithoutDue is returned when a card carries an interval
	// but has never been scheduled.
	ErrCardIntervalWithoutDue = errors.New("card interval requires a due date")
)

// CardStatus represents the scheduling lifecycle state of a card.
type CardStatus int

// Possible card status values. A card is created New, moves between
// Learning and Review as it is rated, and Suspended removes it from
// scheduling selection entirely. A card never reverts to New.
const (
	CardStatusNew       CardStatus = 0
	CardStatusLearning  CardStatus = 1
	CardStatusReview    CardStatus = 2
	CardStatusSuspended CardStatus = 3
)

// String returns the lowercase name of the status.
func (s CardStatus) String() string {
	switch s {
	case CardStatusNew:
		return "new"
	case CardStatusLearning:
		return "learning"
	case CardStatusReview:
		return "review"
	case CardStatusSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// IsValid reports whether the status is one of the defined values.
func (s CardStatus) IsValid() bool {
	return s >= CardStatusNew && s <= CardStatusSuspended
}

// Ease factor bounds shared by the domain and the scheduler.
const (
	MinEase     = 1.3
	MaxEase     = 2.8
	DefaultEase = 2.5
)

// Card is one scheduling unit tied to a Note. DueAt and IntervalDays are
// nil until the card has been rated for the first time.
type Card struct {
	ID           uuid.UUID  `json:"id"`
	NoteID       uuid.UUID  `json:"note_id"`
	DueAt        *time.Time `json:"due_at,omitempty"`
	IntervalDays *float64   `json:"interval_days,omitempty"`
	Ease         float64    `json:"ease"`
	Reps         int        `json:"reps"`
	Lapses       int        `json:"lapses"`
	Status       CardStatus `json:"status"`
	LastReviewAt *time.Time `json:"last_review_at,omitempty"`
}

// NewCard creates a new, never-scheduled Card for the given note.
func NewCard(noteID uuid.UUID) (*Card, error) {
	card := &Card{
		ID:     uuid.New(),
		NoteID: noteID,
		Ease:   DefaultEase,
		Status: CardStatusNew,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.NoteID == uuid.Nil {
		return ErrCardNoteIDEmpty
	}

	if c.Ease < MinEase || c.Ease > MaxEase {
		return ErrCardEaseOutOfRange
	}

	if c.Reps < 0 || c.Lapses < 0 {
		return ErrCardNegativeCounter
	}

	if c.IntervalDays != nil && c.DueAt == nil {
		return ErrCardIntervalWithoutDue
	}

	return nil
}

// Scheduled reports whether the card has ever been rated.
func (c *Card) Scheduled() bool {
	return c.DueAt != nil
}

// ChangedSince reports whether the card's scheduling state changed at or
// after the given instant, based on the later of its last review and its
// due date. Used to compute incremental sync pulls.
func (c *Card) ChangedSince(since time.Time) bool {
	if c.LastReviewAt != nil && !c.LastReviewAt.Before(since) {
		return true
	}
	if c.DueAt != nil && !c.DueAt.Before(since) {
		return true
	}
	return false
}
