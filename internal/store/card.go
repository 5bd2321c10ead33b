package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/kioku-srs/kioku-api/internal/domain"
)

// CardRef is a lightweight reference to a card used by plan building:
// the card's ID plus the deck its note belongs to, if any.
type CardRef struct {
	ID     uuid.UUID
	DeckID *uuid.UUID
}

// CardStore defines the interface for card data persistence.
type CardStore interface {
	// Create saves a new card to the store.
	// Returns validation errors if the card data is invalid.
	Create(ctx context.Context, card *domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// FindNextDueOrNew retrieves the next card to show outside of a plan:
	// the earliest due card, falling back to the lowest-ID new card.
	// Suspended cards are never selected.
	// Returns ErrCardNotFound if no card qualifies.
	FindNextDueOrNew(ctx context.Context, now time.Time) (*domain.Card, error)

	// FindDueCards lists cards with a due date at or before now, excluding
	// suspended cards, ordered by due date ascending, capped at limit.
	// A non-nil deckID restricts the result to cards of that deck.
	FindDueCards(ctx context.Context, now time.Time, deckID *uuid.UUID, limit int) ([]CardRef, error)

	// FindNewCards lists never-scheduled cards (no due date or status New),
	// excluding suspended cards, ordered by ID ascending, capped at limit.
	FindNewCards(ctx context.Context, deckID *uuid.UUID, limit int) ([]CardRef, error)

	// FindLeechCards lists cards whose lapse count has reached lapseThreshold
	// or whose ease has collapsed to easeFloor or below, excluding suspended
	// cards, ordered by lapses descending, capped at limit.
	FindLeechCards(ctx context.Context, lapseThreshold int, easeFloor float64, deckID *uuid.UUID, limit int) ([]CardRef, error)

	// UpdateSchedule persists a card's scheduling fields (due date, interval,
	// ease, counters, status, last review time) after a rating.
	// Returns ErrCardNotFound if the card does not exist.
	UpdateSchedule(ctx context.Context, card *domain.Card) error

	// ListChangedSince lists cards whose schedule changed at or after the
	// given instant, based on the later of last review and due date.
	// A zero since lists every card.
	ListChangedSince(ctx context.Context, since time.Time) ([]*domain.Card, error)

	// WithTx returns a CardStore bound to the given transaction so that
	// multiple operations can share one transaction scope.
	WithTx(tx *sql.Tx) CardStore
}
