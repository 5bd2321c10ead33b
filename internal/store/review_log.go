package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/kioku-srs/kioku-api/internal/domain"
)

// ReviewLogStore defines the interface for the append-only review history.
type ReviewLogStore interface {
	// Insert appends one review log entry.
	// Returns ErrInvalidEntity if the referenced card does not exist.
	Insert(ctx context.Context, entry *domain.ReviewLogEntry) error

	// ExistsByClientUUID reports whether an entry with the given
	// client-generated idempotency key is already stored.
	ExistsByClientUUID(ctx context.Context, clientUUID string) (bool, error)

	// ExistsByKey reports whether an entry with the same card, review time
	// and rating is already stored. Used to dedup pushes that carry no
	// client UUID.
	ExistsByKey(ctx context.Context, cardID uuid.UUID, reviewedAt time.Time, rating domain.Rating) (bool, error)

	// ListByCard lists a card's review history, newest first, capped at limit.
	ListByCard(ctx context.Context, cardID uuid.UUID, limit int) ([]*domain.ReviewLogEntry, error)

	// WithTx returns a ReviewLogStore bound to the given transaction.
	WithTx(tx *sql.Tx) ReviewLogStore
}
