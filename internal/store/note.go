package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/kioku-srs/kioku-api/internal/domain"
)

// NoteStore defines the interface for note data persistence.
type NoteStore interface {
	// Create saves a new note to the store.
	// Returns validation errors if the note data is invalid.
	// Returns ErrInvalidEntity if the referenced deck does not exist.
	Create(ctx context.Context, note *domain.Note) error

	// GetByID retrieves a note by its unique ID.
	// Returns ErrNoteNotFound if the note does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error)

	// Update overwrites an existing note's content and timestamps.
	// Returns ErrNoteNotFound if the note does not exist.
	Update(ctx context.Context, note *domain.Note) error

	// Delete removes a note. The schema cascades the delete to the note's
	// cards and their review logs and plan rows.
	// Returns ErrNoteNotFound if the note does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListUpdatedSince lists notes created or updated at or after the given
	// instant. A zero since lists every note.
	ListUpdatedSince(ctx context.Context, since time.Time) ([]*domain.Note, error)

	// WithTx returns a NoteStore bound to the given transaction.
	WithTx(tx *sql.Tx) NoteStore
}
