package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Note-specific validation errors
var (
	// ErrNoteIDEmpty is returned when a note ID is empty or nil.
	ErrNoteIDEmpty = errors.New("note ID cannot be empty")

	// ErrNoteFrontEmpty is returned when a note's front text is empty.
	ErrNoteFrontEmpty = errors.New("note front cannot be empty")
)

// Note holds the vocabulary content a card is drilled from. A note may
// optionally belong to a deck. UpdatedAt drives last-write-wins conflict
// resolution during sync.
type Note struct {
	ID        uuid.UUID  `json:"id"`
	DeckID    *uuid.UUID `json:"deck_id,omitempty"`
	Front     string     `json:"front"`
	Back      string     `json:"back"`
	Reading   string     `json:"reading,omitempty"`
	POS       string     `json:"pos,omitempty"`
	Examples  string     `json:"examples,omitempty"`
	Tags      string     `json:"tags,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewNote creates a new Note with the given content.
// It generates a new UUID for the note ID and sets the timestamps.
// Returns an error if validation fails.
func NewNote(deckID *uuid.UUID, front, back string) (*Note, error) {
	now := time.Now().UTC()
	note := &Note{
		ID:        uuid.New(),
		DeckID:    deckID,
		Front:     front,
		Back:      back,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := note.Validate(); err != nil {
		return nil, err
	}

	return note, nil
}

// Validate checks if the Note has valid data.
func (n *Note) Validate() error {
	if n.ID == uuid.Nil {
		return ErrNoteIDEmpty
	}

	if n.Front == "" {
		return ErrNoteFrontEmpty
	}

	return nil
}

// ChangedSince reports whether the note was created or updated at or after
// the given instant. Used to compute incremental sync pulls.
func (n *Note) ChangedSince(since time.Time) bool {
	return !n.UpdatedAt.Before(since) || !n.CreatedAt.Before(since)
}
