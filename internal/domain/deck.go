package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrDeckNameEmpty is returned when a deck name is empty.
var ErrDeckNameEmpty = errors.New("deck name cannot be empty")

// Deck groups notes for filtered study.
type Deck struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewDeck creates a new Deck with the given name.
func NewDeck(name string) (*Deck, error) {
	if name == "" {
		return nil, ErrDeckNameEmpty
	}

	return &Deck{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}, nil
}
