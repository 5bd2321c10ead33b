package syncer

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/kioku-srs/kioku-api/internal/domain"
	"github.com/kioku-srs/kioku-api/internal/store"
)

// fakeTxRunner invokes the function with a nil transaction. The fake
// stores ignore the transaction handle entirely.
type fakeTxRunner struct{}

func (f *fakeTxRunner) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	return fn(ctx, nil)
}

// fakeDeckStore is an in-memory DeckStore.
type fakeDeckStore struct {
	decks []*domain.Deck
}

var _ store.DeckStore = (*fakeDeckStore)(nil)

func (f *fakeDeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	copied := *deck
	f.decks = append(f.decks, &copied)
	return nil
}

func (f *fakeDeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	for _, d := range f.decks {
		if d.ID == id {
			copied := *d
			return &copied, nil
		}
	}
	return nil, store.ErrDeckNotFound
}

func (f *fakeDeckStore) List(ctx context.Context) ([]*domain.Deck, error) {
	out := make([]*domain.Deck, 0, len(f.decks))
	for _, d := range f.decks {
		copied := *d
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeDeckStore) WithTx(tx *sql.Tx) store.DeckStore {
	return f
}

// fakeNoteStore is an in-memory NoteStore keyed by note ID.
type fakeNoteStore struct {
	notes map[uuid.UUID]*domain.Note
}

var _ store.NoteStore = (*fakeNoteStore)(nil)

func newFakeNoteStore() *fakeNoteStore {
	return &fakeNoteStore{notes: make(map[uuid.UUID]*domain.Note)}
}

func (f *fakeNoteStore) Create(ctx context.Context, note *domain.Note) error {
	copied := *note
	f.notes[note.ID] = &copied
	return nil
}

func (f *fakeNoteStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	note, ok := f.notes[id]
	if !ok {
		return nil, store.ErrNoteNotFound
	}
	copied := *note
	return &copied, nil
}

func (f *fakeNoteStore) Update(ctx context.Context, note *domain.Note) error {
	if _, ok := f.notes[note.ID]; !ok {
		return store.ErrNoteNotFound
	}
	copied := *note
	f.notes[note.ID] = &copied
	return nil
}

func (f *fakeNoteStore) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.notes, id)
	return nil
}

func (f *fakeNoteStore) ListUpdatedSince(ctx context.Context, since time.Time) ([]*domain.Note, error) {
	out := make([]*domain.Note, 0)
	for _, note := range f.notes {
		if note.ChangedSince(since) {
			copied := *note
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeNoteStore) WithTx(tx *sql.Tx) store.NoteStore {
	return f
}

// fakeCardStore is an in-memory CardStore covering the methods sync
// reconciliation touches.
type fakeCardStore struct {
	cards map[uuid.UUID]*domain.Card
}

var _ store.CardStore = (*fakeCardStore)(nil)

func newFakeCardStore() *fakeCardStore {
	return &fakeCardStore{cards: make(map[uuid.UUID]*domain.Card)}
}

func (f *fakeCardStore) Create(ctx context.Context, card *domain.Card) error {
	copied := *card
	f.cards[card.ID] = &copied
	return nil
}

func (f *fakeCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	card, ok := f.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	copied := *card
	return &copied, nil
}

func (f *fakeCardStore) FindNextDueOrNew(ctx context.Context, now time.Time) (*domain.Card, error) {
	return nil, store.ErrCardNotFound
}

func (f *fakeCardStore) FindDueCards(
	ctx context.Context, now time.Time, deckID *uuid.UUID, limit int,
) ([]store.CardRef, error) {
	return nil, nil
}

func (f *fakeCardStore) FindNewCards(
	ctx context.Context, deckID *uuid.UUID, limit int,
) ([]store.CardRef, error) {
	return nil, nil
}

func (f *fakeCardStore) FindLeechCards(
	ctx context.Context, lapseThreshold int, easeFloor float64, deckID *uuid.UUID, limit int,
) ([]store.CardRef, error) {
	return nil, nil
}

func (f *fakeCardStore) UpdateSchedule(ctx context.Context, card *domain.Card) error {
	if _, ok := f.cards[card.ID]; !ok {
		return store.ErrCardNotFound
	}
	copied := *card
	f.cards[card.ID] = &copied
	return nil
}

func (f *fakeCardStore) ListChangedSince(ctx context.Context, since time.Time) ([]*domain.Card, error) {
	out := make([]*domain.Card, 0)
	for _, card := range f.cards {
		if card.LastReviewAt != nil && !card.LastReviewAt.Before(since) {
			copied := *card
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return f
}

// fakeReviewLogStore is an in-memory ReviewLogStore that can simulate
// insert failures for specific card IDs.
type fakeReviewLogStore struct {
	entries   []*domain.ReviewLogEntry
	insertErr map[uuid.UUID]error
}

var _ store.ReviewLogStore = (*fakeReviewLogStore)(nil)

func newFakeReviewLogStore() *fakeReviewLogStore {
	return &fakeReviewLogStore{insertErr: make(map[uuid.UUID]error)}
}

func (f *fakeReviewLogStore) Insert(ctx context.Context, entry *domain.ReviewLogEntry) error {
	if err, ok := f.insertErr[entry.CardID]; ok {
		return err
	}
	copied := *entry
	f.entries = append(f.entries, &copied)
	return nil
}

func (f *fakeReviewLogStore) ExistsByClientUUID(ctx context.Context, clientUUID string) (bool, error) {
	for _, e := range f.entries {
		if e.ClientUUID != nil && *e.ClientUUID == clientUUID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReviewLogStore) ExistsByKey(
	ctx context.Context, cardID uuid.UUID, reviewedAt time.Time, rating domain.Rating,
) (bool, error) {
	for _, e := range f.entries {
		if e.CardID == cardID && e.ReviewedAt.Equal(reviewedAt) && e.Rating == rating {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReviewLogStore) ListByCard(
	ctx context.Context, cardID uuid.UUID, limit int,
) ([]*domain.ReviewLogEntry, error) {
	out := make([]*domain.ReviewLogEntry, 0)
	for _, e := range f.entries {
		if e.CardID == cardID {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeReviewLogStore) WithTx(tx *sql.Tx) store.ReviewLogStore {
	return f
}
