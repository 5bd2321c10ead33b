package study

import (
	"context"
	"database/sql"
	"sort"
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

// fakeCardStore is an in-memory CardStore keyed by card ID. poolOrder
// controls which card FindNextDueOrNew serves.
type fakeCardStore struct {
	cards     map[uuid.UUID]*domain.Card
	poolOrder []uuid.UUID
}

var _ store.CardStore = (*fakeCardStore)(nil)

func newFakeCardStore() *fakeCardStore {
	return &fakeCardStore{cards: make(map[uuid.UUID]*domain.Card)}
}

func (f *fakeCardStore) put(card *domain.Card) {
	copied := *card
	f.cards[card.ID] = &copied
	f.poolOrder = append(f.poolOrder, card.ID)
}

func (f *fakeCardStore) Create(ctx context.Context, card *domain.Card) error {
	f.put(card)
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
	for _, id := range f.poolOrder {
		card := f.cards[id]
		if card.Status == domain.CardStatusSuspended {
			continue
		}
		if card.DueAt == nil || !card.DueAt.After(now) {
			copied := *card
			return &copied, nil
		}
	}
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
	return nil, nil
}

func (f *fakeCardStore) WithTx(tx *sql.Tx) store.CardStore {
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
	return nil, nil
}

func (f *fakeNoteStore) WithTx(tx *sql.Tx) store.NoteStore {
	return f
}

// fakePlanStore is an in-memory PlanStore.
type fakePlanStore struct {
	items map[planKey]*domain.PlanItem
}

type planKey struct {
	date   string
	cardID uuid.UUID
}

var _ store.PlanStore = (*fakePlanStore)(nil)

func newFakePlanStore() *fakePlanStore {
	return &fakePlanStore{items: make(map[planKey]*domain.PlanItem)}
}

func keyOf(planDate time.Time, cardID uuid.UUID) planKey {
	return planKey{date: planDate.Format("2006-01-02"), cardID: cardID}
}

func (f *fakePlanStore) UpsertItem(ctx context.Context, item *domain.PlanItem) (bool, error) {
	k := keyOf(item.PlanDate, item.CardID)
	if _, ok := f.items[k]; ok {
		return false, nil
	}
	copied := *item
	f.items[k] = &copied
	return true, nil
}

func (f *fakePlanStore) dayItems(planDate time.Time) []*domain.PlanItem {
	date := planDate.Format("2006-01-02")
	out := make([]*domain.PlanItem, 0)
	for k, item := range f.items {
		if k.date == date {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNo < out[j].OrderNo })
	return out
}

func (f *fakePlanStore) ListItems(ctx context.Context, planDate time.Time) ([]*domain.PlanItem, error) {
	return f.dayItems(planDate), nil
}

func (f *fakePlanStore) ListPending(ctx context.Context, planDate time.Time) ([]*domain.PlanItem, error) {
	out := make([]*domain.PlanItem, 0)
	for _, item := range f.dayItems(planDate) {
		if item.Status == domain.PlanStatusPending {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakePlanStore) NextPending(ctx context.Context, planDate time.Time) (*domain.PlanItem, error) {
	pending, _ := f.ListPending(ctx, planDate)
	if len(pending) == 0 {
		return nil, store.ErrPlanItemNotFound
	}
	copied := *pending[0]
	return &copied, nil
}

func (f *fakePlanStore) UpdateItemStatus(
	ctx context.Context, planDate time.Time, cardID uuid.UUID, status domain.PlanStatus,
) error {
	item, ok := f.items[keyOf(planDate, cardID)]
	if !ok || item.Status != domain.PlanStatusPending {
		return store.ErrPlanItemNotFound
	}
	item.Status = status
	return nil
}

func (f *fakePlanStore) MarkAllPending(
	ctx context.Context, planDate time.Time, status domain.PlanStatus,
) (int64, error) {
	var changed int64
	for _, item := range f.dayItems(planDate) {
		if item.Status == domain.PlanStatusPending {
			item.Status = status
			changed++
		}
	}
	return changed, nil
}

func (f *fakePlanStore) MarkPendingKind(
	ctx context.Context, planDate time.Time, kind domain.PlanKind, status domain.PlanStatus,
) (int64, error) {
	var changed int64
	for _, item := range f.dayItems(planDate) {
		if item.Status == domain.PlanStatusPending && item.Kind == kind {
			item.Status = status
			changed++
		}
	}
	return changed, nil
}

func (f *fakePlanStore) MaxOrderNo(ctx context.Context, planDate time.Time) (int, error) {
	maxOrder := 0
	for _, item := range f.dayItems(planDate) {
		if item.OrderNo > maxOrder {
			maxOrder = item.OrderNo
		}
	}
	return maxOrder, nil
}

func (f *fakePlanStore) Counts(ctx context.Context, planDate time.Time) (domain.PlanCounts, error) {
	var counts domain.PlanCounts
	for _, item := range f.dayItems(planDate) {
		switch item.Status {
		case domain.PlanStatusPending:
			counts.Pending++
		case domain.PlanStatusDone:
			counts.Done++
		case domain.PlanStatusRolled:
			counts.Rolled++
		case domain.PlanStatusSkipped:
			counts.Skipped++
		}
		counts.Total++
	}
	return counts, nil
}

func (f *fakePlanStore) WithTx(tx *sql.Tx) store.PlanStore {
	return f
}

// fakeReviewLogStore is an append-only in-memory ReviewLogStore.
type fakeReviewLogStore struct {
	entries []*domain.ReviewLogEntry
}

var _ store.ReviewLogStore = (*fakeReviewLogStore)(nil)

func (f *fakeReviewLogStore) Insert(ctx context.Context, entry *domain.ReviewLogEntry) error {
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
