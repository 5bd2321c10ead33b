package planner

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
type fakeTxRunner struct {
	err error
}

func (f *fakeTxRunner) RunInTransaction(ctx context.Context, fn store.TxFn) error {
	if f.err != nil {
		return f.err
	}
	return fn(ctx, nil)
}

// storeRef shortens literal card reference lists in the tests.
type storeRef = store.CardRef

func newRef(deckID *uuid.UUID) store.CardRef {
	return store.CardRef{ID: uuid.New(), DeckID: deckID}
}

// fakeCardStore serves preset card reference sets for plan building.
type fakeCardStore struct {
	due   []store.CardRef
	leech []store.CardRef
	fresh []store.CardRef
}

var _ store.CardStore = (*fakeCardStore)(nil)

func filterRefs(refs []store.CardRef, deckID *uuid.UUID, limit int) []store.CardRef {
	out := make([]store.CardRef, 0, len(refs))
	for _, ref := range refs {
		if deckID != nil && (ref.DeckID == nil || *ref.DeckID != *deckID) {
			continue
		}
		out = append(out, ref)
		if len(out) == limit {
			break
		}
	}
	return out
}

func (f *fakeCardStore) FindDueCards(
	ctx context.Context, now time.Time, deckID *uuid.UUID, limit int,
) ([]store.CardRef, error) {
	return filterRefs(f.due, deckID, limit), nil
}

func (f *fakeCardStore) FindLeechCards(
	ctx context.Context, lapseThreshold int, easeFloor float64, deckID *uuid.UUID, limit int,
) ([]store.CardRef, error) {
	return filterRefs(f.leech, deckID, limit), nil
}

func (f *fakeCardStore) FindNewCards(
	ctx context.Context, deckID *uuid.UUID, limit int,
) ([]store.CardRef, error) {
	return filterRefs(f.fresh, deckID, limit), nil
}

func (f *fakeCardStore) Create(ctx context.Context, card *domain.Card) error {
	return nil
}

func (f *fakeCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	return nil, store.ErrCardNotFound
}

func (f *fakeCardStore) FindNextDueOrNew(ctx context.Context, now time.Time) (*domain.Card, error) {
	return nil, store.ErrCardNotFound
}

func (f *fakeCardStore) UpdateSchedule(ctx context.Context, card *domain.Card) error {
	return nil
}

func (f *fakeCardStore) ListChangedSince(ctx context.Context, since time.Time) ([]*domain.Card, error) {
	return nil, nil
}

func (f *fakeCardStore) WithTx(tx *sql.Tx) store.CardStore {
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
