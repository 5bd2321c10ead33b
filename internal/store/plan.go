package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/kioku-srs/kioku-api/internal/domain"
)

// PlanStore defines the interface for daily plan persistence. Rows are
// unique per (plan date, card); all write operations preserve that key.
type PlanStore interface {
	// UpsertItem inserts a plan row if no row exists for the item's
	// (plan date, card) key. An existing row is left untouched, so
	// rebuilding a plan mid-day never duplicates a row, resets its status,
	// or reclassifies its kind. Reports whether a row was inserted.
	UpsertItem(ctx context.Context, item *domain.PlanItem) (bool, error)

	// ListItems lists a day's plan rows ordered by order number ascending.
	ListItems(ctx context.Context, planDate time.Time) ([]*domain.PlanItem, error)

	// ListPending lists a day's Pending rows ordered by order number ascending.
	ListPending(ctx context.Context, planDate time.Time) ([]*domain.PlanItem, error)

	// NextPending retrieves the lowest-order Pending row for the day.
	// Returns ErrPlanItemNotFound if none remain.
	NextPending(ctx context.Context, planDate time.Time) (*domain.PlanItem, error)

	// UpdateItemStatus transitions the Pending row for (planDate, cardID)
	// to the given status. Rows already in a terminal status are left
	// alone. Returns ErrPlanItemNotFound if no Pending row exists.
	UpdateItemStatus(ctx context.Context, planDate time.Time, cardID uuid.UUID, status domain.PlanStatus) error

	// MarkAllPending transitions every Pending row of the day to the given
	// status, returning the number of rows changed.
	MarkAllPending(ctx context.Context, planDate time.Time, status domain.PlanStatus) (int64, error)

	// MarkPendingKind transitions every Pending row of the day with the
	// given kind to the given status, returning the number of rows changed.
	MarkPendingKind(ctx context.Context, planDate time.Time, kind domain.PlanKind, status domain.PlanStatus) (int64, error)

	// MaxOrderNo returns the highest order number of the day, or zero when
	// the day has no rows.
	MaxOrderNo(ctx context.Context, planDate time.Time) (int, error)

	// Counts aggregates the day's rows by status.
	Counts(ctx context.Context, planDate time.Time) (domain.PlanCounts, error)

	// WithTx returns a PlanStore bound to the given transaction.
	WithTx(tx *sql.Tx) PlanStore
}
