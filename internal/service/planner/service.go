package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kioku-srs/kioku-api/internal/domain"
)

// PlanService builds and manages the daily review plan: the ordered set of
// cards selected for study on a given calendar date.
type PlanService interface {
	// BuildToday assembles today's plan. It carries over yesterday's
	// unfinished items first, marks them rolled on yesterday's plan, then
	// appends due, leech and new cards up to the configured limits. The
	// whole rebuild runs in a single transaction, and rebuilding mid-day
	// is safe: existing rows keep their status, kind and order.
	//
	// A non-nil deckID restricts the due, leech and new selections to that
	// deck. Carried-over items are never filtered.
	//
	// Returns the plan's aggregate counts after the rebuild.
	BuildToday(ctx context.Context, deckID *uuid.UUID) (domain.PlanCounts, error)

	// AppendChallengeBatch appends up to size extra new-sourced cards to
	// today's plan as challenge items, independent of the daily new-card
	// limit. Returns how many items were actually added.
	AppendChallengeBatch(ctx context.Context, size int) (int, error)

	// NextFromPlan retrieves today's lowest-order pending plan item.
	// Returns ErrPlanExhausted when no pending items remain.
	NextFromPlan(ctx context.Context) (*domain.PlanItem, error)

	// MarkDone transitions today's pending item for the card to done.
	// Returns ErrItemNotFound if the card has no pending item today.
	MarkDone(ctx context.Context, cardID uuid.UUID) error

	// MarkSkipped transitions today's pending item for the card to skipped.
	// Returns ErrItemNotFound if the card has no pending item today.
	MarkSkipped(ctx context.Context, cardID uuid.UUID) error

	// RollRemainingToday transitions every pending item of today's plan to
	// rolled, returning the number of items changed. Rolled items reappear
	// in the next day's plan via carry-over.
	RollRemainingToday(ctx context.Context) (int64, error)

	// ClearChallengeToday transitions today's pending challenge items to
	// skipped, returning the number of items changed.
	ClearChallengeToday(ctx context.Context) (int64, error)

	// Counts returns today's plan rows aggregated by status.
	Counts(ctx context.Context) (domain.PlanCounts, error)

	// Today returns the calendar date today's plan is keyed by, in the
	// configured timezone.
	Today() time.Time
}

// Common error types for PlanService
var (
	// ErrPlanExhausted indicates that today's plan has no pending items left.
	ErrPlanExhausted = errors.New("no pending plan items remain")

	// ErrItemNotFound indicates that the card has no pending plan item today.
	ErrItemNotFound = errors.New("plan item not found")

	// ErrInvalidBatchSize indicates a non-positive challenge batch size.
	ErrInvalidBatchSize = errors.New("batch size must be positive")
)

// ServiceError wraps errors from the plan service with the failing
// operation, so consumers can differentiate failures with errors.As
// instead of string matching.
type ServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewBuildError returns a new ServiceError for the build_today operation.
func NewBuildError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "build_today",
		Message:   message,
		Err:       err,
	}
}
