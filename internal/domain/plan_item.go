package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlanKind classifies why a card was added to a day's plan.
type PlanKind int

// Possible plan item kinds. Kind is immutable once set for a given
// (plan date, card) pair; rebuilding the plan never reclassifies a row.
const (
	PlanKindDue       PlanKind = 0
	PlanKindLeech     PlanKind = 1
	PlanKindNew       PlanKind = 2
	PlanKindChallenge PlanKind = 3
)

// String returns the lowercase name of the kind.
func (k PlanKind) String() string {
	switch k {
	case PlanKindDue:
		return "due"
	case PlanKindLeech:
		return "leech"
	case PlanKindNew:
		return "new"
	case PlanKindChallenge:
		return "challenge"
	default:
		return "unknown"
	}
}

// PlanStatus tracks a plan item through its day.
type PlanStatus int

// Possible plan item statuses. Rolled and Skipped are terminal for the
// item's day; a Rolled item reappears Pending in the next day's plan.
const (
	PlanStatusPending PlanStatus = 0
	PlanStatusDone    PlanStatus = 1
	PlanStatusRolled  PlanStatus = 2
	PlanStatusSkipped PlanStatus = 3
)

// String returns the lowercase name of the status.
func (s PlanStatus) String() string {
	switch s {
	case PlanStatusPending:
		return "pending"
	case PlanStatusDone:
		return "done"
	case PlanStatusRolled:
		return "rolled"
	case PlanStatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// PlanItem is one scheduled occurrence of a card in a specific day's review
// queue. Rows are unique per (PlanDate, CardID); OrderNo defines queue order.
type PlanItem struct {
	PlanDate time.Time  `json:"plan_date"`
	CardID   uuid.UUID  `json:"card_id"`
	DeckID   *uuid.UUID `json:"deck_id,omitempty"`
	Kind     PlanKind   `json:"kind"`
	Status   PlanStatus `json:"status"`
	OrderNo  int        `json:"order_no"`
}

// PlanCounts aggregates a day's plan rows by status.
type PlanCounts struct {
	Pending int `json:"pending"`
	Done    int `json:"done"`
	Rolled  int `json:"rolled"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

// PlanDateOf truncates an instant to its calendar date in the given
// location. Plan rows are keyed by this value.
func PlanDateOf(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}
