package srs

import (
	"errors"
	"time"

	"github.com/kioku-srs/kioku-api/internal/domain"
)

// Common errors
var (
	ErrNilCard       = errors.New("card cannot be nil")
	ErrInvalidRating = errors.New("invalid rating")
)

// Service defines the interface for scheduling operations against cards.
type Service interface {
	// Schedule computes the raw scheduling result for a prior schedule
	// and a rating.
	Schedule(priorEase, priorIntervalDays float64, rating domain.Rating) (Result, error)

	// Apply computes the card's state after a review at the given instant,
	// returning a new card value and the raw result. The input card is not
	// modified.
	Apply(card *domain.Card, rating domain.Rating, now time.Time) (*domain.Card, Result, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a scheduling service with default parameters.
func NewDefaultService() Service {
	return &defaultService{params: DefaultParams()}
}

// NewServiceWithParams creates a scheduling service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{params: params}
}

// Schedule implements Service.Schedule.
func (s *defaultService) Schedule(priorEase, priorIntervalDays float64, rating domain.Rating) (Result, error) {
	if !rating.IsValid() {
		return Result{}, ErrInvalidRating
	}
	return s.params.Schedule(priorEase, priorIntervalDays, rating), nil
}

// Apply implements Service.Apply. It follows the immutable update pattern:
// the returned card is a copy with the new schedule, counters, status and
// review timestamp applied.
func (s *defaultService) Apply(card *domain.Card, rating domain.Rating, now time.Time) (*domain.Card, Result, error) {
	if card == nil {
		return nil, Result{}, ErrNilCard
	}
	if !rating.IsValid() {
		return nil, Result{}, ErrInvalidRating
	}

	priorInterval := 0.0
	if card.IntervalDays != nil {
		priorInterval = *card.IntervalDays
	}

	result := s.params.Schedule(card.Ease, priorInterval, rating)

	next := *card
	interval := result.IntervalDays
	due := now.Add(time.Duration(interval * 24 * float64(time.Hour)))
	reviewedAt := now

	next.IntervalDays = &interval
	next.DueAt = &due
	next.Ease = result.Ease
	next.Reps = card.Reps + 1
	if result.IsLapse {
		next.Lapses = card.Lapses + 1
	}
	next.Status = s.params.StatusForInterval(interval)
	next.LastReviewAt = &reviewedAt

	return &next, result, nil
}
