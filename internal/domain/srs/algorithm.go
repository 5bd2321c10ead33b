// Package srs implements the spaced-repetition scheduling algorithm: a pure
// function from (current schedule, rating) to (new schedule). It performs no
// I/O and holds no state beyond its parameters.
package srs

import (
	"github.com/kioku-srs/kioku-api/internal/domain"
)

// Result is the outcome of scheduling one review.
type Result struct {
	// IntervalDays is the new review interval. AGAIN produces a
	// sub-day interval (ten minutes expressed in days).
	IntervalDays float64

	// Ease is the adjusted ease factor, clamped into the configured bounds.
	Ease float64

	// IsLapse is true when the reviewer failed to recall (AGAIN).
	IsLapse bool
}

// Schedule computes the next interval and ease for a card given its prior
// schedule and the reviewer's rating. A prior interval of zero models a card
// that has never been reviewed (nil interval upstream); the first exposure
// seeds the interval instead of multiplying it.
func (p *Params) Schedule(priorEase, priorIntervalDays float64, rating domain.Rating) Result {
	switch rating {
	case domain.RatingAgain:
		return Result{
			IntervalDays: float64(p.AgainReviewMinutes) / (24 * 60),
			Ease:         p.clampEase(priorEase + p.AgainEaseDelta),
			IsLapse:      true,
		}

	case domain.RatingHard:
		interval := 1.0
		if priorIntervalDays > 0 {
			interval = priorIntervalDays * p.HardIntervalFactor
		}
		return Result{
			IntervalDays: max(1.0, interval),
			Ease:         p.clampEase(priorEase + p.HardEaseDelta),
		}

	case domain.RatingEasy:
		interval := p.FirstEasyIntervalDays
		if priorIntervalDays > 0 {
			interval = priorIntervalDays * priorEase * p.EasyBonus
		}
		return Result{
			IntervalDays: max(1.0, interval),
			Ease:         p.clampEase(priorEase + p.EasyEaseDelta),
		}

	default: // GOOD
		interval := p.FirstGoodIntervalDays
		if priorIntervalDays > 0 {
			interval = priorIntervalDays * priorEase
		}
		return Result{
			IntervalDays: max(1.0, interval),
			Ease:         p.clampEase(priorEase + p.GoodEaseDelta),
		}
	}
}

// StatusForInterval derives the card status implied by a scheduled
// interval: Review above the threshold, Learning at or below it. The
// comparison is epsilon-guarded so the 0.99-day boundary cannot flip on
// floating-point rounding.
func (p *Params) StatusForInterval(intervalDays float64) domain.CardStatus {
	if intervalDays > p.ReviewThresholdDays+Epsilon {
		return domain.CardStatusReview
	}
	return domain.CardStatusLearning
}

// IsLeechEase reports whether an ease factor is at the leech floor.
func (p *Params) IsLeechEase(ease float64) bool {
	return ease <= p.MinEase+Epsilon
}
