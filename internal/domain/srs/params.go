package srs

// Epsilon guards the floating-point threshold comparisons in the scheduler
// (leech ease, review status boundary) so boundary cards classify the same
// way regardless of platform rounding.
const Epsilon = 1e-9

// Params defines all configurable parameters for the scheduling algorithm.
type Params struct {
	// Ease factor bounds; every adjustment is clamped into this range.
	MinEase float64
	MaxEase float64

	// Ease adjustments per rating.
	AgainEaseDelta float64
	HardEaseDelta  float64
	GoodEaseDelta  float64
	EasyEaseDelta  float64

	// Interval growth.
	HardIntervalFactor float64 // multiplier for HARD on a reviewed card
	EasyBonus          float64 // extra multiplier for EASY on top of ease

	// Seeding intervals, in days, for a card that has never been reviewed.
	FirstGoodIntervalDays float64
	FirstEasyIntervalDays float64

	// AGAIN schedules the card this many minutes out.
	AgainReviewMinutes int

	// Intervals above this many days classify the card as Review rather
	// than Learning.
	ReviewThresholdDays float64
}

// DefaultParams returns the standard scheduling parameters.
func DefaultParams() *Params {
	return &Params{
		MinEase: 1.3,
		MaxEase: 2.8,

		AgainEaseDelta: -0.40,
		HardEaseDelta:  -0.15,
		GoodEaseDelta:  0.10,
		EasyEaseDelta:  0.15,

		HardIntervalFactor: 1.20,
		EasyBonus:          1.30,

		FirstGoodIntervalDays: 1.0,
		FirstEasyIntervalDays: 3.0,

		AgainReviewMinutes: 10,

		ReviewThresholdDays: 0.99,
	}
}

// clampEase bounds an ease factor into [MinEase, MaxEase].
func (p *Params) clampEase(ease float64) float64 {
	if ease < p.MinEase {
		return p.MinEase
	}
	if ease > p.MaxEase {
		return p.MaxEase
	}
	return ease
}
