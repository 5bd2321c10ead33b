package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRating is returned when a rating value is outside 1-4 or does
// not match a known rating name.
var ErrInvalidRating = errors.New("invalid rating")

// Rating represents the reviewer's answer to a card.
type Rating int

// Possible rating values, ordered from failure to easiest recall.
const (
	RatingAgain Rating = 1
	RatingHard  Rating = 2
	RatingGood  Rating = 3
	RatingEasy  Rating = 4
)

// String returns the uppercase name of the rating.
func (r Rating) String() string {
	switch r {
	case RatingAgain:
		return "AGAIN"
	case RatingHard:
		return "HARD"
	case RatingGood:
		return "GOOD"
	case RatingEasy:
		return "EASY"
	default:
		return fmt.Sprintf("Rating(%d)", int(r))
	}
}

// IsValid reports whether the rating is one of the four defined values.
func (r Rating) IsValid() bool {
	return r >= RatingAgain && r <= RatingEasy
}

// ParseRating coerces a client-supplied rating into a Rating. It accepts
// the integer values 1-4 (also as digit strings) and the case-insensitive
// names AGAIN, HARD, GOOD and EASY. Anything else is rejected with
// ErrInvalidRating.
func ParseRating(raw string) (Rating, error) {
	s := strings.TrimSpace(raw)

	if n, err := strconv.Atoi(s); err == nil {
		r := Rating(n)
		if !r.IsValid() {
			return 0, fmt.Errorf("%w: %d", ErrInvalidRating, n)
		}
		return r, nil
	}

	switch strings.ToUpper(s) {
	case "AGAIN":
		return RatingAgain, nil
	case "HARD":
		return RatingHard, nil
	case "GOOD":
		return RatingGood, nil
	case "EASY":
		return RatingEasy, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidRating, raw)
	}
}
