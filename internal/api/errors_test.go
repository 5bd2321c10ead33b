package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kioku-srs/kioku-api/internal/service/planner"
	"github.com/kioku-srs/kioku-api/internal/service/study"
	"github.com/kioku-srs/kioku-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "card not found", err: store.ErrCardNotFound, want: http.StatusNotFound},
		{name: "note not found", err: store.ErrNoteNotFound, want: http.StatusNotFound},
		{name: "plan item not found", err: planner.ErrItemNotFound, want: http.StatusNotFound},
		{name: "duplicate", err: store.ErrDuplicate, want: http.StatusConflict},
		{name: "nothing showing", err: study.ErrNothingShowing, want: http.StatusConflict},
		{name: "invalid entity", err: store.ErrInvalidEntity, want: http.StatusBadRequest},
		{name: "invalid rating", err: study.ErrInvalidRating, want: http.StatusBadRequest},
		{name: "invalid batch size", err: planner.ErrInvalidBatchSize, want: http.StatusBadRequest},
		{name: "nothing to study", err: study.ErrNothingToStudy, want: http.StatusNoContent},
		{name: "plan exhausted", err: planner.ErrPlanExhausted, want: http.StatusNoContent},
		{name: "unknown error", err: errors.New("boom"), want: http.StatusInternalServerError},
		{
			name: "wrapped sentinel keeps its code",
			err:  fmt.Errorf("failed to load card: %w", store.ErrCardNotFound),
			want: http.StatusNotFound,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Card not found", GetSafeErrorMessage(store.ErrCardNotFound))
	assert.Equal(t, "No card is currently showing", GetSafeErrorMessage(study.ErrNothingShowing))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	assert.Equal(t, "An unexpected error occurred",
		GetSafeErrorMessage(errors.New("pq: connection refused")))
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := errors.New(
		"Key: 'BatchRequest.Size' Error:Field validation for 'Size' failed on the 'required' tag")
	assert.Equal(t, "Invalid Size: required field", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("boom")))
}
