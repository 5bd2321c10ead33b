package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanDateOf(t *testing.T) {
	t.Parallel()

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	testCases := []struct {
		name string
		at   time.Time
		loc  *time.Location
		want time.Time
	}{
		{
			name: "utc midday",
			at:   time.Date(2025, 9, 1, 12, 30, 0, 0, time.UTC),
			loc:  time.UTC,
			want: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "late utc evening is the next day in tokyo",
			at:   time.Date(2025, 9, 1, 22, 0, 0, 0, time.UTC),
			loc:  tokyo,
			want: time.Date(2025, 9, 2, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "utc midnight boundary",
			at:   time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
			loc:  time.UTC,
			want: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, PlanDateOf(tc.at, tc.loc))
		})
	}
}

func TestPlanKindAndStatusStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "due", PlanKindDue.String())
	assert.Equal(t, "challenge", PlanKindChallenge.String())
	assert.Equal(t, "pending", PlanStatusPending.String())
	assert.Equal(t, "rolled", PlanStatusRolled.String())
	assert.Equal(t, "unknown", PlanKind(9).String())
	assert.Equal(t, "unknown", PlanStatus(9).String())
}
