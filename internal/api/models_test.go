package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawValueAcceptsNumberAndString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		data string
		want RawValue
	}{
		{name: "number", data: `3`, want: "3"},
		{name: "quoted number", data: `"3"`, want: "3"},
		{name: "name", data: `"GOOD"`, want: "GOOD"},
		{name: "float", data: `3.0`, want: "3.0"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var v RawValue
			require.NoError(t, json.Unmarshal([]byte(tc.data), &v))
			assert.Equal(t, tc.want, v)
		})
	}
}

func TestMillisToTimeZeroMeansEverything(t *testing.T) {
	t.Parallel()

	assert.True(t, millisToTime(0).IsZero())

	ms := int64(1756728000000)
	assert.Equal(t, ms, millisToTime(ms).UnixMilli())
	assert.Equal(t, time.UTC, millisToTime(ms).Location())
}

func TestParseLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 50, parseLimit("", 50))
	assert.Equal(t, 25, parseLimit("25", 50))
	assert.Equal(t, 50, parseLimit("0", 50))
	assert.Equal(t, 50, parseLimit("-3", 50))
	assert.Equal(t, 50, parseLimit("abc", 50))
}
