package quotes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectTimeUnit(t *testing.T) {
	tests := []struct {
		name   string
		maxRaw int64
		want   TimeUnit
	}{
		{"seconds", 80_000, Seconds},
		{"milliseconds", 8_000_000, Milliseconds},
		{"microseconds", 8_000_000_000, Microseconds},
		{"seconds boundary", 999_999, Seconds},
		{"milliseconds boundary", 1_000_000, Milliseconds},
		{"microseconds boundary", 1_000_000_000, Microseconds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectTimeUnit(tt.maxRaw, DefaultThresholds))
		})
	}
}

func TestDetectTimeUnitCustomThresholds(t *testing.T) {
	th := UnitThresholds{SecondsBelow: 100, MillisBelow: 200}
	assert.Equal(t, Milliseconds, DetectTimeUnit(150, th))
	assert.Equal(t, Microseconds, DetectTimeUnit(250, th))
}

func TestNormalizeTimes(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	midnight := time.Date(2017, 1, 3, 0, 0, 0, 0, ny)

	tests := []struct {
		name string
		raw  []int64
		unit TimeUnit
	}{
		{"seconds", []int64{34_200, 34_201}, Seconds},
		{"milliseconds", []int64{34_200_000, 34_201_000}, Milliseconds},
		{"microseconds", []int64{34_200_000_000, 34_201_000_000}, Microseconds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			times, unit := NormalizeTimes(tt.raw, midnight, DefaultThresholds)
			require.Len(t, times, 2)
			assert.Equal(t, tt.unit, unit)
			assert.Equal(t, "2017-01-03T09:30:00-05:00", times[0].Format(time.RFC3339))
			assert.Equal(t, "2017-01-03T09:30:01-05:00", times[1].Format(time.RFC3339))
			assert.Equal(t, ny, times[0].Location())
		})
	}
}

func TestNormalizeTimesUsesColumnMaximum(t *testing.T) {
	// a small value in a millisecond column is still milliseconds
	midnight := time.Date(2017, 7, 3, 0, 0, 0, 0, time.UTC)
	times, unit := NormalizeTimes([]int64{500, 34_200_000}, midnight, DefaultThresholds)
	assert.Equal(t, Milliseconds, unit)
	assert.Equal(t, 500*time.Millisecond, times[0].Sub(midnight))
}

func TestNormalizeTimesEmpty(t *testing.T) {
	times, _ := NormalizeTimes(nil, time.Now(), DefaultThresholds)
	assert.Empty(t, times)
}
