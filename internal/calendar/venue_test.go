package calendar

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/config"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/shared/testutil"
)

func newTestVenue(t *testing.T, mic string) *Venue {
	t.Helper()
	cfg := config.Default().Venue
	cfg.MIC = mic
	logger, _ := testutil.NewTestLogger(t)
	v, err := NewVenue(cfg, logger)
	require.NoError(t, err)
	return v
}

func TestSessionBoundsRespectDST(t *testing.T) {
	v := newTestVenue(t, "")

	tests := []struct {
		name     string
		day      string
		openUTC  string
		closeUTC string
	}{
		{"winter (EST)", "2017-01-03", "2017-01-03T14:30:00Z", "2017-01-03T21:00:00Z"},
		{"summer (EDT)", "2017-07-03", "2017-07-03T13:30:00Z", "2017-07-03T20:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, err := v.ParseDay(tt.day)
			require.NoError(t, err)

			assert.Equal(t, tt.openUTC, v.SessionStart(day).UTC().Format(time.RFC3339))
			assert.Equal(t, tt.closeUTC, v.SessionEnd(day).UTC().Format(time.RFC3339))
		})
	}
}

func TestMidnightUsesCivilDate(t *testing.T) {
	v := newTestVenue(t, "")
	// 03:00 UTC on Jan 4 is still Jan 3 in New York, but Midnight takes
	// the civil date of the value as given.
	day := time.Date(2017, 1, 4, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, "2017-01-04T00:00:00-05:00", v.Midnight(day).Format(time.RFC3339))
}

func TestIsTradingDayWeekend(t *testing.T) {
	for _, mic := range []string{"", "xnys"} {
		v := newTestVenue(t, mic)
		sat, err := v.ParseDay("2017-01-07")
		require.NoError(t, err)
		mon, err := v.ParseDay("2017-01-09")
		require.NoError(t, err)

		assert.False(t, v.IsTradingDay(sat), "mic=%q", mic)
		assert.True(t, v.IsTradingDay(mon), "mic=%q", mic)
	}
}

func TestIsTradingDayHoliday(t *testing.T) {
	// New Year's Day 2017 was observed on Monday Jan 2
	for _, tt := range []struct {
		mic  string
		want bool
	}{{"", true}, {"xnys", false}} {
		v := newTestVenue(t, tt.mic)
		day, err := v.ParseDay("2017-01-02")
		require.NoError(t, err)
		assert.Equal(t, tt.want, v.IsTradingDay(day), "mic=%q", tt.mic)
	}
}

func TestIsTradingDayOutsideCalendarSpan(t *testing.T) {
	cfg := config.Default().Venue
	cfg.CalendarFromYear = 2021
	cfg.CalendarToYear = 2031
	logger, handler := testutil.NewTestLogger(t)
	v, err := NewVenue(cfg, logger)
	require.NoError(t, err)

	holiday, err := v.ParseDay("2017-01-02")
	require.NoError(t, err)
	sat, err := v.ParseDay("2017-01-07")
	require.NoError(t, err)

	assert.False(t, v.CalendarCovers(holiday))
	require.NotPanics(t, func() {
		assert.True(t, v.IsTradingDay(holiday))
		assert.False(t, v.IsTradingDay(sat))
	})
	testutil.AssertLogContains(t, handler, slog.LevelWarn, "day outside holiday calendar, checking weekday only")

	inSpan, err := v.ParseDay("2024-03-01")
	require.NoError(t, err)
	assert.True(t, v.CalendarCovers(inSpan))
	assert.True(t, v.IsTradingDay(inSpan))
}

func TestNewVenueRejectsUnknownMIC(t *testing.T) {
	cfg := config.Default().Venue
	cfg.MIC = "zzzz"
	_, err := NewVenue(cfg, nil)
	assert.Error(t, err)
}

func TestParseDayRejectsGarbage(t *testing.T) {
	v := newTestVenue(t, "")
	_, err := v.ParseDay("2017-13-40")
	assert.Error(t, err)
}

func TestFormatDay(t *testing.T) {
	assert.Equal(t, "2017-01-03", FormatDay(time.Date(2017, 1, 3, 15, 0, 0, 0, time.UTC)))
}
