// Package calendar describes the trading venue: its timezone, its regular
// session window and, when a MIC is configured, its holiday calendar.
package calendar

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/scmhub/calendar"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/config"
)

// DayLayout is the canonical text form of a trading day
const DayLayout = "2006-01-02"

// Venue resolves trading days to local wall-clock times
type Venue struct {
	Location *time.Location
	Open     time.Duration
	Close    time.Duration
	MIC      string
	cal      *calendar.Calendar
	logger   *slog.Logger
}

// NewVenue builds a Venue from configuration. The timezone is required;
// an unknown MIC is an error rather than a silent fallback. The holiday
// calendar covers venue.calendar_from_year through venue.calendar_to_year.
func NewVenue(cfg config.VenueConfig, logger *slog.Logger) (*Venue, error) {
	if logger == nil {
		logger = slog.Default()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	open, closing, err := cfg.SessionBounds()
	if err != nil {
		return nil, err
	}

	v := &Venue{
		Location: loc,
		Open:     open,
		Close:    closing,
		MIC:      strings.ToLower(cfg.MIC),
		logger:   logger.With("component", "venue"),
	}
	if v.MIC != "" {
		if cfg.CalendarFromYear > cfg.CalendarToYear {
			return nil, fmt.Errorf("calendar years %d-%d are reversed", cfg.CalendarFromYear, cfg.CalendarToYear)
		}
		v.cal = calendar.GetCalendar(v.MIC, cfg.CalendarFromYear, cfg.CalendarToYear)
		if v.cal == nil {
			return nil, fmt.Errorf("no trading calendar for MIC %q", v.MIC)
		}
	}
	return v, nil
}

// Midnight returns 00:00 local time on the civil date of day
func (v *Venue) Midnight(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, v.Location)
}

// SessionStart returns the session open on day
func (v *Venue) SessionStart(day time.Time) time.Time {
	return v.Midnight(day).Add(v.Open)
}

// SessionEnd returns the session close on day
func (v *Venue) SessionEnd(day time.Time) time.Time {
	return v.Midnight(day).Add(v.Close)
}

// CalendarCovers reports whether the holiday calendar spans day
func (v *Venue) CalendarCovers(day time.Time) bool {
	if v.cal == nil {
		return false
	}
	from, to := v.cal.Years()
	y := day.Year()
	return y >= from && y <= to
}

// IsTradingDay reports whether the venue holds a regular session on day.
// Without a calendar, or outside its span, only weekends are excluded.
func (v *Venue) IsTradingDay(day time.Time) bool {
	noon := v.Midnight(day).Add(12 * time.Hour)
	if v.cal != nil {
		if v.CalendarCovers(noon) {
			return v.cal.IsBusinessDay(noon)
		}
		from, to := v.cal.Years()
		v.logger.Warn("day outside holiday calendar, checking weekday only",
			slog.String("day", FormatDay(noon)),
			slog.String("mic", v.MIC),
			slog.Int("from_year", from),
			slog.Int("to_year", to))
	}
	wd := noon.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// ParseDay parses a YYYY-MM-DD trading day in the venue location
func (v *Venue) ParseDay(s string) (time.Time, error) {
	day, err := time.ParseInLocation(DayLayout, s, v.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse trading day %q: %w", s, err)
	}
	return day, nil
}

// FormatDay renders day as YYYY-MM-DD
func FormatDay(day time.Time) string {
	return day.Format(DayLayout)
}
