// Package panel stores the regression panels: one result per (symbol, day)
// and one per (symbol, day, half_hour_start). Writing a key that already
// exists replaces the stored result.
package panel

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/regression"
)

// HalfHourLayout renders half_hour_start with its UTC offset
const HalfHourLayout = "2006-01-02 15:04:05-07:00"

// DayRow is one whole-day regression
type DayRow struct {
	Symbol string
	Day    string
	regression.Result
	MeanDepth float64
	OFIScale  float64
}

// HalfHourRow is one intraday bin regression
type HalfHourRow struct {
	Symbol        string
	Day           string
	HalfHourStart string
	regression.Result
	MeanDepth float64
}

// Filter narrows panel reads; empty fields match everything
type Filter struct {
	Symbol string
	Day    string
}

// Store is the panel persistence contract. Implementations must keep at
// most one row per key and apply last-write-wins on conflicts.
type Store interface {
	UpsertDay(ctx context.Context, rows ...DayRow) error
	UpsertHalfHour(ctx context.Context, rows ...HalfHourRow) error
	DayRows(ctx context.Context, f Filter) ([]DayRow, error)
	HalfHourRows(ctx context.Context, f Filter) ([]HalfHourRow, error)
	Close() error
}

// FormatHalfHour renders a bin start for the half-hour key
func FormatHalfHour(t time.Time) string {
	return t.Format(HalfHourLayout)
}

// JSONFloat marshals NaN and infinities as null
type JSONFloat float64

// MarshalJSON implements json.Marshaler
func (f JSONFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

// UnmarshalJSON implements json.Unmarshaler; null becomes NaN
func (f *JSONFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = JSONFloat(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = JSONFloat(v)
	return nil
}
