package quotes

import (
	"time"
)

// TimeUnit is the resolution of a raw intraday time column
type TimeUnit int

const (
	Seconds TimeUnit = iota
	Milliseconds
	Microseconds
)

func (u TimeUnit) String() string {
	switch u {
	case Seconds:
		return "s"
	case Milliseconds:
		return "ms"
	default:
		return "us"
	}
}

// Duration is the length of one raw tick in unit u
func (u TimeUnit) Duration() time.Duration {
	switch u {
	case Seconds:
		return time.Second
	case Milliseconds:
		return time.Millisecond
	default:
		return time.Microsecond
	}
}

// UnitThresholds classify a raw time column by its maximum value. They are
// a property of the source feed, not of time itself.
type UnitThresholds struct {
	SecondsBelow int64
	MillisBelow  int64
}

// DefaultThresholds are the TAQ feed thresholds
var DefaultThresholds = UnitThresholds{SecondsBelow: 1_000_000, MillisBelow: 1_000_000_000}

// DetectTimeUnit classifies the maximum raw time value
func DetectTimeUnit(maxRaw int64, th UnitThresholds) TimeUnit {
	switch {
	case maxRaw < th.SecondsBelow:
		return Seconds
	case maxRaw < th.MillisBelow:
		return Milliseconds
	default:
		return Microseconds
	}
}

// NormalizeTimes converts raw offsets since midnight into absolute times.
// The unit is detected once from the largest value in raw, and offsets are
// added to midnight of the venue-local civil day.
func NormalizeTimes(raw []int64, midnight time.Time, th UnitThresholds) ([]time.Time, TimeUnit) {
	if len(raw) == 0 {
		return nil, Seconds
	}

	maxRaw := raw[0]
	for _, v := range raw[1:] {
		if v > maxRaw {
			maxRaw = v
		}
	}
	unit := DetectTimeUnit(maxRaw, th)

	step := unit.Duration()
	out := make([]time.Time, len(raw))
	for i, v := range raw {
		out[i] = midnight.Add(time.Duration(v) * step)
	}
	return out, unit
}
