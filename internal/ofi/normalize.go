package ofi

import "math"

// rollingMean is a trailing mean over a fixed number of observations that
// ignores missing values.
type rollingMean struct {
	buf   []float64
	head  int
	size  int
	sum   float64
	count int
}

func newRollingMean(window int) *rollingMean {
	return &rollingMean{buf: make([]float64, window)}
}

// push adds v, evicting the oldest value once the window is full, and
// returns the mean of the non-missing values and how many there are.
func (r *rollingMean) push(v float64) (float64, int) {
	if r.size == len(r.buf) {
		old := r.buf[r.head]
		if !math.IsNaN(old) {
			r.sum -= old
			r.count--
		}
	} else {
		r.size++
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	if !math.IsNaN(v) {
		r.sum += v
		r.count++
	}

	if r.count == 0 {
		return nan, 0
	}
	return r.sum / float64(r.count), r.count
}

// Normalize fills DepthRoll with the trailing mean of depth over window
// rows (current row included) and NormalizedOFI with OFI / DepthRoll.
// DepthRoll is missing while fewer than minPeriods depths are available;
// NormalizedOFI is missing wherever DepthRoll is missing or zero.
func Normalize(rows []Row, window, minPeriods int) {
	if window <= 0 {
		return
	}
	rm := newRollingMean(window)
	for i := range rows {
		mean, n := rm.push(rows[i].Depth)
		rows[i].DepthRoll = nan
		rows[i].NormalizedOFI = nan
		if n < minPeriods {
			continue
		}
		rows[i].DepthRoll = mean
		if mean != 0 {
			rows[i].NormalizedOFI = rows[i].OFI / mean
		}
	}
}
