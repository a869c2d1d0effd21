package ofi

import "time"

// floorTo truncates t to a multiple of step counted from local midnight
func floorTo(t time.Time, step time.Duration) time.Time {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return midnight.Add(t.Sub(midnight) / step * step)
}

// Resample keeps the last row of each step-wide bucket, labelled with the
// bucket start. Empty buckets produce no row.
func Resample(tob []TOBRow, step time.Duration) []TOBRow {
	if step <= 0 || len(tob) == 0 {
		return nil
	}
	out := make([]TOBRow, 0, len(tob))
	for i, r := range tob {
		bucket := floorTo(r.Time, step)
		if i+1 < len(tob) && floorTo(tob[i+1].Time, step).Equal(bucket) {
			continue
		}
		r.Time = bucket
		out = append(out, r)
	}
	return out
}
