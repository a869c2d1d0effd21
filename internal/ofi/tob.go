package ofi

import (
	"sort"
	"time"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/quotes"
)

type stamped struct {
	at time.Time
	e  quotes.Event
}

// BuildTOB places one symbol's events for day on the regular session grid.
//
// The raw time unit is detected over all of the symbol's events. Events
// with a non-finite price or size and crossed events (ask < bid) are
// dropped, then events are ordered by time keeping the last one per
// timestamp. Each grid point from session open to close inclusive takes
// the latest event at or before it; grid points before the first event in
// the session are omitted. With no usable events the result is empty.
func BuildTOB(events []quotes.Event, day time.Time, spec GridSpec) ([]TOBRow, GridStats) {
	stats := GridStats{Events: len(events)}
	if len(events) == 0 || spec.Frequency <= 0 {
		return nil, stats
	}

	raw := make([]int64, len(events))
	for i, e := range events {
		raw[i] = e.RawTime
	}
	times, unit := quotes.NormalizeTimes(raw, spec.Venue.Midnight(day), spec.Thresholds)
	stats.Unit = unit

	kept := make([]stamped, 0, len(events))
	for i, e := range events {
		switch {
		case !e.Valid():
			stats.Invalid++
		case e.Crossed():
			stats.Crossed++
		default:
			kept = append(kept, stamped{at: times[i], e: e})
		}
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].at.Before(kept[j].at) })
	deduped := kept[:0]
	for i := range kept {
		if i+1 < len(kept) && kept[i+1].at.Equal(kept[i].at) {
			stats.Duplicates++
			continue
		}
		deduped = append(deduped, kept[i])
	}

	open, closing := spec.Venue.SessionStart(day), spec.Venue.SessionEnd(day)
	session := deduped[:0]
	for _, s := range deduped {
		if s.at.Before(open) || s.at.After(closing) {
			stats.OutsideSession++
			continue
		}
		session = append(session, s)
	}
	if len(session) == 0 {
		return nil, stats
	}

	steps := int(closing.Sub(open)/spec.Frequency) + 1
	rows := make([]TOBRow, 0, steps)
	j := 0
	for k := 0; k < steps; k++ {
		at := open.Add(time.Duration(k) * spec.Frequency)
		for j < len(session) && !session[j].at.After(at) {
			j++
		}
		if j == 0 {
			continue
		}
		q := session[j-1].e
		rows = append(rows, TOBRow{Time: at, Bid: q.Bid, Ask: q.Ask, BidSize: q.BidSize, AskSize: q.AskSize})
	}
	return rows, stats
}
