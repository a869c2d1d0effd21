package quotes

import (
	"math"
	"sort"
)

// Event is one raw top-of-book observation
type Event struct {
	Symbol  string
	RawTime int64
	Bid     float64
	Ask     float64
	BidSize float64
	AskSize float64
}

// Valid reports whether every price and size is a finite number
func (e Event) Valid() bool {
	for _, v := range [...]float64{e.Bid, e.Ask, e.BidSize, e.AskSize} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Crossed reports whether the ask is strictly below the bid
func (e Event) Crossed() bool {
	return e.Ask < e.Bid
}

// Table is the content of one raw day file
type Table struct {
	Columns ColumnMap
	Events  []Event
	// Skipped counts records whose time or symbol could not be parsed
	Skipped int
}

// BySymbol groups events by symbol, keeping file order within each group
func (t *Table) BySymbol() map[string][]Event {
	groups := make(map[string][]Event)
	for _, e := range t.Events {
		groups[e.Symbol] = append(groups[e.Symbol], e)
	}
	return groups
}

// Symbols returns the distinct symbols in sorted order
func (t *Table) Symbols() []string {
	seen := make(map[string]struct{})
	for _, e := range t.Events {
		seen[e.Symbol] = struct{}{}
	}
	symbols := make([]string, 0, len(seen))
	for s := range seen {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
