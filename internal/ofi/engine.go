package ofi

import "math"

// BidContribution is the bid side's share of the OFI increment.
// A higher bid adds the new size, a lower bid removes the previous size,
// and an unchanged bid adds the size change.
func BidContribution(dPrice, curSize, prevSize, dSize float64) float64 {
	switch {
	case dPrice > 0:
		return curSize
	case dPrice < 0:
		return -prevSize
	default:
		return dSize
	}
}

// AskContribution is the ask side's share of the OFI increment.
// A higher ask removes the previous size, a lower ask removes the new
// size, and an unchanged ask subtracts the size change.
func AskContribution(dPrice, curSize, prevSize, dSize float64) float64 {
	switch {
	case dPrice > 0:
		return -prevSize
	case dPrice < 0:
		return -curSize
	default:
		return -dSize
	}
}

// Compute derives depth, mid, OFI and the mid change in basis points for
// each grid point. Mid changes with a magnitude above outlierBps, or
// following a zero mid, are left missing. The normalization fields are
// missing until Normalize runs.
func Compute(tob []TOBRow, outlierBps float64) []Row {
	rows := make([]Row, len(tob))
	for i, cur := range tob {
		r := Row{
			TOBRow:        cur,
			Depth:         cur.BidSize + cur.AskSize,
			Mid:           (cur.Bid + cur.Ask) / 2,
			DMidBps:       nan,
			DepthRoll:     nan,
			NormalizedOFI: nan,
		}

		if i > 0 {
			prev := tob[i-1]
			r.OFI = BidContribution(cur.Bid-prev.Bid, cur.BidSize, prev.BidSize, cur.BidSize-prev.BidSize) +
				AskContribution(cur.Ask-prev.Ask, cur.AskSize, prev.AskSize, cur.AskSize-prev.AskSize)

			prevMid := rows[i-1].Mid
			if prevMid != 0 {
				bps := 1e4 * (r.Mid/prevMid - 1)
				if !math.IsNaN(bps) && math.Abs(bps) <= outlierBps {
					r.DMidBps = bps
				}
			}
		}
		rows[i] = r
	}
	return rows
}
