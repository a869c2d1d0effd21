package ofi

import (
	"time"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/regression"
)

// RegressDay fits d_mid_bps on normalized OFI over the whole series and
// adds mean depth and the OFI scale (population std of OFI over the mean
// rolling depth).
func RegressDay(rows []Row, minObs int) DayResult {
	x := make([]float64, len(rows))
	y := make([]float64, len(rows))
	depth := make([]float64, len(rows))
	ofi := make([]float64, len(rows))
	roll := make([]float64, len(rows))
	for i, r := range rows {
		x[i], y[i] = r.NormalizedOFI, r.DMidBps
		depth[i], ofi[i], roll[i] = r.Depth, r.OFI, r.DepthRoll
	}

	return DayResult{
		Result:    regression.FitOLS(x, y, minObs),
		MeanDepth: regression.Mean(depth),
		OFIScale:  regression.Ratio(regression.PopStd(ofi), regression.Mean(roll)),
	}
}

// RegressHalfHours resamples the grid to hp.Frequency, recomputes and
// normalizes OFI on the coarser grid and fits one regression per hp.Bin
// window, in time order.
func RegressHalfHours(tob []TOBRow, p Params, hp HalfHourParams) []HalfHourResult {
	coarse := Resample(tob, hp.Frequency)
	if len(coarse) == 0 {
		return nil
	}

	rows := Compute(coarse, p.OutlierBps)
	minPeriods := hp.MinPeriods
	if hp.Frequency == time.Second {
		minPeriods = p.NormMinPeriods
	}
	Normalize(rows, p.NormWindow, minPeriods)

	var results []HalfHourResult
	start := 0
	for start < len(rows) {
		bin := floorTo(rows[start].Time, hp.Bin)
		end := start + 1
		for end < len(rows) && floorTo(rows[end].Time, hp.Bin).Equal(bin) {
			end++
		}

		group := rows[start:end]
		x := make([]float64, len(group))
		y := make([]float64, len(group))
		depth := make([]float64, len(group))
		for i, r := range group {
			x[i], y[i], depth[i] = r.NormalizedOFI, r.DMidBps, r.Depth
		}
		results = append(results, HalfHourResult{
			Start:     bin,
			Result:    regression.FitOLS(x, y, p.MinObservations),
			MeanDepth: regression.Mean(depth),
		})
		start = end
	}
	return results
}
