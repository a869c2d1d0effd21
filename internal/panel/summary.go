package panel

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/regression"
)

// Summary is the batch acceptance summary
type Summary struct {
	RunID             string    `json:"run_id,omitempty"`
	Days              int       `json:"days"`
	Rows              int       `json:"rows"`
	ShareBetaPositive JSONFloat `json:"share_beta_positive"`
	MeanR2            JSONFloat `json:"mean_r2"`
	CorrBetaMeanDepth JSONFloat `json:"corr_beta_mean_depth"`
}

// Summarize aggregates the whole-day rows of a batch. Degenerate rows
// count toward Rows only; the positive-beta share is taken over rows with
// an estimated beta and is NaN when there are none.
func Summarize(runID string, days int, rows []DayRow) Summary {
	s := Summary{
		RunID:             runID,
		Days:              days,
		Rows:              len(rows),
		ShareBetaPositive: JSONFloat(math.NaN()),
		MeanR2:            JSONFloat(math.NaN()),
		CorrBetaMeanDepth: JSONFloat(math.NaN()),
	}
	if len(rows) == 0 {
		return s
	}

	positive, estimated := 0, 0
	betas := make([]float64, len(rows))
	r2s := make([]float64, len(rows))
	depths := make([]float64, len(rows))
	for i, r := range rows {
		if !math.IsNaN(r.Beta) {
			estimated++
			if r.Beta > 0 {
				positive++
			}
		}
		betas[i], r2s[i], depths[i] = r.Beta, r.R2, r.MeanDepth
	}

	if estimated > 0 {
		s.ShareBetaPositive = JSONFloat(float64(positive) / float64(estimated))
	}
	s.MeanR2 = JSONFloat(regression.Mean(r2s))
	s.CorrBetaMeanDepth = JSONFloat(regression.Pearson(betas, depths))
	return s
}

// WriteSummary writes s as indented JSON, creating parent directories
func WriteSummary(path string, s Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create summary directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create summary file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

// ProfileRow averages half-hour regressions sharing a clock time
type ProfileRow struct {
	Clock     string    `json:"clock"`
	Bins      int       `json:"bins"`
	Fitted    int       `json:"fitted"`
	MeanBeta  JSONFloat `json:"mean_beta"`
	MeanR2    JSONFloat `json:"mean_r2"`
	MeanDepth JSONFloat `json:"mean_depth"`
}

// HalfHourProfile groups half-hour rows by local clock time (HH:MM) and
// averages beta, R² and depth across days and symbols. Rows with an
// unparseable start are skipped.
func HalfHourProfile(rows []HalfHourRow) []ProfileRow {
	type acc struct {
		bins             int
		betas, r2s, deps []float64
	}
	groups := make(map[string]*acc)
	for _, r := range rows {
		start, err := time.Parse(HalfHourLayout, r.HalfHourStart)
		if err != nil {
			continue
		}
		clock := start.Format("15:04")
		a, ok := groups[clock]
		if !ok {
			a = &acc{}
			groups[clock] = a
		}
		a.bins++
		a.betas = append(a.betas, r.Beta)
		a.r2s = append(a.r2s, r.R2)
		a.deps = append(a.deps, r.MeanDepth)
	}

	profile := make([]ProfileRow, 0, len(groups))
	for clock, a := range groups {
		fitted := 0
		for _, b := range a.betas {
			if !math.IsNaN(b) {
				fitted++
			}
		}
		profile = append(profile, ProfileRow{
			Clock:     clock,
			Bins:      a.bins,
			Fitted:    fitted,
			MeanBeta:  JSONFloat(regression.Mean(a.betas)),
			MeanR2:    JSONFloat(regression.Mean(a.r2s)),
			MeanDepth: JSONFloat(regression.Mean(a.deps)),
		})
	}
	sort.Slice(profile, func(i, j int) bool { return profile[i].Clock < profile[j].Clock })
	return profile
}
