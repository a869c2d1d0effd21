package exporter

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

var symbolReplacer = strings.NewReplacer("/", "_", "\\", "_")

// SafeSymbol makes a symbol usable as a file name
func SafeSymbol(symbol string) string {
	return symbolReplacer.Replace(symbol)
}

// TimeSeriesPath is the artifact location for one symbol-day
func TimeSeriesPath(outDir, day, symbol string) string {
	return filepath.Join(outDir, "timeseries", day, SafeSymbol(symbol)+".parquet")
}

// RegressionsDir holds the panel artifacts and the batch summary
func RegressionsDir(outDir string) string {
	return filepath.Join(outDir, "regressions")
}

// formatFloat renders v for text outputs; missing values are empty
func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// optional converts a float into a parquet OPTIONAL value
func optional(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func fromOptional(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}
