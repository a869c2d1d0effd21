package exporter

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/ofi"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/panel"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/regression"
)

func newYork(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return loc
}

func TestTimeSeriesPath(t *testing.T) {
	tests := []struct {
		name   string
		symbol string
		want   string
	}{
		{"plain", "AAPL", filepath.Join("out", "timeseries", "2024-03-01", "AAPL.parquet")},
		{"slash", "BRK/B", filepath.Join("out", "timeseries", "2024-03-01", "BRK_B.parquet")},
		{"backslash", `BF\B`, filepath.Join("out", "timeseries", "2024-03-01", "BF_B.parquet")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeSeriesPath("out", "2024-03-01", tt.symbol))
		})
	}
}

func TestTimeSeriesRoundTrip(t *testing.T) {
	loc := newYork(t)
	start := time.Date(2024, 3, 1, 9, 30, 0, 0, loc)
	rows := []ofi.Row{
		{
			TOBRow: ofi.TOBRow{Time: start, Bid: 100, Ask: 100.02, BidSize: 5, AskSize: 7},
			Depth:  12, Mid: 100.01, OFI: 0,
			DMidBps: math.NaN(), DepthRoll: math.NaN(), NormalizedOFI: math.NaN(),
		},
		{
			TOBRow: ofi.TOBRow{Time: start.Add(time.Second), Bid: 100.01, Ask: 100.02, BidSize: 3, AskSize: 7},
			Depth:  10, Mid: 100.015, OFI: 3,
			DMidBps: 0.4999, DepthRoll: 11, NormalizedOFI: 3.0 / 11,
		},
	}

	w := NewParquetWriter(t.TempDir(), loc, nil)
	path, err := w.WriteTimeSeries("2024-03-01", "BRK/B", rows)
	require.NoError(t, err)
	assert.Equal(t, "BRK_B.parquet", filepath.Base(path))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file must be renamed away")

	got, err := ReadTimeSeries(path, loc)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.True(t, got[0].Time.Equal(start))
	assert.True(t, math.IsNaN(got[0].DMidBps))
	assert.True(t, math.IsNaN(got[0].DepthRoll))
	assert.True(t, math.IsNaN(got[0].NormalizedOFI))

	assert.True(t, got[1].Time.Equal(start.Add(time.Second)))
	assert.Equal(t, 3.0, got[1].OFI)
	assert.Equal(t, 10.0, got[1].Depth)
	assert.InDelta(t, 0.4999, got[1].DMidBps, 1e-12)
	assert.InDelta(t, 3.0/11, got[1].NormalizedOFI, 1e-12)

	// the stored venue zone is used when no location is given
	stored, err := ReadTimeSeries(path, nil)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, "America/New_York", stored[0].Time.Location().String())
	assert.Equal(t, "2024-03-01T09:30:00-05:00", stored[0].Time.Format(time.RFC3339))
}

func TestTimeSeriesWithoutLocationIsUTC(t *testing.T) {
	w := NewParquetWriter(t.TempDir(), nil, nil)
	path, err := w.WriteTimeSeries("2024-03-01", "AAA", nil)
	require.NoError(t, err)

	_, err = ReadTimeSeries(path, nil)
	require.NoError(t, err)

	var records []timeSeriesRecord
	meta, err := readAll(path, new(timeSeriesRecord), &records)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, "UTC", meta[TimezoneKey])
}

func TestPanelParquetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewParquetWriter(dir, nil, nil)

	days := []panel.DayRow{
		{
			Symbol: "AAPL", Day: "2024-03-01",
			Result:    regression.Result{Alpha: 0.1, Beta: 2.5, SEBeta: 0.3, R2: 0.4, N: 1500},
			MeanDepth: 1200, OFIScale: 0.02,
		},
		{
			Symbol: "MSFT", Day: "2024-03-01",
			Result: regression.Result{
				Alpha: math.NaN(), Beta: math.NaN(), SEBeta: math.NaN(), R2: math.NaN(),
				N: 2, Note: regression.NoteInsufficient,
			},
			MeanDepth: 800, OFIScale: math.NaN(),
		},
	}
	path, err := w.WriteDayPanel(days)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "regressions", DayPanelFile), path)

	got, err := ReadDayPanel(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "AAPL", got[0].Symbol)
	assert.Equal(t, 2.5, got[0].Beta)
	assert.Equal(t, 1500, got[0].N)
	assert.True(t, math.IsNaN(got[1].Beta))
	assert.True(t, math.IsNaN(got[1].OFIScale))
	assert.Equal(t, regression.NoteInsufficient, got[1].Note)

	halves := []panel.HalfHourRow{
		{
			Symbol: "AAPL", Day: "2024-03-01", HalfHourStart: "2024-03-01 09:30:00-05:00",
			Result:    regression.Result{Alpha: 0, Beta: 1.2, SEBeta: 0.2, R2: 0.1, N: 171},
			MeanDepth: 900,
		},
	}
	path, err = w.WriteHalfHourPanel(halves)
	require.NoError(t, err)
	gotHalves, err := ReadHalfHourPanel(path)
	require.NoError(t, err)
	require.Len(t, gotHalves, 1)
	assert.Equal(t, "2024-03-01 09:30:00-05:00", gotHalves[0].HalfHourStart)
	assert.Equal(t, 171, gotHalves[0].N)
}

func TestWriteDayPanelReplacesExistingFile(t *testing.T) {
	w := NewParquetWriter(t.TempDir(), nil, nil)
	first := []panel.DayRow{{Symbol: "A", Day: "2024-03-01"}, {Symbol: "B", Day: "2024-03-01"}}
	second := []panel.DayRow{{Symbol: "A", Day: "2024-03-01"}}

	_, err := w.WriteDayPanel(first)
	require.NoError(t, err)
	path, err := w.WriteDayPanel(second)
	require.NoError(t, err)

	got, err := ReadDayPanel(path)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReadTimeSeriesMissingFile(t *testing.T) {
	_, err := ReadTimeSeries(filepath.Join(t.TempDir(), "nope.parquet"), time.UTC)
	assert.Error(t, err)
}
