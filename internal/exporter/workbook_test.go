package exporter

import (
	"bytes"
	"io"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/panel"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/regression"
)

func bytesWithoutBOM(data []byte) io.Reader {
	return bytes.NewReader(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
}

func TestWorkbookWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "batch.xlsx")
	report := Report{
		Summary: panel.Summary{
			RunID: "run-1", Days: 1, Rows: 2,
			ShareBetaPositive: 0.5,
			MeanR2:            0.25,
			CorrBetaMeanDepth: panel.JSONFloat(math.NaN()),
		},
		Days: []panel.DayRow{
			{Symbol: "AAPL", Day: "2024-03-01", Result: regression.Result{Alpha: 0, Beta: 2, SEBeta: 0.1, R2: 0.5, N: 100}, MeanDepth: 10, OFIScale: 1},
			{Symbol: "MSFT", Day: "2024-03-01", Result: regression.Result{Alpha: math.NaN(), Beta: math.NaN(), SEBeta: math.NaN(), R2: math.NaN(), N: 1, Note: regression.NoteInsufficient}, MeanDepth: 5, OFIScale: math.NaN()},
		},
		HalfHour: []panel.HalfHourRow{
			{Symbol: "AAPL", Day: "2024-03-01", HalfHourStart: "2024-03-01 09:30:00-05:00", Result: regression.Result{Beta: 1, N: 171}, MeanDepth: 9},
		},
		Profile: []panel.ProfileRow{
			{Clock: "09:30", Bins: 1, Fitted: 1, MeanBeta: 1, MeanR2: 0, MeanDepth: 9},
		},
	}

	require.NoError(t, NewWorkbookWriter(nil).Write(path, report))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetDayPanel, SheetHalfHourPanel, SheetProfile}, f.GetSheetList())

	days, err := f.GetRows(SheetDayPanel)
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, DayPanelHeaders, days[0])
	assert.Equal(t, "AAPL", days[1][0])
	assert.Equal(t, "2", days[1][3])
	assert.Equal(t, "", days[2][3], "missing beta is a blank cell")
	assert.Equal(t, regression.NoteInsufficient, days[2][7])

	runID, err := f.GetCellValue(SheetSummary, "B1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", runID)
	corr, err := f.GetCellValue(SheetSummary, "B6")
	require.NoError(t, err)
	assert.Equal(t, "", corr)

	profile, err := f.GetRows(SheetProfile)
	require.NoError(t, err)
	require.Len(t, profile, 2)
	assert.Equal(t, "09:30", profile[1][0])
}
