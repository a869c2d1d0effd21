package exporter

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/panel"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/regression"
)

func TestWriteCSV(t *testing.T) {
	tests := []struct {
		name    string
		options WriteOptions
		wantBOM bool
	}{
		{
			name:    "headers and records",
			options: WriteOptions{Headers: []string{"a", "b"}, Records: [][]string{{"1", "2"}}},
		},
		{
			name:    "with BOM",
			options: WriteOptions{Headers: []string{"a"}, Records: [][]string{{"x"}}, BOMPrefix: true},
			wantBOM: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "out.csv")
			require.NoError(t, NewCSVWriter(nil).WriteCSV(path, tt.options))

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			hasBOM := len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF
			assert.Equal(t, tt.wantBOM, hasBOM)
		})
	}
}

func TestWriteDayPanelCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "day.csv")
	rows := []panel.DayRow{{
		Symbol: "AAPL", Day: "2024-03-01",
		Result: regression.Result{
			Alpha: math.NaN(), Beta: math.NaN(), SEBeta: math.NaN(), R2: math.NaN(),
			N: 1, Note: regression.NoteInsufficient,
		},
		MeanDepth: 10, OFIScale: math.NaN(),
	}}
	require.NoError(t, NewCSVWriter(nil).WriteDayPanel(path, rows))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	bom := make([]byte, 3)
	_, err = file.Read(bom)
	require.NoError(t, err)

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, DayPanelHeaders, records[0])
	assert.Equal(t, []string{"AAPL", "2024-03-01", "", "", "", "", "1", regression.NoteInsufficient, "10", ""}, records[1])
}

func TestWriteHalfHourPanelCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "halfhour.csv")
	rows := []panel.HalfHourRow{{
		Symbol: "AAPL", Day: "2024-03-01", HalfHourStart: "2024-03-01 10:00:00-05:00",
		Result:    regression.Result{Alpha: 0.5, Beta: 2, SEBeta: 0.25, R2: 0.3, N: 180},
		MeanDepth: 42,
	}}
	require.NoError(t, NewCSVWriter(nil).WriteHalfHourPanel(path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := csv.NewReader(bytesWithoutBOM(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"AAPL", "2024-03-01", "2024-03-01 10:00:00-05:00", "0.5", "2", "0.25", "0.3", "180", "", "42"}, records[1])
}
