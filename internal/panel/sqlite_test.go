package panel

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/regression"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "regressions", "panel.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func fitted(beta float64, n int) regression.Result {
	return regression.Result{Alpha: 0.1, Beta: beta, SEBeta: 0.05, R2: 0.2, N: n}
}

func degenerateResult(n int) regression.Result {
	return regression.FitOLS(make([]float64, n), make([]float64, n), 10)
}

func TestUpsertDayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.UpsertDay(ctx,
		DayRow{Symbol: "AAPL", Day: "2017-01-03", Result: fitted(1.0, 100), MeanDepth: 500, OFIScale: 0.3},
		DayRow{Symbol: "MSFT", Day: "2017-01-03", Result: fitted(2.0, 100), MeanDepth: 900, OFIScale: 0.2},
	))
	// rerun of AAPL overwrites
	require.NoError(t, store.UpsertDay(ctx,
		DayRow{Symbol: "AAPL", Day: "2017-01-03", Result: fitted(3.0, 120), MeanDepth: 510, OFIScale: 0.4},
	))
	require.NoError(t, store.UpsertDay(ctx,
		DayRow{Symbol: "AAPL", Day: "2017-01-03", Result: fitted(3.0, 120), MeanDepth: 510, OFIScale: 0.4},
	))

	rows, err := store.DayRows(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "AAPL", rows[0].Symbol)
	assert.Equal(t, 3.0, rows[0].Beta)
	assert.Equal(t, 120, rows[0].N)
	assert.Equal(t, 510.0, rows[0].MeanDepth)
	assert.Equal(t, "MSFT", rows[1].Symbol)
}

func TestUpsertDayPreservesMissingValues(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.UpsertDay(ctx, DayRow{
		Symbol: "IBM", Day: "2017-01-04", Result: degenerateResult(3),
		MeanDepth: math.NaN(), OFIScale: math.NaN(),
	}))

	rows, err := store.DayRows(ctx, Filter{Symbol: "IBM"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.True(t, r.Degenerate())
	assert.True(t, math.IsNaN(r.Alpha))
	assert.True(t, math.IsNaN(r.R2))
	assert.True(t, math.IsNaN(r.MeanDepth))
	assert.Equal(t, 3, r.N)
	assert.Equal(t, regression.NoteInsufficient, r.Note)
}

func TestUpsertHalfHourKeyIncludesBinStart(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	bins := []HalfHourRow{
		{Symbol: "AAPL", Day: "2017-01-03", HalfHourStart: "2017-01-03 09:30:00-05:00", Result: fitted(1, 171), MeanDepth: 10},
		{Symbol: "AAPL", Day: "2017-01-03", HalfHourStart: "2017-01-03 10:00:00-05:00", Result: fitted(2, 180), MeanDepth: 11},
	}
	require.NoError(t, store.UpsertHalfHour(ctx, bins...))
	bins[1].Beta = 5
	require.NoError(t, store.UpsertHalfHour(ctx, bins...))

	rows, err := store.HalfHourRows(ctx, Filter{Symbol: "AAPL", Day: "2017-01-03"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2017-01-03 09:30:00-05:00", rows[0].HalfHourStart)
	assert.Equal(t, 5.0, rows[1].Beta)

	none, err := store.HalfHourRows(ctx, Filter{Day: "2017-01-04"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "panel.db")

	store, err := OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	require.NoError(t, store.UpsertDay(ctx, DayRow{Symbol: "AAPL", Day: "2017-01-03", Result: fitted(1, 50)}))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLite(ctx, path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	rows, err := reopened.DayRows(ctx, Filter{Day: "2017-01-03"})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
