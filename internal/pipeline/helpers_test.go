package pipeline

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/calendar"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/config"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/panel"
)

const quoteHeader = "sym_root,time_m,best_bid,best_ask,best_bidsiz,best_asksiz"

// sessionOpenSeconds is 09:30:00 as seconds after midnight
const sessionOpenSeconds = 34200

// syntheticDay renders a raw day: AAA walks for ten minutes after the
// open, BBB only ever has crossed quotes, and one AAA line has a bad time.
func syntheticDay(seed int64) string {
	rng := rand.New(rand.NewSource(seed))
	var b strings.Builder
	b.WriteString(quoteHeader + "\n")
	bid := 50.0
	for i := 0; i < 600; i++ {
		switch rng.Intn(3) {
		case 0:
			bid -= 0.01
		case 1:
			bid += 0.01
		}
		fmt.Fprintf(&b, "AAA,%d,%.2f,%.2f,%d,%d\n",
			sessionOpenSeconds+i, bid, bid+0.01, 100+rng.Intn(400), 100+rng.Intn(400))
		if i%100 == 0 {
			fmt.Fprintf(&b, "BBB,%d,10.05,10.00,100,100\n", sessionOpenSeconds+i)
		}
	}
	b.WriteString("AAA,not-a-time,50.00,50.01,100,100\n")
	return b.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func writeGzip(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	gz := gzip.NewWriter(f)
	_, err = io.WriteString(gz, content)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.OutputDir = filepath.Join(t.TempDir(), "results")
	cfg.Storage.PanelDB = filepath.Join(cfg.Storage.OutputDir, "regressions", "panel.db")
	cfg.Pipeline.Workers = 4
	return cfg
}

func testVenue(t *testing.T, cfg *config.Config) *calendar.Venue {
	t.Helper()
	v, err := calendar.NewVenue(cfg.Venue, nil)
	require.NoError(t, err)
	return v
}

func openStore(t *testing.T, cfg *config.Config) *panel.SQLiteStore {
	t.Helper()
	store, err := panel.OpenSQLite(context.Background(), cfg.Storage.PanelDB, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newProcessor(t *testing.T, cfg *config.Config, store panel.Store, logger *slog.Logger) *DayProcessor {
	t.Helper()
	return NewDayProcessor(cfg, testVenue(t, cfg), store, nil, logger)
}

// failingStore rejects whole-day upserts for one symbol
type failingStore struct {
	panel.Store
	symbol string
}

func (s *failingStore) UpsertDay(ctx context.Context, rows ...panel.DayRow) error {
	for _, r := range rows {
		if r.Symbol == s.symbol {
			return fmt.Errorf("disk full")
		}
	}
	return s.Store.UpsertDay(ctx, rows...)
}
