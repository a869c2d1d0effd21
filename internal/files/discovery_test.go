package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestFindFilesByPattern(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "raw", "2024-03-04.csv"))
	touch(t, filepath.Join(base, "raw", "2024-03-01.csv.gz"))
	touch(t, filepath.Join(base, "raw", "notes.txt"))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "raw", "sub.csv"), 0755))

	d := NewDiscovery(base)
	files, err := d.FindFilesByPattern("raw", "*.csv*")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "2024-03-01.csv.gz", files[0].Name)
	assert.Equal(t, "2024-03-04.csv", files[1].Name)
	assert.Equal(t, int64(1), files[0].Size)

	abs, err := d.FindFilesByPattern(filepath.Join(base, "raw"), "*.txt")
	require.NoError(t, err)
	require.Len(t, abs, 1)
}

func TestFindFilesByPatternErrors(t *testing.T) {
	d := NewDiscovery(t.TempDir())

	_, err := d.FindFilesByPattern("missing", "*.csv")
	assert.Error(t, err)

	_, err = d.FindFilesByPattern(".", "[")
	assert.Error(t, err)
}

func TestTradingDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// 02:30 UTC on the 6th is still the 5th in New York.
	mtime := time.Date(2024, 3, 6, 2, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		file       string
		wantDay    string
		wantSource DaySource
	}{
		{"dashed", "2024-03-01.csv", "2024-03-01", DayFromName},
		{"compact", "20240301.csv.gz", "2024-03-01", DayFromName},
		{"embedded", "taq_quotes_2024-03-01_full.csv", "2024-03-01", DayFromName},
		{"invalid date falls back", "2024-13-45.csv", "2024-03-05", DayFromModTime},
		{"no date", "quotes.csv", "2024-03-05", DayFromModTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day, source := TradingDay(FileInfo{Name: tt.file, ModTime: mtime}, loc)
			assert.Equal(t, tt.wantDay, day.Format("2006-01-02"))
			assert.Equal(t, tt.wantSource, source)
			assert.Equal(t, 0, day.Hour())
			assert.Equal(t, loc, day.Location())
		})
	}
}

func TestStem(t *testing.T) {
	assert.Equal(t, "2024-03-01", Stem("/data/raw/2024-03-01.csv.gz"))
	assert.Equal(t, "2024-03-01", Stem("2024-03-01.csv"))
	assert.Equal(t, "quotes", Stem("quotes"))
}

func TestStat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "20240301.csv")
	touch(t, path)

	info, err := Stat(path)
	require.NoError(t, err)
	assert.Equal(t, "20240301.csv", info.Name)

	_, err = Stat(dir)
	assert.Error(t, err)
}
