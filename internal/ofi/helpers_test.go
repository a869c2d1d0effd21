package ofi

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/calendar"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/config"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/quotes"
)

func testVenue(t *testing.T) *calendar.Venue {
	t.Helper()
	cfg := config.Default().Venue
	cfg.MIC = ""
	v, err := calendar.NewVenue(cfg, nil)
	require.NoError(t, err)
	return v
}

func testSpec(t *testing.T) GridSpec {
	return GridSpec{Venue: testVenue(t), Frequency: time.Second, Thresholds: quotes.DefaultThresholds}
}

func testDay(t *testing.T, v *calendar.Venue) time.Time {
	t.Helper()
	day, err := v.ParseDay("2017-01-03")
	require.NoError(t, err)
	return day
}

// tobSeries builds consecutive one-second rows from parallel slices
func tobSeries(start time.Time, bid, ask, bidSz, askSz []float64) []TOBRow {
	rows := make([]TOBRow, len(bid))
	for i := range bid {
		rows[i] = TOBRow{
			Time:    start.Add(time.Duration(i) * time.Second),
			Bid:     bid[i],
			Ask:     ask[i],
			BidSize: bidSz[i],
			AskSize: askSz[i],
		}
	}
	return rows
}

// randomWalkTOB simulates n one-second quotes with a one-cent spread
func randomWalkTOB(rng *rand.Rand, start time.Time, n int) []TOBRow {
	rows := make([]TOBRow, n)
	bid := 100.0
	for i := range rows {
		switch rng.Intn(3) {
		case 0:
			bid -= 0.01
		case 1:
			bid += 0.01
		}
		bid = math.Round(bid*100) / 100
		rows[i] = TOBRow{
			Time:    start.Add(time.Duration(i) * time.Second),
			Bid:     bid,
			Ask:     math.Round((bid+0.01)*100) / 100,
			BidSize: float64(100 + rng.Intn(400)),
			AskSize: float64(100 + rng.Intn(400)),
		}
	}
	return rows
}
