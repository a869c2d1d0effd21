package ofi

import (
	"math"
	"time"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/calendar"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/quotes"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/regression"
)

// TOBRow is the top of book at one grid point
type TOBRow struct {
	Time    time.Time
	Bid     float64
	Ask     float64
	BidSize float64
	AskSize float64
}

// Row is a grid point with its derived order flow fields
type Row struct {
	TOBRow
	Depth         float64
	Mid           float64
	OFI           float64
	DMidBps       float64
	DepthRoll     float64
	NormalizedOFI float64
}

// GridSpec controls how quote events are placed on the grid
type GridSpec struct {
	Venue      *calendar.Venue
	Frequency  time.Duration
	Thresholds quotes.UnitThresholds
}

// GridStats counts what BuildTOB discarded
type GridStats struct {
	Events         int
	Invalid        int
	Crossed        int
	Duplicates     int
	OutsideSession int
	Unit           quotes.TimeUnit
}

// Params are the signal and regression settings
type Params struct {
	OutlierBps      float64
	NormWindow      int
	NormMinPeriods  int
	MinObservations int
}

// HalfHourParams configure the intraday decomposition
type HalfHourParams struct {
	Frequency  time.Duration
	Bin        time.Duration
	MinPeriods int
}

// DayResult is the whole-day regression with its auxiliary statistics
type DayResult struct {
	regression.Result
	MeanDepth float64
	OFIScale  float64
}

// HalfHourResult is the regression for one intraday bin
type HalfHourResult struct {
	Start time.Time
	regression.Result
	MeanDepth float64
}

var nan = math.NaN()
