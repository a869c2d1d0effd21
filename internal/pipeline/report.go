package pipeline

import (
	"time"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/files"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/panel"
)

// Symbol processing stages named in failures
const (
	StageCompute  = "compute"
	StageArtifact = "artifact"
	StagePanel    = "panel"
)

// SymbolFailure records one symbol that did not complete
type SymbolFailure struct {
	Symbol string
	Stage  string
	Err    error
}

func (f SymbolFailure) Error() string {
	return f.Symbol + " (" + f.Stage + "): " + f.Err.Error()
}

func (f SymbolFailure) Unwrap() error { return f.Err }

// DayReport describes one processed raw day file
type DayReport struct {
	File       string
	Day        string
	DaySource  files.DaySource
	TradingDay bool

	Events        int
	SkippedEvents int
	Symbols       int

	// Results holds the whole-day row of every symbol that completed
	Results      []panel.DayRow
	HalfHourRows int
	Artifacts    []string
	Failures     []SymbolFailure
	Duration     time.Duration
}

// Failed reports whether any symbol failed
func (r *DayReport) Failed() bool {
	return len(r.Failures) > 0
}

// FileFailure is a raw file the batch could not process
type FileFailure struct {
	File string
	Err  error
}

// BatchReport is the outcome of Batch.Run
type BatchReport struct {
	RunID        string
	Days         []*DayReport
	FailedFiles  []FileFailure
	Summary      panel.Summary
	SummaryPath  string
	WorkbookPath string
	Duration     time.Duration
}
