package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/calendar"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/config"
	apperrors "github.com/xecuterisaquant/replication-cont-ofi/internal/errors"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/exporter"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/files"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/infrastructure"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/ofi"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/panel"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/quotes"
)

// Regression granularities used in metrics
const (
	granularityDay      = "day"
	granularityHalfHour = "halfhour"
)

// DayProcessor turns one raw day file into artifacts and panel rows
type DayProcessor struct {
	cfg       config.PipelineConfig
	venue     *calendar.Venue
	reader    *quotes.Reader
	store     panel.Store
	artifacts *exporter.ParquetWriter
	telemetry *infrastructure.Telemetry
	logger    *slog.Logger
}

// NewDayProcessor wires a processor. A nil telemetry records nothing.
func NewDayProcessor(cfg *config.Config, venue *calendar.Venue, store panel.Store, telemetry *infrastructure.Telemetry, logger *slog.Logger) *DayProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	if telemetry == nil {
		telemetry = infrastructure.NoopTelemetry()
	}
	return &DayProcessor{
		cfg:       cfg.Pipeline,
		venue:     venue,
		reader:    quotes.NewReader(logger),
		store:     store,
		artifacts: exporter.NewParquetWriter(cfg.Storage.OutputDir, venue.Location, logger),
		telemetry: telemetry,
		logger:    infrastructure.WithComponent(logger, "day_processor"),
	}
}

// symbolResult is the pure output of one symbol's computation
type symbolResult struct {
	symbol string
	rows   []ofi.Row
	stats  ofi.GridStats
	day    ofi.DayResult
	halves []ofi.HalfHourResult
	err    error
}

// ProcessDay processes every symbol in the raw file at path. The returned
// error is non-nil when the file could not be read or its header resolved,
// when the context is cancelled, when panel materialization fails, or on
// the first symbol failure if the pipeline fails fast. Otherwise symbol
// failures are reported in DayReport.Failures.
func (p *DayProcessor) ProcessDay(ctx context.Context, path string) (*DayReport, error) {
	started := time.Now()
	ctx = infrastructure.EnsureTraceID(ctx)

	info, err := files.Stat(path)
	if err != nil {
		return nil, apperrors.NewNotFoundError("raw day file").WithContext("file", path)
	}
	day, source := files.TradingDay(info, p.venue.Location)
	dayStr := calendar.FormatDay(day)

	ctx, span := p.telemetry.Tracer.Start(ctx, "pipeline.day",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("ofi.file", info.Name),
			attribute.String("ofi.day", dayStr),
		),
	)
	defer span.End()

	logger := p.logger.With(slog.String("day", dayStr), slog.String("file", info.Name))
	report := &DayReport{
		File:       path,
		Day:        dayStr,
		DaySource:  source,
		TradingDay: p.venue.IsTradingDay(day),
	}
	if source == files.DayFromModTime {
		logger.WarnContext(ctx, "trading day not found in file name, using modification time")
	}
	if !report.TradingDay {
		logger.WarnContext(ctx, "day is not a trading day on the venue calendar")
	}

	table, err := p.reader.ReadFile(ctx, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return nil, err
	}
	report.Events = len(table.Events)
	report.SkippedEvents = table.Skipped

	symbols := table.Symbols()
	report.Symbols = len(symbols)
	logger.InfoContext(ctx, "processing day",
		slog.Int("symbols", len(symbols)),
		slog.Int("events", len(table.Events)),
		slog.Int("workers", p.cfg.Workers))

	results, err := p.computeAll(ctx, table.BySymbol(), symbols, day)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	for _, res := range results {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if failure := p.persist(ctx, dayStr, res, report); failure != nil {
			p.telemetry.Instruments.RecordSymbol(ctx, len(res.rows), true)
			logger.WarnContext(ctx, "symbol failed",
				slog.String("symbol", failure.Symbol),
				slog.String("stage", failure.Stage),
				slog.String("error", failure.Err.Error()))
			report.Failures = append(report.Failures, *failure)
			if p.cfg.FailFast {
				span.SetStatus(codes.Error, "symbol failed")
				return report, *failure
			}
			continue
		}
		p.telemetry.Instruments.RecordSymbol(ctx, len(res.rows), false)
	}

	if err := p.materialize(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "materialize failed")
		return report, err
	}

	report.Duration = time.Since(started)
	p.telemetry.Instruments.RecordDay(ctx, report.Duration)
	span.SetAttributes(
		attribute.Int("ofi.symbols", report.Symbols),
		attribute.Int("ofi.failures", len(report.Failures)),
	)
	logger.InfoContext(ctx, "day complete",
		slog.Int("symbols", report.Symbols),
		slog.Int("results", len(report.Results)),
		slog.Int("halfhour_rows", report.HalfHourRows),
		slog.Int("failures", len(report.Failures)),
		slog.Duration("duration", report.Duration))
	return report, nil
}

// computeAll runs the pure stages for every symbol and returns the results
// in symbol order
func (p *DayProcessor) computeAll(ctx context.Context, groups map[string][]quotes.Event, symbols []string, day time.Time) ([]symbolResult, error) {
	results := make([]symbolResult, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(p.cfg.Workers, 1))
	for i, symbol := range symbols {
		events := groups[symbol]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.compute(symbol, events, day)
			if results[i].err != nil && p.cfg.FailFast {
				return SymbolFailure{Symbol: symbol, Stage: StageCompute, Err: results[i].err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// compute builds the grid, the OFI series and the regressions for one
// symbol. A panic is turned into the result's error.
func (p *DayProcessor) compute(symbol string, events []quotes.Event, day time.Time) (res symbolResult) {
	res.symbol = symbol
	defer func() {
		if r := recover(); r != nil {
			res.err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()

	spec := ofi.GridSpec{
		Venue:     p.venue,
		Frequency: p.cfg.GridFrequency,
		Thresholds: quotes.UnitThresholds{
			SecondsBelow: p.cfg.SecondsBelow,
			MillisBelow:  p.cfg.MillisBelow,
		},
	}
	tob, stats := ofi.BuildTOB(events, day, spec)
	res.stats = stats

	res.rows = ofi.Compute(tob, p.cfg.OutlierBps)
	ofi.Normalize(res.rows, p.cfg.NormWindow, p.cfg.NormMinPeriods)
	res.day = ofi.RegressDay(res.rows, p.cfg.MinObservations)

	if p.cfg.HalfHour {
		res.halves = ofi.RegressHalfHours(tob, p.params(), ofi.HalfHourParams{
			Frequency:  p.cfg.HalfHourFrequency,
			Bin:        p.cfg.HalfHourBin,
			MinPeriods: p.cfg.HalfHourMinPeriods,
		})
	}
	return res
}

func (p *DayProcessor) params() ofi.Params {
	return ofi.Params{
		OutlierBps:      p.cfg.OutlierBps,
		NormWindow:      p.cfg.NormWindow,
		NormMinPeriods:  p.cfg.NormMinPeriods,
		MinObservations: p.cfg.MinObservations,
	}
}

// persist writes one symbol's outputs and records them on the report
func (p *DayProcessor) persist(ctx context.Context, day string, res symbolResult, report *DayReport) *SymbolFailure {
	ctx, span := p.telemetry.Tracer.Start(ctx, "pipeline.symbol",
		trace.WithAttributes(attribute.String("ofi.symbol", res.symbol)))
	defer span.End()

	fail := func(stage string, err error) *SymbolFailure {
		span.RecordError(err)
		span.SetStatus(codes.Error, stage)
		return &SymbolFailure{Symbol: res.symbol, Stage: stage, Err: err}
	}
	if res.err != nil {
		return fail(StageCompute, res.err)
	}

	inst := p.telemetry.Instruments
	inst.RecordDropped(ctx, "invalid", res.stats.Invalid)
	inst.RecordDropped(ctx, "crossed", res.stats.Crossed)
	inst.RecordDropped(ctx, "duplicate", res.stats.Duplicates)
	inst.RecordDropped(ctx, "outside_session", res.stats.OutsideSession)

	path, err := p.artifacts.WriteTimeSeries(day, res.symbol, res.rows)
	if err != nil {
		return fail(StageArtifact, apperrors.NewStorageError("write time series", err))
	}
	report.Artifacts = append(report.Artifacts, path)

	dayRow := panel.DayRow{
		Symbol:    res.symbol,
		Day:       day,
		Result:    res.day.Result,
		MeanDepth: res.day.MeanDepth,
		OFIScale:  res.day.OFIScale,
	}
	if err := p.store.UpsertDay(ctx, dayRow); err != nil {
		return fail(StagePanel, err)
	}
	inst.RecordRegression(ctx, granularityDay, res.day.Outcome())

	if len(res.halves) > 0 {
		rows := make([]panel.HalfHourRow, len(res.halves))
		for i, h := range res.halves {
			rows[i] = panel.HalfHourRow{
				Symbol:        res.symbol,
				Day:           day,
				HalfHourStart: panel.FormatHalfHour(h.Start),
				Result:        h.Result,
				MeanDepth:     h.MeanDepth,
			}
			inst.RecordRegression(ctx, granularityHalfHour, h.Outcome())
		}
		if err := p.store.UpsertHalfHour(ctx, rows...); err != nil {
			return fail(StagePanel, err)
		}
		report.HalfHourRows += len(rows)
	}

	p.logger.DebugContext(ctx, "symbol complete",
		slog.String("symbol", res.symbol),
		slog.String("day", day),
		slog.Int("tob_rows", len(res.rows)),
		slog.String("time_unit", res.stats.Unit.String()),
		slog.Int("n", res.day.N),
		slog.Any("beta", panel.JSONFloat(res.day.Beta)),
		slog.String("note", res.day.Note))

	report.Results = append(report.Results, dayRow)
	return nil
}

// materialize rewrites the panel parquet files from the store
func (p *DayProcessor) materialize(ctx context.Context) error {
	days, err := p.store.DayRows(ctx, panel.Filter{})
	if err != nil {
		return err
	}
	if _, err := p.artifacts.WriteDayPanel(days); err != nil {
		return apperrors.NewStorageError("materialize day panel", err)
	}

	halves, err := p.store.HalfHourRows(ctx, panel.Filter{})
	if err != nil {
		return err
	}
	if _, err := p.artifacts.WriteHalfHourPanel(halves); err != nil {
		return apperrors.NewStorageError("materialize half-hour panel", err)
	}
	p.logger.DebugContext(ctx, "panels materialized",
		slog.String("dir", exporter.RegressionsDir(p.artifacts.OutDir())),
		slog.Int("day_rows", len(days)),
		slog.Int("halfhour_rows", len(halves)))
	return nil
}
