package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/config"
	apperrors "github.com/xecuterisaquant/replication-cont-ofi/internal/errors"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/exporter"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/files"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/infrastructure"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/panel"
)

// SummaryFile is the acceptance summary name under the regressions directory
const SummaryFile = "acceptance_summary.json"

// BatchOptions select the raw files and the optional reports
type BatchOptions struct {
	InputDir string
	Pattern  string
	// RunID defaults to the context trace id
	RunID string
	// WorkbookPath writes an xlsx report when set
	WorkbookPath string
	// CSVDir writes the panels as CSV when set
	CSVDir string
}

// Batch processes a directory of raw day files in name order
type Batch struct {
	cfg       *config.Config
	processor *DayProcessor
	store     panel.Store
	telemetry *infrastructure.Telemetry
	logger    *slog.Logger
}

// NewBatch creates a batch driver around processor
func NewBatch(cfg *config.Config, processor *DayProcessor, store panel.Store, telemetry *infrastructure.Telemetry, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	if telemetry == nil {
		telemetry = infrastructure.NoopTelemetry()
	}
	return &Batch{
		cfg:       cfg,
		processor: processor,
		store:     store,
		telemetry: telemetry,
		logger:    infrastructure.WithComponent(logger, "batch"),
	}
}

// Run processes every matching file. A file that fails is logged and
// skipped; cancellation stops the batch. The summary covers the whole-day
// rows produced by this run.
func (b *Batch) Run(ctx context.Context, opts BatchOptions) (*BatchReport, error) {
	started := time.Now()
	if opts.RunID != "" {
		ctx = infrastructure.WithTraceID(ctx, opts.RunID)
	}
	ctx = infrastructure.EnsureTraceID(ctx)
	report := &BatchReport{RunID: infrastructure.GetTraceID(ctx)}
	logger := b.logger.With(slog.String("run_id", report.RunID))

	pattern := opts.Pattern
	if pattern == "" {
		pattern = "*.csv*"
	}
	raw, err := files.NewDiscovery("").FindFilesByPattern(opts.InputDir, pattern)
	if err != nil {
		return nil, apperrors.NewNotFoundError("input directory").WithContext("dir", opts.InputDir)
	}
	if len(raw) == 0 {
		return nil, apperrors.NewNotFoundError("raw day files").
			WithContext("dir", opts.InputDir).
			WithContext("pattern", pattern)
	}
	logger.InfoContext(ctx, "batch started", slog.Int("files", len(raw)), slog.String("input", opts.InputDir))

	var rows []panel.DayRow
	for _, f := range raw {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		day, err := b.processor.ProcessDay(ctx, f.Path)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, err
			}
			logger.ErrorContext(ctx, "day failed", slog.String("file", f.Name), slog.String("error", err.Error()))
			report.FailedFiles = append(report.FailedFiles, FileFailure{File: f.Path, Err: err})
			continue
		}
		report.Days = append(report.Days, day)
		rows = append(rows, day.Results...)
	}

	report.Summary = panel.Summarize(report.RunID, len(report.Days), rows)
	report.SummaryPath = filepath.Join(exporter.RegressionsDir(b.cfg.Storage.OutputDir), SummaryFile)
	if err := panel.WriteSummary(report.SummaryPath, report.Summary); err != nil {
		return report, apperrors.NewStorageError("write acceptance summary", err)
	}

	if opts.WorkbookPath != "" || opts.CSVDir != "" {
		if err := b.writeReports(ctx, opts, report); err != nil {
			return report, err
		}
	}

	if path := b.cfg.Telemetry.MetricsTextfile; path != "" {
		if err := b.telemetry.WriteTextfile(path); err != nil {
			logger.WarnContext(ctx, "metrics textfile not written", slog.String("error", err.Error()))
		}
	}

	report.Duration = time.Since(started)
	logger.InfoContext(ctx, "batch complete",
		slog.Int("days", len(report.Days)),
		slog.Int("failed_files", len(report.FailedFiles)),
		slog.Int("rows", report.Summary.Rows),
		slog.Any("share_beta_positive", report.Summary.ShareBetaPositive),
		slog.Any("mean_r2", report.Summary.MeanR2),
		slog.Duration("duration", report.Duration))
	return report, nil
}

// writeReports renders the full panels held in the store
func (b *Batch) writeReports(ctx context.Context, opts BatchOptions, report *BatchReport) error {
	days, err := b.store.DayRows(ctx, panel.Filter{})
	if err != nil {
		return err
	}
	halves, err := b.store.HalfHourRows(ctx, panel.Filter{})
	if err != nil {
		return err
	}

	if opts.WorkbookPath != "" {
		wb := exporter.NewWorkbookWriter(b.logger)
		err := wb.Write(opts.WorkbookPath, exporter.Report{
			Summary:  report.Summary,
			Days:     days,
			HalfHour: halves,
			Profile:  panel.HalfHourProfile(halves),
		})
		if err != nil {
			return fmt.Errorf("write workbook: %w", err)
		}
		report.WorkbookPath = opts.WorkbookPath
	}

	if opts.CSVDir != "" {
		w := exporter.NewCSVWriter(b.logger)
		if err := w.WriteDayPanel(filepath.Join(opts.CSVDir, "by_symbol_day.csv"), days); err != nil {
			return fmt.Errorf("write day panel csv: %w", err)
		}
		if err := w.WriteHalfHourPanel(filepath.Join(opts.CSVDir, "by_symbol_day_halfhour.csv"), halves); err != nil {
			return fmt.Errorf("write half-hour panel csv: %w", err)
		}
	}
	return nil
}
