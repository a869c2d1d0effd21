// Command ofi-batch processes every raw quote file in a directory and
// writes the acceptance summary plus optional workbook and CSV panels.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/app"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/pipeline"
)

func main() {
	inputDir := flag.String("input", "", "directory of raw quote files")
	pattern := flag.String("glob", "*.csv*", "file name pattern")
	configPath := flag.String("config", "", "YAML config file (defaults to $OFI_CONFIG)")
	outputDir := flag.String("out", "", "output directory (overrides storage.output_dir)")
	noHalfHour := flag.Bool("no-halfhour", false, "skip the half-hour regressions")
	workers := flag.Int("workers", 0, "concurrent symbols (overrides pipeline.workers)")
	xlsx := flag.String("xlsx", "", "write an xlsx report to this path")
	csvDir := flag.String("csv", "", "write the panels as CSV into this directory")
	runID := flag.String("run-id", "", "run identifier (defaults to a generated trace id)")
	flag.Parse()

	if *inputDir == "" {
		slog.Error("missing required flag", "flag", "-input")
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, app.Options{
		ConfigPath: *configPath,
		OutputDir:  *outputDir,
		NoHalfHour: *noHalfHour,
		Workers:    *workers,
	})
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	report, err := a.RunBatch(ctx, pipeline.BatchOptions{
		InputDir:     *inputDir,
		Pattern:      *pattern,
		RunID:        *runID,
		WorkbookPath: *xlsx,
		CSVDir:       *csvDir,
	})
	closeErr := a.Close(context.Background())
	if err != nil {
		slog.Error("batch failed", "input", *inputDir, "error", err)
		os.Exit(1)
	}
	if closeErr != nil {
		slog.Error("shutdown error", "error", closeErr)
	}

	if len(report.FailedFiles) > 0 {
		slog.Error("batch finished with failed files",
			"failed", len(report.FailedFiles),
			"days", len(report.Days),
			"summary", report.SummaryPath)
		os.Exit(1)
	}
	slog.Info("batch finished", "days", len(report.Days), "summary", report.SummaryPath)
}
