// Command ofi-day processes one raw quote file into OFI time series,
// whole-day and half-hour regressions.
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
	"github.com/xecuterisaquant/replication-cont-ofi/internal/panel"
)

func main() {
	file := flag.String("file", "", "raw quote file (.csv or .csv.gz)")
	configPath := flag.String("config", "", "YAML config file (defaults to $OFI_CONFIG)")
	outputDir := flag.String("out", "", "output directory (overrides storage.output_dir)")
	noHalfHour := flag.Bool("no-halfhour", false, "skip the half-hour regressions")
	workers := flag.Int("workers", 0, "concurrent symbols (overrides pipeline.workers)")
	flag.Parse()

	if *file == "" {
		slog.Error("missing required flag", "flag", "-file")
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

	report, err := a.RunDay(ctx, *file)
	if err != nil {
		a.Logger.ErrorContext(ctx, "day failed", slog.String("file", *file), slog.String("error", err.Error()))
		_ = a.Close(context.Background())
		os.Exit(1)
	}

	for _, row := range report.Results {
		a.Logger.InfoContext(ctx, "regression",
			slog.String("symbol", row.Symbol),
			slog.Any("beta", panel.JSONFloat(row.Beta)),
			slog.Any("r2", panel.JSONFloat(row.R2)),
			slog.Int("n", row.N),
			slog.String("note", row.Note))
	}

	if err := a.Close(context.Background()); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
