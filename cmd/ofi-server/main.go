// Command ofi-server serves the stored regression panels over HTTP.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	_ "time/tzdata"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/app"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults to $OFI_CONFIG)")
	db := flag.String("db", "", "panel database (overrides storage.panel_db)")
	flag.Parse()

	ctx := context.Background()
	a, err := app.New(ctx, app.Options{ConfigPath: *configPath, PanelDB: *db})
	if err != nil {
		slog.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	serveErr := a.Serve(ctx)
	if err := a.Close(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if serveErr != nil {
		slog.Error("server failed", "error", serveErr)
		os.Exit(1)
	}
}
