package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/calendar"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/config"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/infrastructure"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/panel"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/pipeline"
	transporthttp "github.com/xecuterisaquant/replication-cont-ofi/internal/transport/http"
)

// ServiceName identifies the process in traces and metrics
const ServiceName = "ofi-pipeline"

// Options are the command-line overrides applied on top of the loaded config
type Options struct {
	ConfigPath string
	// OutputDir replaces storage.output_dir; the panel database moves with it
	// unless PanelDB is also set.
	OutputDir  string
	PanelDB    string
	NoHalfHour bool
	Workers    int
	// Logger skips logger initialization from config when set
	Logger     *slog.Logger
}

// Application holds the wired components shared by the commands
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Telemetry *infrastructure.Telemetry
	Venue     *calendar.Venue
	Store     *panel.SQLiteStore
	Processor *pipeline.DayProcessor
	Batch     *pipeline.Batch
	Server    *http.Server

	listener net.Listener
}

// New loads configuration and wires logger, telemetry, venue, panel store
// and the pipeline drivers. Close releases what New opened.
func New(ctx context.Context, opts Options) (*Application, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	applyOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger, err = infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	logger.InfoContext(ctx, "application starting",
		slog.String("service", ServiceName),
		slog.String("version", infrastructure.ServiceVersion),
		slog.String("output_dir", cfg.Storage.OutputDir),
		slog.String("panel_db", cfg.Storage.PanelDB))

	venue, err := calendar.NewVenue(cfg.Venue, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve venue: %w", err)
	}

	telemetry, err := infrastructure.InitializeTelemetry(ctx, cfg.Telemetry, ServiceName, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	store, err := panel.OpenSQLite(ctx, cfg.Storage.PanelDB, logger)
	if err != nil {
		_ = telemetry.Shutdown(ctx)
		return nil, err
	}

	processor := pipeline.NewDayProcessor(cfg, venue, store, telemetry, logger)
	return &Application{
		Config:    cfg,
		Logger:    logger,
		Telemetry: telemetry,
		Venue:     venue,
		Store:     store,
		Processor: processor,
		Batch:     pipeline.NewBatch(cfg, processor, store, telemetry, logger),
	}, nil
}

func applyOverrides(cfg *config.Config, opts Options) {
	if opts.OutputDir != "" {
		cfg.Storage.OutputDir = opts.OutputDir
		cfg.Storage.PanelDB = filepath.Join(opts.OutputDir, "regressions", "panel.db")
	}
	if opts.PanelDB != "" {
		cfg.Storage.PanelDB = opts.PanelDB
	}
	if opts.NoHalfHour {
		cfg.Pipeline.HalfHour = false
	}
	if opts.Workers > 0 {
		cfg.Pipeline.Workers = opts.Workers
	}
}

// RunDay processes a single raw day file and writes its metrics textfile
func (a *Application) RunDay(ctx context.Context, path string) (*pipeline.DayReport, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	report, err := a.Processor.ProcessDay(ctx, path)
	if err != nil {
		return nil, err
	}
	a.writeTextfile(ctx)
	return report, nil
}

// RunBatch processes every matching file under opts.InputDir
func (a *Application) RunBatch(ctx context.Context, opts pipeline.BatchOptions) (*pipeline.BatchReport, error) {
	return a.Batch.Run(ctx, opts)
}

func (a *Application) writeTextfile(ctx context.Context) {
	path := a.Config.Telemetry.MetricsTextfile
	if path == "" {
		return
	}
	if err := a.Telemetry.WriteTextfile(path); err != nil {
		a.Logger.WarnContext(ctx, "failed to write metrics textfile",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}

// Start binds the panel API and serves it in the background. A serve
// error other than a clean close calls cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	cfg := a.Config.Server
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}
	a.listener = ln
	a.Server = &http.Server{
		Addr:         ln.Addr().String(),
		Handler:      transporthttp.NewRouter(cfg, a.Store, a.Telemetry, a.Logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "panel API listening", slog.String("address", a.Server.Addr))
	return nil
}

// Addr is the bound server address, empty before Start
func (a *Application) Addr() string {
	if a.listener == nil {
		return ""
	}
	return a.listener.Addr().String()
}

// Stop drains the server within the configured shutdown timeout
func (a *Application) Stop(ctx context.Context) error {
	if a.Server == nil {
		return nil
	}
	a.Logger.InfoContext(ctx, "shutting down panel API")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Serve runs the panel API until SIGINT, SIGTERM or ctx cancellation
func (a *Application) Serve(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.InfoContext(ctx, "received shutdown signal")
	return a.Stop(ctx)
}

// Close releases the panel store and flushes telemetry
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close panel store: %w", err))
		}
	}
	if a.Telemetry != nil {
		if err := a.Telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
		}
	}
	a.Logger.InfoContext(ctx, "application stopped")
	return errors.Join(errs...)
}
