package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/config"
)

// MeterName scopes the tracer and meter
const MeterName = "github.com/xecuterisaquant/replication-cont-ofi"

// ServiceVersion is overridden at link time by build.go
var ServiceVersion = "0.1.0-dev"

// Telemetry holds the OpenTelemetry providers and the pipeline instruments.
// The Prometheus registry is always present so /metrics and textfile dumps
// work even when the metric exporter is disabled.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prometheus.Registry
	Instruments    *Instruments
	logger         *slog.Logger
}

// NoopTelemetry returns telemetry that records nothing
func NoopTelemetry() *Telemetry {
	meter := metricnoop.NewMeterProvider().Meter(MeterName)
	instruments, _ := NewInstruments(meter)
	return &Telemetry{
		Tracer:      tracenoop.NewTracerProvider().Tracer(MeterName),
		Meter:       meter,
		Registry:    prometheus.NewRegistry(),
		Instruments: instruments,
		logger:      slog.Default(),
	}
}

// InitializeTelemetry sets up tracing and metrics according to cfg
func InitializeTelemetry(ctx context.Context, cfg config.TelemetryConfig, serviceName string, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Enabled {
		t := NoopTelemetry()
		t.logger = logger
		return t, nil
	}

	logger.InfoContext(ctx, "initializing OpenTelemetry",
		slog.String("service", serviceName),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metric_exporter", cfg.MetricExporter))

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(ServiceVersion),
		attribute.String("service.instance.id", GenerateTraceID()),
	)

	t := &Telemetry{
		Registry: prometheus.NewRegistry(),
		logger:   logger,
	}

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		t.TracerProvider = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
		)
		otel.SetTracerProvider(t.TracerProvider)
		t.Tracer = t.TracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(ServiceVersion))
	case "none":
		t.Tracer = tracenoop.NewTracerProvider().Tracer(MeterName)
	default:
		return nil, fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	switch cfg.MetricExporter {
	case "prometheus":
		exporter, err := otelprom.New(otelprom.WithRegisterer(t.Registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		t.MeterProvider = sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)
		otel.SetMeterProvider(t.MeterProvider)
		t.Meter = t.MeterProvider.Meter(MeterName, metric.WithInstrumentationVersion(ServiceVersion))
	case "none":
		t.Meter = metricnoop.NewMeterProvider().Meter(MeterName)
	default:
		return nil, fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	instruments, err := NewInstruments(t.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create instruments: %w", err)
	}
	t.Instruments = instruments

	return t, nil
}

// MetricsHandler exposes the Prometheus registry over HTTP
func (t *Telemetry) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(t.Registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the current metrics in the node-exporter textfile format
func (t *Telemetry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, t.Registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}

// Shutdown flushes and stops the providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer provider: %w", err))
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Instruments are the pipeline's metric instruments
type Instruments struct {
	symbolsProcessed metric.Int64Counter
	symbolFailures   metric.Int64Counter
	quotesDropped    metric.Int64Counter
	tobRows          metric.Int64Counter
	regressions      metric.Int64Counter
	dayDuration      metric.Float64Histogram
}

// NewInstruments creates the pipeline instruments on meter
func NewInstruments(meter metric.Meter) (*Instruments, error) {
	symbolsProcessed, err := meter.Int64Counter(
		"ofi_symbols_processed_total",
		metric.WithDescription("Symbol-days processed to completion"),
	)
	if err != nil {
		return nil, err
	}

	symbolFailures, err := meter.Int64Counter(
		"ofi_symbol_failures_total",
		metric.WithDescription("Symbol-days that failed and were skipped"),
	)
	if err != nil {
		return nil, err
	}

	quotesDropped, err := meter.Int64Counter(
		"ofi_quotes_dropped_total",
		metric.WithDescription("Raw quote events discarded while building the TOB grid"),
	)
	if err != nil {
		return nil, err
	}

	tobRows, err := meter.Int64Counter(
		"ofi_tob_rows_total",
		metric.WithDescription("TOB grid rows produced"),
	)
	if err != nil {
		return nil, err
	}

	regressions, err := meter.Int64Counter(
		"ofi_regressions_total",
		metric.WithDescription("Regressions fitted, by granularity and outcome"),
	)
	if err != nil {
		return nil, err
	}

	dayDuration, err := meter.Float64Histogram(
		"ofi_day_duration_seconds",
		metric.WithDescription("Wall time to process one raw day file"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Instruments{
		symbolsProcessed: symbolsProcessed,
		symbolFailures:   symbolFailures,
		quotesDropped:    quotesDropped,
		tobRows:          tobRows,
		regressions:      regressions,
		dayDuration:      dayDuration,
	}, nil
}

// RecordSymbol counts a finished symbol-day
func (i *Instruments) RecordSymbol(ctx context.Context, tobRows int, failed bool) {
	if failed {
		i.symbolFailures.Add(ctx, 1)
		return
	}
	i.symbolsProcessed.Add(ctx, 1)
	i.tobRows.Add(ctx, int64(tobRows))
}

// RecordDropped counts discarded quote events for reason
func (i *Instruments) RecordDropped(ctx context.Context, reason string, n int) {
	if n <= 0 {
		return
	}
	i.quotesDropped.Add(ctx, int64(n), metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordRegression counts one regression result
func (i *Instruments) RecordRegression(ctx context.Context, granularity, outcome string) {
	i.regressions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("granularity", granularity),
		attribute.String("outcome", outcome),
	))
}

// RecordDay records the duration of one day
func (i *Instruments) RecordDay(ctx context.Context, d time.Duration) {
	i.dayDuration.Record(ctx, d.Seconds())
}
