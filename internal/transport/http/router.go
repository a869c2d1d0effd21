package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xecuterisaquant/replication-cont-ofi/internal/config"
	apierrors "github.com/xecuterisaquant/replication-cont-ofi/internal/errors"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/infrastructure"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/middleware"
)

// Store is what the API needs from the panel store
type Store interface {
	PanelReader
	Pinger
}

// NewRouter assembles the middleware chain and all routes
func NewRouter(cfg config.ServerConfig, store Store, telemetry *infrastructure.Telemetry, logger *slog.Logger) http.Handler {
	if telemetry == nil {
		telemetry = infrastructure.NoopTelemetry()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Tracing(telemetry.Tracer))
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.SecurityHeaders)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apierrors.NotFoundError(r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, apierrors.New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed"))
	})

	health := NewHealthHandler(store, infrastructure.ServiceVersion, logger)
	r.Get("/healthz", health.HealthCheck)
	r.Handle("/metrics", telemetry.MetricsHandler())

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limiter.Handler)
		r.Mount("/", NewPanelHandler(store, logger).Routes())
	})
	return r
}
