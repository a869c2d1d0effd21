package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/xecuterisaquant/replication-cont-ofi/internal/errors"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/middleware"
	"github.com/xecuterisaquant/replication-cont-ofi/internal/panel"
)

// PanelReader is the read side of the panel store
type PanelReader interface {
	DayRows(ctx context.Context, f panel.Filter) ([]panel.DayRow, error)
	HalfHourRows(ctx context.Context, f panel.Filter) ([]panel.HalfHourRow, error)
}

// PanelQuery filters panel reads
type PanelQuery struct {
	Symbol string `query:"symbol" validate:"omitempty,symbol"`
	Day    string `query:"day" validate:"omitempty,day"`
}

// DayRowResponse is one whole-day regression
type DayRowResponse struct {
	Symbol    string          `json:"symbol"`
	Day       string          `json:"day"`
	Alpha     panel.JSONFloat `json:"alpha"`
	Beta      panel.JSONFloat `json:"beta"`
	SEBeta    panel.JSONFloat `json:"se_beta"`
	R2        panel.JSONFloat `json:"r2"`
	N         int             `json:"n"`
	Notes     string          `json:"notes"`
	MeanDepth panel.JSONFloat `json:"mean_depth"`
	OFIScale  panel.JSONFloat `json:"ofi_scale"`
}

// HalfHourRowResponse is one half-hour regression
type HalfHourRowResponse struct {
	Symbol        string          `json:"symbol"`
	Day           string          `json:"day"`
	HalfHourStart string          `json:"half_hour_start"`
	Alpha         panel.JSONFloat `json:"alpha"`
	Beta          panel.JSONFloat `json:"beta"`
	SEBeta        panel.JSONFloat `json:"se_beta"`
	R2            panel.JSONFloat `json:"r2"`
	N             int             `json:"n"`
	Notes         string          `json:"notes"`
	MeanDepth     panel.JSONFloat `json:"mean_depth"`
}

// ListResponse wraps every collection response
type ListResponse[T any] struct {
	Count int `json:"count"`
	Items []T `json:"items"`
}

// PanelHandler handles panel queries
type PanelHandler struct {
	store     PanelReader
	validator *middleware.Validator
	logger    *slog.Logger
}

// NewPanelHandler creates a new panel handler
func NewPanelHandler(store PanelReader, logger *slog.Logger) *PanelHandler {
	return &PanelHandler{
		store:     store,
		validator: middleware.NewValidator(),
		logger:    logger.With(slog.String("component", "panel_handler")),
	}
}

// Routes returns the panel routes
func (h *PanelHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/panels/day", h.GetDayPanel)
	r.Get("/panels/halfhour", h.GetHalfHourPanel)
	r.Get("/profile", h.GetProfile)
	return r
}

// GetDayPanel handles GET /api/v1/panels/day
func (h *PanelHandler) GetDayPanel(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseQuery(w, r)
	if !ok {
		return
	}
	rows, err := h.store.DayRows(r.Context(), panel.Filter{Symbol: q.Symbol, Day: q.Day})
	if err != nil {
		h.fail(w, r, "failed to read day panel", err)
		return
	}

	items := make([]DayRowResponse, len(rows))
	for i, row := range rows {
		items[i] = DayRowResponse{
			Symbol:    row.Symbol,
			Day:       row.Day,
			Alpha:     panel.JSONFloat(row.Alpha),
			Beta:      panel.JSONFloat(row.Beta),
			SEBeta:    panel.JSONFloat(row.SEBeta),
			R2:        panel.JSONFloat(row.R2),
			N:         row.N,
			Notes:     row.Note,
			MeanDepth: panel.JSONFloat(row.MeanDepth),
			OFIScale:  panel.JSONFloat(row.OFIScale),
		}
	}
	render.JSON(w, r, ListResponse[DayRowResponse]{Count: len(items), Items: items})
}

// GetHalfHourPanel handles GET /api/v1/panels/halfhour
func (h *PanelHandler) GetHalfHourPanel(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseQuery(w, r)
	if !ok {
		return
	}
	rows, err := h.store.HalfHourRows(r.Context(), panel.Filter{Symbol: q.Symbol, Day: q.Day})
	if err != nil {
		h.fail(w, r, "failed to read half-hour panel", err)
		return
	}

	items := make([]HalfHourRowResponse, len(rows))
	for i, row := range rows {
		items[i] = HalfHourRowResponse{
			Symbol:        row.Symbol,
			Day:           row.Day,
			HalfHourStart: row.HalfHourStart,
			Alpha:         panel.JSONFloat(row.Alpha),
			Beta:          panel.JSONFloat(row.Beta),
			SEBeta:        panel.JSONFloat(row.SEBeta),
			R2:            panel.JSONFloat(row.R2),
			N:             row.N,
			Notes:         row.Note,
			MeanDepth:     panel.JSONFloat(row.MeanDepth),
		}
	}
	render.JSON(w, r, ListResponse[HalfHourRowResponse]{Count: len(items), Items: items})
}

// GetProfile handles GET /api/v1/profile
func (h *PanelHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	q, ok := h.parseQuery(w, r)
	if !ok {
		return
	}
	rows, err := h.store.HalfHourRows(r.Context(), panel.Filter{Symbol: q.Symbol, Day: q.Day})
	if err != nil {
		h.fail(w, r, "failed to read half-hour panel", err)
		return
	}
	profile := panel.HalfHourProfile(rows)
	render.JSON(w, r, ListResponse[panel.ProfileRow]{Count: len(profile), Items: profile})
}

func (h *PanelHandler) parseQuery(w http.ResponseWriter, r *http.Request) (PanelQuery, bool) {
	values := r.URL.Query()
	q := PanelQuery{Symbol: values.Get("symbol"), Day: values.Get("day")}
	if err := h.validator.ValidateStruct(q); err != nil {
		h.logger.InfoContext(r.Context(), "rejected panel query",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("query", r.URL.RawQuery))
		writeError(w, r, err)
		return q, false
	}
	return q, true
}

func (h *PanelHandler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.ErrorContext(r.Context(), msg,
		slog.String("error", err.Error()),
		slog.String("request_id", middleware.GetRequestID(r.Context())))
	writeError(w, r, err)
}

// writeError renders err as an APIError carrying the request's trace id
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := apierrors.ToAPIError(err)
	if apiErr.TraceID == "" {
		apiErr.TraceID = middleware.GetRequestID(r.Context())
	}
	render.Render(w, r, apiErr)
}
