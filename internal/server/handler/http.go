// Package handler provides HTTP request handling for the relay.
package handler

import (
	"net/http"

	"github.com/brizzai/address-relay/internal/config"
	"github.com/brizzai/address-relay/internal/delivery"
	"github.com/brizzai/address-relay/internal/logger"
	"github.com/brizzai/address-relay/internal/metrics"
	"github.com/brizzai/address-relay/internal/server/middleware"
	"github.com/brizzai/address-relay/internal/utils"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// SubmissionPath is the submission endpoint
const SubmissionPath = "/api/address"

// Handler manages routing and the middleware stack.
type Handler struct {
	config     *config.Config
	deliverer  delivery.Deliverer
	recorder   *metrics.Recorder
	submission *SubmissionHandler
}

type Params struct {
	fx.In

	Config    *config.Config
	Deliverer delivery.Deliverer
	Recorder  *metrics.Recorder `optional:"true"`
}

// NewHandler creates a new HTTP handler.
func NewHandler(params Params) *Handler {
	return &Handler{
		config:     params.Config,
		deliverer:  params.Deliverer,
		recorder:   params.Recorder,
		submission: NewSubmissionHandler(params.Deliverer, params.Recorder, params.Config.Server.MaxBodyBytes),
	}
}

type healthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

// Health reports liveness and the active delivery mode.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	utils.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Mode: string(h.deliverer.Mode())})
}

// CreateHTTPHandler builds the router with its middleware stack.
func (h *Handler) CreateHTTPHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(h.config.Server.AllowOrigins))

	r.Method(http.MethodPost, SubmissionPath, h.submission)
	r.Get("/healthz", h.Health)

	if h.config.Metrics.Enabled && h.recorder != nil {
		path := h.config.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, h.recorder.Handler())
		logger.Debug("Metrics endpoint enabled", zap.String("path", path))
	}

	return r
}

// Module provides the HTTP handler
var Module = fx.Module("handler",
	fx.Provide(NewHandler),
)
