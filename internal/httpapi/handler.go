// Package httpapi serves the operational endpoints of a running indexer:
// liveness, readiness, runner status and Prometheus metrics.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/nomindex/internal/engine"
	"github.com/roach88/nomindex/internal/entity"
)

// DefaultCheckTimeout bounds each readiness check.
const DefaultCheckTimeout = 2 * time.Second

// StatsProvider is satisfied by *engine.Runner.
type StatsProvider interface {
	Stats() engine.StatsSnapshot
}

// CheckpointReader is the slice of entity.Reader the status page needs.
type CheckpointReader interface {
	Checkpoint(ctx context.Context) (entity.Checkpoint, bool, error)
}

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// Handler holds the dependencies of the ops endpoints.
type Handler struct {
	logger       *slog.Logger
	runID        string
	stats        StatsProvider
	checkpoints  CheckpointReader
	gatherer     prometheus.Gatherer
	checks       map[string]Check
	checkTimeout time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithCheck adds a named readiness check.
func WithCheck(name string, c Check) Option {
	return func(h *Handler) { h.checks[name] = c }
}

// WithCheckTimeout overrides DefaultCheckTimeout.
func WithCheckTimeout(d time.Duration) Option {
	return func(h *Handler) { h.checkTimeout = d }
}

// WithRunID reports the run id on /status.
func WithRunID(id string) Option {
	return func(h *Handler) { h.runID = id }
}

// New creates a Handler. gatherer may be nil to disable /metrics.
func New(logger *slog.Logger, stats StatsProvider, checkpoints CheckpointReader, gatherer prometheus.Gatherer, opts ...Option) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:       logger,
		stats:        stats,
		checkpoints:  checkpoints,
		gatherer:     gatherer,
		checks:       map[string]Check{},
		checkTimeout: DefaultCheckTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", h.handleHealth)
	r.Get("/readyz", h.handleReady)
	r.Get("/status", h.handleStatus)
	if h.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}
}

// Router returns a new chi router with the routes registered.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type readyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := readyResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	code := http.StatusOK
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), h.checkTimeout)
		err := h.checks[name](ctx)
		cancel()
		if err != nil {
			h.logger.WarnContext(r.Context(), "readiness check failed",
				"check", name,
				"request_id", middleware.GetReqID(r.Context()),
				"error", err.Error(),
			)
			resp.Checks[name] = err.Error()
			resp.Status = "unavailable"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, code, resp)
}

type statusResponse struct {
	RunID      string               `json:"run_id,omitempty"`
	Runner     engine.StatsSnapshot `json:"runner"`
	Checkpoint *entity.Checkpoint   `json:"checkpoint"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{RunID: h.runID}
	if h.stats != nil {
		resp.Runner = h.stats.Stats()
	}
	if h.checkpoints != nil {
		cp, ok, err := h.checkpoints.Checkpoint(r.Context())
		if err != nil {
			h.logger.ErrorContext(r.Context(), "failed to read checkpoint", "error", err.Error())
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "checkpoint unavailable"})
			return
		}
		if ok {
			resp.Checkpoint = &cp
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
