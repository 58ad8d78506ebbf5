// Package diag exposes the cache registry and the performance monitor over a
// read-only JSON HTTP surface for dashboards and operators.
package diag

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dealerkit/perfcache/pkg/cache"
	"github.com/dealerkit/perfcache/pkg/monitor"
)

type handler struct {
	registry *cache.Registry
	monitor  *monitor.Monitor
	log      zerolog.Logger
}

// New returns the diagnostics handler. Routes:
//
//	GET /healthz                 system health verdict
//	GET /cache/stats             per-category cache statistics
//	GET /endpoints?endpoint=     one endpoint's windowed stats
//	GET /trends?endpoint=        per-bucket trend stats
//	GET /slowest?limit=          top-N slowest endpoints
//	GET /metrics/export          raw record snapshot
//
// Window-style parameters (window, bucket) accept Go duration strings.
func New(registry *cache.Registry, mon *monitor.Monitor, log zerolog.Logger) http.Handler {
	h := &handler{registry: registry, monitor: mon, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.HandleFunc("GET /cache/stats", h.handleCacheStats)
	mux.HandleFunc("GET /endpoints", h.handleEndpointStats)
	mux.HandleFunc("GET /trends", h.handleTrends)
	mux.HandleFunc("GET /slowest", h.handleSlowest)
	mux.HandleFunc("GET /metrics/export", h.handleExport)
	return mux
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	health := h.monitor.SystemHealth(queryDuration(r, "window", 0))

	status := http.StatusOK
	if health.Status == monitor.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, health)
}

func (h *handler) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.registry.Stats())
}

func (h *handler) handleEndpointStats(w http.ResponseWriter, r *http.Request) {
	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		http.Error(w, "endpoint parameter is required", http.StatusBadRequest)
		return
	}
	h.writeJSON(w, http.StatusOK, h.monitor.EndpointStats(endpoint, queryDuration(r, "window", 0)))
}

func (h *handler) handleTrends(w http.ResponseWriter, r *http.Request) {
	trends := h.monitor.Trends(
		r.URL.Query().Get("endpoint"),
		queryDuration(r, "window", 0),
		queryDuration(r, "bucket", 0),
	)
	h.writeJSON(w, http.StatusOK, trends)
}

func (h *handler) handleSlowest(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	h.writeJSON(w, http.StatusOK, h.monitor.SlowestEndpoints(limit, queryDuration(r, "window", 0)))
}

func (h *handler) handleExport(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.monitor.Export(queryDuration(r, "window", 0)))
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("encode diagnostics response")
	}
}

// queryDuration parses a duration query parameter, returning fallback when
// absent or malformed.
func queryDuration(r *http.Request, name string, fallback time.Duration) time.Duration {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
