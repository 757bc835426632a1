// Package api serves dashboard and analytics results over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/huangsam/runlens/core"
	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/schema"
)

// Catalog is the connection side of the execution store.
type Catalog interface {
	Configure(ctx context.Context, backend schema.DatabaseBackend, dsn string) error
	ConfigStatus() schema.ConfigStatus
	Configured() bool
}

// ConfigRequest is the body of POST /api/config.
type ConfigRequest struct {
	Backend          string `json:"backend"`
	ConnectionString string `json:"connectionString"`
	// ServerName builds an SSISDB connection with integrated security when no connection string is given.
	ServerName string `json:"serverName"`
}

// Handler routes every endpoint.
type Handler struct {
	agg      *core.Aggregator
	catalog  Catalog
	push     http.Handler
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	router   *mux.Router
}

// Option configures a Handler.
type Option func(*Handler)

// WithPush mounts a websocket handler at /ws.
func WithPush(h http.Handler) Option {
	return func(api *Handler) { api.push = h }
}

// WithGatherer serves the given registry at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(api *Handler) { api.gatherer = g }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(api *Handler) {
		if l != nil {
			api.logger = l
		}
	}
}

// New wires the routes.
func New(a *core.Aggregator, catalog Catalog, opts ...Option) *Handler {
	h := &Handler{
		agg:      a,
		catalog:  catalog,
		gatherer: prometheus.DefaultGatherer,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}

	r := mux.NewRouter()
	r.Use(logRequests(h.logger))

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/dashboard", h.dashboard).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/{metric}", h.metric(false)).Methods(http.MethodGet)
	api.HandleFunc("/analytics", h.analytics).Methods(http.MethodGet)
	api.HandleFunc("/analytics/{metric}", h.metric(true)).Methods(http.MethodGet)
	api.HandleFunc("/config", h.getConfig).Methods(http.MethodGet)
	api.HandleFunc("/config", h.postConfig).Methods(http.MethodPost)
	api.HandleFunc("/cache", h.cacheStatus).Methods(http.MethodGet)
	api.HandleFunc("/cache", h.flushCache).Methods(http.MethodDelete)

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	if h.push != nil {
		r.Handle("/ws", h.push)
	}
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// businessUnit reads the partition of a request; blank means every package.
func businessUnit(r *http.Request) string {
	q := r.URL.Query()
	if bu := q.Get("businessUnit"); bu != "" {
		return bu
	}
	return q.Get("business_unit")
}

// notConfigured answers 401 when the catalog has no usable connection.
func (h *Handler) notConfigured(w http.ResponseWriter) bool {
	if h.catalog != nil && h.catalog.Configured() {
		return false
	}
	jsonErr(w, http.StatusUnauthorized, "Not configured")
	return true
}

// fail maps an error of a fetch to its status code.
func (h *Handler) fail(w http.ResponseWriter, what string, err error) {
	if contract.IsConfigurationError(err) {
		jsonErr(w, http.StatusUnauthorized, "Not configured")
		return
	}
	h.logger.Error("fetch failed", zap.String("what", what), zap.Error(err))
	jsonErr(w, http.StatusInternalServerError, "Failed to fetch "+what)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	if h.notConfigured(w) {
		return
	}
	snap, err := h.agg.LoadDashboard(r.Context(), businessUnit(r))
	if err != nil {
		h.fail(w, "dashboard", err)
		return
	}
	jsonResp(w, http.StatusOK, snap)
}

func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	if h.notConfigured(w) {
		return
	}
	snap, err := h.agg.LoadAdvancedAnalytics(r.Context())
	if err != nil {
		h.fail(w, "analytics", err)
		return
	}
	jsonResp(w, http.StatusOK, snap)
}

// metric serves one metric; advanced selects which family the route accepts.
func (h *Handler) metric(advanced bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, ok := schema.ParseMetricName(mux.Vars(r)["metric"])
		if !ok || name.IsAdvanced() != advanced {
			jsonErr(w, http.StatusNotFound, "unknown metric")
			return
		}
		if h.notConfigured(w) {
			return
		}
		v, err := h.agg.Fetch(r.Context(), name, businessUnit(r))
		if err != nil {
			h.fail(w, strings.ReplaceAll(string(name), "_", " "), err)
			return
		}
		jsonResp(w, http.StatusOK, v)
	}
}

func (h *Handler) getConfig(w http.ResponseWriter, _ *http.Request) {
	if h.catalog == nil {
		jsonResp(w, http.StatusOK, schema.ConfigStatus{Backend: string(schema.NoneBackend)})
		return
	}
	jsonResp(w, http.StatusOK, h.catalog.ConfigStatus())
}

// postConfig swaps the catalog connection and drops every cached result.
func (h *Handler) postConfig(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		jsonErr(w, http.StatusServiceUnavailable, "catalog is not reconfigurable")
		return
	}
	var req ConfigRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	backend, dsn, err := req.resolve()
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.catalog.Configure(r.Context(), backend, dsn); err != nil {
		h.logger.Warn("reconfigure failed", zap.String("backend", string(backend)), zap.Error(err))
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	h.agg.Invalidate()

	status := h.catalog.ConfigStatus()
	h.logger.Info("catalog reconfigured", zap.String("backend", status.Backend), zap.String("server", status.Server))
	jsonResp(w, http.StatusOK, status)
}

// resolve validates the request and returns the backend and connection string.
func (req ConfigRequest) resolve() (schema.DatabaseBackend, string, error) {
	raw := req.Backend
	if raw == "" {
		raw = string(schema.SQLServerBackend)
	}
	backend, err := contract.ParseBackend(raw)
	if err != nil {
		return "", "", err
	}
	dsn := strings.TrimSpace(req.ConnectionString)
	if dsn == "" && req.ServerName != "" {
		if backend != schema.SQLServerBackend {
			return "", "", fmt.Errorf("serverName is only supported for the %s backend", schema.SQLServerBackend)
		}
		dsn = ssisdbConnectionString(strings.TrimSpace(req.ServerName))
	}
	if err := contract.ValidateDatabaseConnectionString(backend, dsn); err != nil {
		return "", "", err
	}
	return backend, dsn, nil
}

// ssisdbConnectionString targets the SSISDB catalog of a server with integrated security.
func ssisdbConnectionString(server string) string {
	q := url.Values{}
	q.Set("database", "SSISDB")
	q.Set("integrated security", "true")
	q.Set("trustservercertificate", "true")
	q.Set("encrypt", "disable")
	return (&url.URL{Scheme: "sqlserver", Host: server, RawQuery: q.Encode()}).String()
}

func (h *Handler) cacheStatus(w http.ResponseWriter, _ *http.Request) {
	jsonResp(w, http.StatusOK, h.agg.CacheStatus())
}

func (h *Handler) flushCache(w http.ResponseWriter, _ *http.Request) {
	h.agg.Invalidate()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	status := "ok"
	if h.catalog == nil || !h.catalog.Configured() {
		status = "unconfigured"
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": status})
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, map[string]string{"error": msg})
}
