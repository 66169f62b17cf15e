package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
	healthStatusEmptyCatalog = "catalog is empty"
)

// HealthChecker serves the liveness and readiness probes of the HTTP
// transport. A nil ServerContext limits it to the ready flag.
type HealthChecker struct {
	ready     atomic.Bool
	sc        *ServerContext
	startTime time.Time
}

// NewHealthChecker returns a checker that starts out ready.
func NewHealthChecker(sc *ServerContext) *HealthChecker {
	h := &HealthChecker{sc: sc, startTime: time.Now()}
	h.ready.Store(true)
	return h
}

// SetReady flips readiness, e.g. while draining on shutdown.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports the ready flag alone.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	HealthResponse
	Uptime          string `json:"uptime"`
	CatalogProducts int    `json:"catalog_products"`
	Currency        string `json:"currency,omitempty"`
	QuoteTimezone   string `json:"quote_timezone,omitempty"`
	DefaultTimezone string `json:"default_timezone,omitempty"`
	ActiveSessions  int    `json:"active_sessions"`
}

// evaluate runs the readiness checks. A failing check maps to its reason.
func (h *HealthChecker) evaluate() HealthResponse {
	checks := map[string]string{
		"ready":    healthStatusOK,
		"shutdown": healthStatusOK,
	}
	ok := true
	fail := func(name, reason string) {
		checks[name] = reason
		ok = false
	}

	if !h.ready.Load() {
		fail("ready", healthStatusNotReady)
	}
	if h.sc != nil {
		if h.sc.IsShutdown() {
			fail("shutdown", healthStatusShuttingDown)
		}
		// Without products no quote can be produced.
		checks["catalog"] = healthStatusOK
		if h.sc.Catalog().Len() == 0 {
			fail("catalog", healthStatusEmptyCatalog)
		}
	}

	resp := HealthResponse{Status: healthStatusOK, Checks: checks}
	if !ok {
		resp.Status = healthStatusNotReady
	}
	return resp
}

func writeHealth(w http.ResponseWriter, healthy bool, body any) {
	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(body)
}

// LivenessHandler answers /healthz. It only proves the process serves HTTP.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, true, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler answers /readyz with 503 while any check fails.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := h.evaluate()
		writeHealth(w, resp.Status == healthStatusOK, resp)
	})
}

// DetailedHealthHandler answers /healthz/detailed with the readiness
// checks plus catalog, timezone and session figures.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := DetailedHealthResponse{
			HealthResponse: h.evaluate(),
			Uptime:         time.Since(h.startTime).Truncate(time.Second).String(),
		}
		if sc := h.sc; sc != nil {
			resp.CatalogProducts = sc.Catalog().Len()
			resp.Currency = sc.Catalog().Currency()
			resp.QuoteTimezone = sc.Engine().Location().String()
			resp.DefaultTimezone = sc.Clock().DefaultZone().String()
			resp.ActiveSessions = sc.Sessions().Count()
		}
		writeHealth(w, resp.Status == healthStatusOK, resp)
	})
}

// RegisterHealthEndpoints mounts the probes on mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}
