package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/teemow/inboxquote/internal/catalog"
)

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestLivenessHandler(t *testing.T) {
	h := NewHealthChecker(nil)
	rec := httptest.NewRecorder()
	h.LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := decodeHealth(t, rec).Status; got != healthStatusOK {
		t.Errorf("status = %q, want %q", got, healthStatusOK)
	}
}

func TestReadinessHandler(t *testing.T) {
	emptyCatalog, err := catalog.New(nil)
	if err != nil {
		t.Fatalf("catalog.New() error = %v", err)
	}

	tests := []struct {
		name         string
		setup        func(t *testing.T) *HealthChecker
		expectStatus int
		expectChecks map[string]string
	}{
		{
			name: "ready with catalog",
			setup: func(t *testing.T) *HealthChecker {
				return NewHealthChecker(newTestServerContext(t, nil))
			},
			expectStatus: http.StatusOK,
			expectChecks: map[string]string{
				"ready":    healthStatusOK,
				"shutdown": healthStatusOK,
				"catalog":  healthStatusOK,
			},
		},
		{
			name: "not ready",
			setup: func(t *testing.T) *HealthChecker {
				h := NewHealthChecker(newTestServerContext(t, nil))
				h.SetReady(false)
				return h
			},
			expectStatus: http.StatusServiceUnavailable,
			expectChecks: map[string]string{"ready": healthStatusNotReady},
		},
		{
			name: "shutting down",
			setup: func(t *testing.T) *HealthChecker {
				sc := newTestServerContext(t, nil)
				_ = sc.Shutdown()
				return NewHealthChecker(sc)
			},
			expectStatus: http.StatusServiceUnavailable,
			expectChecks: map[string]string{"shutdown": healthStatusShuttingDown},
		},
		{
			name: "empty catalog",
			setup: func(t *testing.T) *HealthChecker {
				return NewHealthChecker(newTestServerContext(t, emptyCatalog))
			},
			expectStatus: http.StatusServiceUnavailable,
			expectChecks: map[string]string{"catalog": healthStatusEmptyCatalog},
		},
		{
			name: "no server context",
			setup: func(t *testing.T) *HealthChecker {
				return NewHealthChecker(nil)
			},
			expectStatus: http.StatusOK,
			expectChecks: map[string]string{"ready": healthStatusOK},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.setup(t)
			rec := httptest.NewRecorder()
			h.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if rec.Code != tt.expectStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.expectStatus)
			}
			resp := decodeHealth(t, rec)
			for check, want := range tt.expectChecks {
				if got := resp.Checks[check]; got != want {
					t.Errorf("check %q = %q, want %q", check, got, want)
				}
			}
		})
	}
}

func TestDetailedHealthHandler(t *testing.T) {
	sc := newTestServerContext(t, nil)
	sc.Sessions().Register("session-1")
	h := NewHealthChecker(sc)

	rec := httptest.NewRecorder()
	h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp DetailedHealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != healthStatusOK {
		t.Errorf("Status = %q, want %q", resp.Status, healthStatusOK)
	}
	if resp.CatalogProducts != 3 {
		t.Errorf("CatalogProducts = %d, want 3", resp.CatalogProducts)
	}
	if resp.Currency != "USD" {
		t.Errorf("Currency = %q, want USD", resp.Currency)
	}
	if resp.QuoteTimezone != "UTC" {
		t.Errorf("QuoteTimezone = %q, want UTC", resp.QuoteTimezone)
	}
	if resp.DefaultTimezone != "UTC" {
		t.Errorf("DefaultTimezone = %q, want UTC", resp.DefaultTimezone)
	}
	if resp.ActiveSessions != 1 {
		t.Errorf("ActiveSessions = %d, want 1", resp.ActiveSessions)
	}
	if resp.Uptime == "" {
		t.Error("Uptime is empty")
	}
	if resp.Checks["catalog"] != healthStatusOK {
		t.Errorf("catalog check = %q, want %q", resp.Checks["catalog"], healthStatusOK)
	}
}

func TestDetailedHealthHandler_NotReady(t *testing.T) {
	h := NewHealthChecker(nil)
	h.SetReady(false)

	rec := httptest.NewRecorder()
	h.DetailedHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz/detailed", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
