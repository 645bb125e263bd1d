package httpx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ghuser/bookcirc/pkg/httpx"
)

type stubChecker struct{ err error }

func (s *stubChecker) Ping(_ context.Context) error { return s.err }

func TestHealthHandler_AllHealthy(t *testing.T) {
	h := httpx.HealthHandler(httpx.HealthChecks{
		Database: &stubChecker{},
		Redis:    &stubChecker{},
		EventBus: &stubChecker{},
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "ok" {
		t.Errorf("status: got %q, want %q", resp["status"], "ok")
	}
}

func TestHealthHandler_DependencyDown(t *testing.T) {
	down := errors.New("conn refused")
	tests := []struct {
		name   string
		checks httpx.HealthChecks
		field  string
	}{
		{"database", httpx.HealthChecks{Database: &stubChecker{err: down}, Redis: &stubChecker{}, EventBus: &stubChecker{}}, "database"},
		{"redis", httpx.HealthChecks{Database: &stubChecker{}, Redis: &stubChecker{err: down}, EventBus: &stubChecker{}}, "redis"},
		{"event bus", httpx.HealthChecks{Database: &stubChecker{}, Redis: &stubChecker{}, EventBus: &stubChecker{err: down}}, "event_bus"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			httpx.HealthHandler(tt.checks).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

			if rr.Code != http.StatusServiceUnavailable {
				t.Fatalf("expected 503, got %d", rr.Code)
			}
			var resp map[string]string
			_ = json.NewDecoder(rr.Body).Decode(&resp)
			if resp["status"] != "degraded" || resp[tt.field] != "unreachable" {
				t.Errorf("unexpected response: %+v", resp)
			}
			if _, ok := resp["schema"]; ok {
				t.Errorf("schema reported without a checker: %+v", resp)
			}
		})
	}
}

func TestHealthHandler_ContentType(t *testing.T) {
	h := httpx.HealthHandler(httpx.HealthChecks{
		Database: &stubChecker{},
		Redis:    &stubChecker{},
		EventBus: &stubChecker{},
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

	ct := rr.Header().Get("Content-Type")
	if ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type: got %q, want %q", ct, "application/json; charset=utf-8")
	}
}

func TestHealthHandler_Schema(t *testing.T) {
	tests := []struct {
		name       string
		schema     httpx.HealthChecker
		wantCode   int
		wantSchema string
	}{
		{"not configured", nil, http.StatusOK, ""},
		{"current", &stubChecker{}, http.StatusOK, "ok"},
		{"behind", &stubChecker{err: errors.New("schema at 3, want 5")}, http.StatusServiceUnavailable, "behind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := httpx.HealthHandler(httpx.HealthChecks{
				Database: &stubChecker{},
				Redis:    &stubChecker{},
				EventBus: &stubChecker{},
				Schema:   tt.schema,
			})
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rr.Code)
			}
			var resp map[string]string
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp["schema"] != tt.wantSchema {
				t.Errorf("schema: got %q, want %q", resp["schema"], tt.wantSchema)
			}
		})
	}
}
