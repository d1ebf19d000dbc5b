package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BookHive-Network/notifier/internal/config"
	"go.uber.org/zap"
)

type fakeRegistry struct{ total, authed int }

func (f fakeRegistry) Count() int              { return f.total }
func (f fakeRegistry) AuthenticatedCount() int { return f.authed }

type fakeBus struct{ err error }

func (f fakeBus) Name() string               { return "fake" }
func (f fakeBus) Ping(context.Context) error { return f.err }

func newChecker(t *testing.T, reg fakeRegistry, bus BusInterface) *HealthChecker {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.Server.MaxConnections = 10
	return NewHealthChecker(reg, bus, cfg, zap.NewNop(), "test")
}

func get(t *testing.T, h *HealthChecker, target string) (*httptest.ResponseRecorder, HealthResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return rec, resp
}

func component(resp HealthResponse, name string) *ComponentStatus {
	for _, c := range resp.Components {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHealthyWithoutBus(t *testing.T) {
	rec, resp := get(t, newChecker(t, fakeRegistry{total: 2, authed: 1}, nil), "/health?ready=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want 200, got %d", rec.Code)
	}
	if resp.Version != "test" || resp.Service == "" {
		t.Fatalf("unexpected identity %q %q", resp.Version, resp.Service)
	}
	c := component(resp, "connections")
	if c == nil || c.Details["active_connections"].(float64) != 2 {
		t.Fatalf("connections component: %+v", c)
	}
}

func TestBusDownDegradesAndFailsReadiness(t *testing.T) {
	h := newChecker(t, fakeRegistry{}, fakeBus{err: errors.New("conn refused")})

	rec, resp := get(t, h, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("liveness: want 200, got %d", rec.Code)
	}
	if resp.Status != StatusDegraded {
		t.Fatalf("overall: want degraded, got %s", resp.Status)
	}

	rec, _ = get(t, h, "/health?ready=1")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readiness: want 503, got %d", rec.Code)
	}
}

func TestConnectionUtilizationDegrades(t *testing.T) {
	_, resp := get(t, newChecker(t, fakeRegistry{total: 10}, fakeBus{}), "/health")
	if c := component(resp, "connections"); c.Status != StatusDegraded {
		t.Fatalf("connections: want degraded, got %s", c.Status)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newChecker(t, fakeRegistry{}, nil).HandleHealth(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("want 405, got %d", rec.Code)
	}
}

func TestFormatUptime(t *testing.T) {
	if got := formatUptime(90 * time.Second); got != "1m 30s" {
		t.Fatalf("got %q", got)
	}
}
