package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/BookHive-Network/notifier/internal/config"
	"github.com/BookHive-Network/notifier/internal/constants"
	"github.com/BookHive-Network/notifier/internal/domain"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentStatus represents the status of a specific component
type ComponentStatus struct {
	Name    string         `json:"name"`
	Status  HealthStatus   `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthResponse represents the complete health check response
type HealthResponse struct {
	Status     HealthStatus       `json:"status"`
	Service    string             `json:"service"`
	Timestamp  time.Time          `json:"timestamp"`
	Version    string             `json:"version"`
	Uptime     string             `json:"uptime"`
	Components []*ComponentStatus `json:"components"`
	Summary    map[string]any     `json:"summary"`
}

// BusInterface is the broker connection as seen by health checks.
type BusInterface interface {
	Name() string
	Ping(ctx context.Context) error
}

// HealthChecker performs health checks over the registry and the bus.
type HealthChecker struct {
	registry  domain.Registry
	bus       BusInterface
	cfg       *config.Config
	logger    *zap.Logger
	startTime time.Time
	version   string
}

// NewHealthChecker creates a new health checker. bus may be nil when no
// broker is configured.
func NewHealthChecker(registry domain.Registry, bus BusInterface, cfg *config.Config, logger *zap.Logger, version string) *HealthChecker {
	return &HealthChecker{
		registry:  registry,
		bus:       bus,
		cfg:       cfg,
		logger:    logger.Named("health"),
		startTime: time.Now(),
		version:   version,
	}
}

// CheckHealth runs every component check.
func (h *HealthChecker) CheckHealth(ctx context.Context) *HealthResponse {
	startTime := time.Now()
	components := []*ComponentStatus{
		h.checkConnections(),
		h.checkBus(ctx),
		h.checkMemory(),
		h.checkSystemResources(),
	}

	return &HealthResponse{
		Status:     determineOverallStatus(components),
		Service:    h.cfg.General.Name,
		Timestamp:  time.Now(),
		Version:    h.version,
		Uptime:     formatUptime(time.Since(h.startTime)),
		Components: components,
		Summary: map[string]any{
			"total_components":     len(components),
			"healthy_components":   countComponentsByStatus(components, StatusHealthy),
			"degraded_components":  countComponentsByStatus(components, StatusDegraded),
			"unhealthy_components": countComponentsByStatus(components, StatusUnhealthy),
			"check_duration_ms":    time.Since(startTime).Milliseconds(),
		},
	}
}

// checkConnections reports registry size against the configured limit.
func (h *HealthChecker) checkConnections() *ComponentStatus {
	status := &ComponentStatus{
		Name:    "connections",
		Details: make(map[string]any),
	}

	count := h.registry.Count()
	maxConnections := h.cfg.Server.MaxConnections
	status.Details["active_connections"] = count
	status.Details["authenticated_connections"] = h.registry.AuthenticatedCount()
	status.Details["max_connections"] = maxConnections

	utilization := 0.0
	if maxConnections > 0 {
		utilization = float64(count) / float64(maxConnections) * 100
	}
	status.Details["connection_utilization_percent"] = utilization

	if utilization > constants.ConnectionDegradedPercent {
		status.Status = StatusDegraded
		status.Message = fmt.Sprintf("High connection utilization: %d/%d (%.1f%%)", count, maxConnections, utilization)
	} else {
		status.Status = StatusHealthy
		status.Message = fmt.Sprintf("Connection count normal: %d/%d (%.1f%%)", count, maxConnections, utilization)
	}
	return status
}

// checkBus pings the broker. A lost broker degrades the node: connected
// clients are still served, but cross-process events stop arriving.
func (h *HealthChecker) checkBus(ctx context.Context) *ComponentStatus {
	status := &ComponentStatus{
		Name:    "bus",
		Details: make(map[string]any),
	}
	if h.bus == nil {
		status.Status = StatusHealthy
		status.Message = "No event bus configured"
		status.Details["driver"] = config.BusNone
		return status
	}
	status.Details["driver"] = h.bus.Name()

	pingCtx, cancel := context.WithTimeout(ctx, constants.BusPingTimeout*time.Second)
	defer cancel()
	start := time.Now()
	err := h.bus.Ping(pingCtx)
	status.Details["latency_ms"] = time.Since(start).Milliseconds()
	if err != nil {
		status.Status = StatusDegraded
		status.Message = "Event bus unreachable"
		status.Details["error"] = err.Error()
		return status
	}
	status.Status = StatusHealthy
	status.Message = "Event bus is healthy"
	return status
}

// checkMemory checks memory usage
func (h *HealthChecker) checkMemory() *ComponentStatus {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status := &ComponentStatus{
		Name:    "memory",
		Details: make(map[string]any),
	}

	allocMB := float64(m.Alloc) / 1024 / 1024
	status.Details["alloc_mb"] = allocMB
	status.Details["sys_mb"] = float64(m.Sys) / 1024 / 1024
	status.Details["heap_mb"] = float64(m.HeapAlloc) / 1024 / 1024
	status.Details["num_gc"] = m.NumGC

	switch {
	case allocMB > constants.MemoryCriticalMB:
		status.Status = StatusUnhealthy
		status.Message = fmt.Sprintf("High memory usage: %.1f MB", allocMB)
	case allocMB > constants.MemoryWarningMB:
		status.Status = StatusDegraded
		status.Message = fmt.Sprintf("Elevated memory usage: %.1f MB", allocMB)
	default:
		status.Status = StatusHealthy
		status.Message = fmt.Sprintf("Memory usage normal: %.1f MB", allocMB)
	}
	return status
}

// checkSystemResources checks system-level resources
func (h *HealthChecker) checkSystemResources() *ComponentStatus {
	status := &ComponentStatus{
		Name:    "system",
		Details: make(map[string]any),
	}

	goroutineCount := runtime.NumGoroutine()
	status.Details["goroutines"] = goroutineCount
	status.Details["cpus"] = runtime.NumCPU()

	switch {
	case goroutineCount > constants.GoroutineCritical:
		status.Status = StatusUnhealthy
		status.Message = fmt.Sprintf("High goroutine count: %d", goroutineCount)
	case goroutineCount > constants.GoroutineWarning:
		status.Status = StatusDegraded
		status.Message = fmt.Sprintf("Elevated goroutine count: %d", goroutineCount)
	default:
		status.Status = StatusHealthy
		status.Message = fmt.Sprintf("System resources normal: %d goroutines", goroutineCount)
	}
	return status
}

func determineOverallStatus(components []*ComponentStatus) HealthStatus {
	overall := StatusHealthy
	for _, comp := range components {
		switch comp.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			overall = StatusDegraded
		}
	}
	return overall
}

func countComponentsByStatus(components []*ComponentStatus, status HealthStatus) int {
	count := 0
	for _, comp := range components {
		if comp.Status == status {
			count++
		}
	}
	return count
}

// formatUptime formats uptime duration as a human-readable string
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// HandleHealth is the HTTP handler for health checks. With ?ready=1 it
// answers as a readiness probe, where a degraded bus means not ready.
func (h *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), constants.HealthCheckTimeout*time.Second)
	defer cancel()

	resp := h.CheckHealth(ctx)

	statusCode := http.StatusOK
	if resp.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	if r.URL.Query().Get("ready") == "1" && !componentHealthy(resp.Components, "bus") {
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
		return
	}

	h.logger.Debug("Health check completed",
		zap.String("status", string(resp.Status)),
		zap.Int("status_code", statusCode),
		zap.String("client_ip", r.RemoteAddr))
}

func componentHealthy(components []*ComponentStatus, name string) bool {
	for _, c := range components {
		if c.Name == name {
			return c.Status == StatusHealthy
		}
	}
	return true
}
