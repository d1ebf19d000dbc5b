package application

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/BookHive-Network/notifier/internal/bus"
	"github.com/BookHive-Network/notifier/internal/config"
	"github.com/BookHive-Network/notifier/internal/constants"
	"github.com/BookHive-Network/notifier/internal/domain"
	"github.com/BookHive-Network/notifier/internal/gateway"
	"github.com/BookHive-Network/notifier/internal/health"
	"github.com/BookHive-Network/notifier/internal/limiter"
	"github.com/BookHive-Network/notifier/internal/logger"
	"github.com/BookHive-Network/notifier/internal/metrics"
	"github.com/BookHive-Network/notifier/internal/notifier"
	"github.com/BookHive-Network/notifier/internal/workers"
	"go.uber.org/zap"
)

const metricsSyncInterval = 30 * time.Second

// Node ties together the components needed to run one notifier process.
type Node struct {
	ctx    context.Context
	cancel context.CancelFunc

	config     *config.Config
	hub        *notifier.Hub
	bans       *limiter.BanList
	WorkerPool *workers.WorkerPool
	backend    bus.Backend
	ingress    *bus.Ingress
	health     *health.HealthChecker
	server     *gateway.Server
	metricsSrv *http.Server

	background sync.WaitGroup
	errs       chan error
	startTime  time.Time
}

// Ensure Node implements domain.NodeInterface
var _ domain.NodeInterface = (*Node)(nil)

// New creates and configures a Node using the NodeBuilder pattern.
func New(ctx context.Context, cfg *config.Config) (*Node, error) {
	builder := NewNodeBuilder(ctx, cfg)

	if err := builder.BuildHub(); err != nil {
		builder.Abort()
		return nil, fmt.Errorf("failed building hub: %w", err)
	}
	builder.BuildBans()
	builder.BuildWorkers()
	if err := builder.BuildBus(); err != nil {
		builder.Abort()
		return nil, fmt.Errorf("failed building bus: %w", err)
	}
	builder.BuildHealth()
	if err := builder.BuildServer(); err != nil {
		builder.Abort()
		return nil, fmt.Errorf("failed building server: %w", err)
	}

	node, err := builder.Build()
	if err != nil {
		builder.Abort()
		return nil, fmt.Errorf("failed to build node: %w", err)
	}
	return node, nil
}

// Start launches the listeners and background loops and returns at once.
// Fatal runtime failures are reported on Errors.
func (n *Node) Start(ctx context.Context) error {
	n.bans.StartSweeper(n.ctx, n.config.RateLimit.SweepInterval)

	if n.ingress != nil {
		n.goBackground(func() {
			if err := n.ingress.Run(n.ctx); err != nil {
				n.report(fmt.Errorf("bus ingress: %w", err))
			}
		})
	}

	n.goBackground(func() {
		if err := n.server.ListenAndServe(n.ctx); err != nil {
			n.report(err)
		}
	})

	if n.metricsSrv != nil {
		n.goBackground(func() {
			logger.Info("Metrics server listening",
				zap.String("address", n.metricsSrv.Addr),
				zap.String("path", n.config.Metrics.Path))
			if err := n.metricsSrv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				n.report(fmt.Errorf("metrics server: %w", err))
			}
		})
	}

	n.goBackground(n.syncMetrics)

	logger.Info("Node started",
		zap.String("ws_addr", n.config.Server.WSAddr),
		zap.String("bus", n.config.Bus.Driver),
		zap.Bool("metrics", n.metricsSrv != nil))
	return nil
}

// Errors delivers failures of listeners or the bus after Start.
func (n *Node) Errors() <-chan error {
	return n.errs
}

func (n *Node) report(err error) {
	select {
	case n.errs <- err:
	default:
		logger.Error("Node error", zap.Error(err))
	}
}

func (n *Node) goBackground(fn func()) {
	n.background.Add(1)
	go func() {
		defer n.background.Done()
		fn()
	}()
}

// syncMetrics keeps the connection gauge aligned with the registry.
func (n *Node) syncMetrics() {
	ticker := time.NewTicker(metricsSyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-n.ctx.Done():
			return
		case <-ticker.C:
			metrics.SyncActiveConnectionsCount(int64(n.hub.Count()))
			metrics.SetAuthenticatedConnections(n.hub.AuthenticatedCount())
		}
	}
}

// Shutdown gracefully shuts down the node within general.shutdown_timeout.
func (n *Node) Shutdown() {
	logger.Info("Initiating graceful shutdown...")
	shutdownTimeout := n.config.General.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var shutdownErrors []error
	connections := n.hub.Count()

	// Step 1: stop accepting clients and close every connection
	if err := n.server.Shutdown(shutdownCtx); err != nil {
		shutdownErrors = append(shutdownErrors, fmt.Errorf("websocket server: %w", err))
	}

	// Step 2: metrics listener
	if n.metricsSrv != nil {
		if err := n.metricsSrv.Shutdown(shutdownCtx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server: %w", err))
		}
	}

	// Step 3: stop the ingress and background loops
	if n.cancel != nil {
		n.cancel()
	}
	if err := waitTimeout(shutdownCtx, n.background.Wait); err != nil {
		shutdownErrors = append(shutdownErrors, fmt.Errorf("background loops: %w", err))
	}

	// Step 4: broker connection
	if n.backend != nil {
		if err := n.backend.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("bus %s: %w", n.backend.Name(), err))
		}
	}

	// Step 5: drain the worker pool
	if err := waitTimeout(shutdownCtx, n.WorkerPool.Stop); err != nil {
		shutdownErrors = append(shutdownErrors, fmt.Errorf("worker pool: %w", err))
	}

	fields := []zap.Field{
		zap.Int("connections_closed", connections),
		zap.Int64("bus_jobs_executed", n.WorkerPool.Executed()),
		zap.Int64("bus_jobs_dropped", n.WorkerPool.Dropped()),
		zap.Int("active_bans", n.bans.Len()),
		zap.Duration("uptime", time.Since(n.startTime)),
		zap.Duration("shutdown_timeout", shutdownTimeout),
	}
	if len(shutdownErrors) > 0 {
		logger.Warn("Node shutdown completed with errors",
			append(fields, zap.Errors("errors", shutdownErrors))...)
		return
	}
	logger.Info("Node shutdown completed successfully", fields...)
}

func waitTimeout(ctx context.Context, wait func()) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		wait()
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newMetricsServer(cfg config.MetricsConfig) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, metrics.Handler())
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: constants.HTTPReadHeaderTimeout,
	}
}
