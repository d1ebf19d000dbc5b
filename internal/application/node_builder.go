package application

import (
	"context"
	"fmt"
	"time"

	"github.com/BookHive-Network/notifier/internal/bus"
	"github.com/BookHive-Network/notifier/internal/config"
	"github.com/BookHive-Network/notifier/internal/events"
	"github.com/BookHive-Network/notifier/internal/gateway"
	"github.com/BookHive-Network/notifier/internal/health"
	"github.com/BookHive-Network/notifier/internal/limiter"
	"github.com/BookHive-Network/notifier/internal/logger"
	"github.com/BookHive-Network/notifier/internal/metrics"
	"github.com/BookHive-Network/notifier/internal/notifier"
	"github.com/BookHive-Network/notifier/internal/workers"
	"go.uber.org/zap"
)

// NodeBuilder is used to incrementally construct a Node instance.
type NodeBuilder struct {
	ctx    context.Context
	cancel context.CancelFunc
	config *config.Config

	hub        *notifier.Hub
	bans       *limiter.BanList
	workerPool *workers.WorkerPool
	backend    bus.Backend
	ingress    *bus.Ingress
	health     *health.HealthChecker
	server     *gateway.Server

	// node is filled in by Build; the server reads it through the
	// NodeInterface the builder hands out.
	node *Node
}

// NewNodeBuilder creates a new NodeBuilder with its own cancelable context.
func NewNodeBuilder(ctx context.Context, cfg *config.Config) *NodeBuilder {
	c, cancel := context.WithCancel(ctx)
	return &NodeBuilder{
		ctx:    c,
		cancel: cancel,
		config: cfg,
		node:   &Node{},
	}
}

// BuildHub creates the connection registry and dispatcher.
func (b *NodeBuilder) BuildHub() error {
	policy, err := notifier.ParseDuplicatePolicy(b.config.Session.DuplicatePolicy)
	if err != nil {
		return err
	}
	metrics.RegisterMetrics(notifier.InboundTypes(), events.Strings(events.Kinds()))

	b.hub = notifier.NewHub(notifier.Options{
		DuplicatePolicy: policy,
		WelcomeMessage:  b.config.Session.WelcomeMessage,
		Logger:          logger.New("hub"),
	})
	logger.Debug("Hub initialized", zap.String("duplicate_policy", b.config.Session.DuplicatePolicy))
	return nil
}

// BuildBans creates the node-owned ban list.
func (b *NodeBuilder) BuildBans() {
	b.bans = limiter.NewBanList(b.config.RateLimit.BanThreshold, b.config.RateLimit.BanDuration)
}

// BuildWorkers initializes the worker pool that routes bus envelopes.
func (b *NodeBuilder) BuildWorkers() {
	b.workerPool = workers.NewWorkerPool("bus", b.config.Bus.Workers, b.config.Bus.QueueSize)
}

// BuildBus connects to the configured broker. Driver "none" leaves the
// node without cross-process ingress.
func (b *NodeBuilder) BuildBus() error {
	if b.config.Bus.Driver == config.BusNone {
		logger.Info("No event bus configured; only in-process producers will reach clients")
		return nil
	}
	if b.hub == nil {
		return fmt.Errorf("hub must be built before the bus")
	}
	backend, err := bus.New(b.ctx, b.config.Bus)
	if err != nil {
		return err
	}
	b.backend = backend
	b.ingress = bus.NewIngress(backend.Name(), backend, b.hub, b.workerPool)
	logger.Info("Event bus connected",
		zap.String("driver", backend.Name()),
		zap.String("topic", b.config.Bus.Topic))
	return nil
}

// BuildHealth sets up the health checker.
func (b *NodeBuilder) BuildHealth() {
	var busHealth health.BusInterface
	if b.backend != nil {
		busHealth = b.backend
	}
	b.health = health.NewHealthChecker(b.hub, busHealth, b.config, logger.New("health"), config.Version)
}

// BuildServer creates the WebSocket transport.
func (b *NodeBuilder) BuildServer() error {
	if b.health == nil {
		return fmt.Errorf("health checker must be built before the server")
	}
	// the transport only reads Hub, Bans and Config, which are set here
	b.node.hub = b.hub
	b.node.bans = b.bans
	b.node.config = b.config

	srv, err := gateway.NewServer(b.node, b.health.HandleHealth)
	if err != nil {
		return err
	}
	b.server = srv
	return nil
}

// Abort releases whatever was built so far.
func (b *NodeBuilder) Abort() {
	if b.backend != nil {
		_ = b.backend.Close()
	}
	if b.workerPool != nil {
		b.workerPool.Stop()
	}
	b.cancel()
}

// Build finalizes the node construction.
func (b *NodeBuilder) Build() (*Node, error) {
	if b.hub == nil {
		return nil, fmt.Errorf("hub must be built before calling Build()")
	}
	if b.bans == nil {
		return nil, fmt.Errorf("ban list must be built before calling Build()")
	}
	if b.workerPool == nil {
		return nil, fmt.Errorf("worker pool must be built before calling Build()")
	}
	if b.health == nil {
		return nil, fmt.Errorf("health checker must be built before calling Build()")
	}
	if b.server == nil {
		return nil, fmt.Errorf("server must be built before calling Build()")
	}

	node := b.node
	node.ctx = b.ctx
	node.cancel = b.cancel
	node.WorkerPool = b.workerPool
	node.backend = b.backend
	node.ingress = b.ingress
	node.health = b.health
	node.server = b.server
	node.errs = make(chan error, 4)
	node.startTime = time.Now()
	if b.config.Metrics.Enabled {
		node.metricsSrv = newMetricsServer(b.config.Metrics)
	}

	logger.Debug("Node initialized successfully via builder")
	return node, nil
}
