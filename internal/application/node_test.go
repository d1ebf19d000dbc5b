package application

import (
	"context"
	"testing"
	"time"

	"github.com/BookHive-Network/notifier/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	cfg.Server.WSAddr = "127.0.0.1:0"
	cfg.Metrics.Enabled = false
	cfg.General.ShutdownTimeout = 5 * time.Second
	return cfg
}

func TestNodeStartAndShutdown(t *testing.T) {
	node, err := New(context.Background(), testConfig(t))
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	if node.Hub() == nil || node.Bans() == nil || node.Config() == nil {
		t.Fatal("node accessors returned nil")
	}
	if err := node.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	select {
	case err := <-node.Errors():
		t.Fatalf("unexpected runtime error: %v", err)
	case <-time.After(100 * time.Millisecond):
	}

	node.Shutdown()
	if node.GetConnectionCount() != 0 {
		t.Fatalf("connections after shutdown: %d", node.GetConnectionCount())
	}
	if node.WorkerPool.Submit(func() {}) {
		t.Fatal("worker pool still accepting jobs after shutdown")
	}
}

func TestNewFailsOnUnreachableBus(t *testing.T) {
	cfg := testConfig(t)
	cfg.Bus.Driver = config.BusRedis
	cfg.Bus.Redis.Addr = "127.0.0.1:1"

	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected an error for an unreachable redis")
	}
}

func TestNewRejectsBadDuplicatePolicy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Session.DuplicatePolicy = "many"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatal("expected an error for an unknown duplicate policy")
	}
}
