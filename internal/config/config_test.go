package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg, err := Default()
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if cfg.Server.Path != "/ws" {
		t.Errorf("path: want /ws, got %q", cfg.Server.Path)
	}
	if cfg.Server.OverflowPolicy != OverflowDropOldest {
		t.Errorf("overflow policy: want %s, got %q", OverflowDropOldest, cfg.Server.OverflowPolicy)
	}
	if cfg.Session.DuplicatePolicy != DuplicateReplace {
		t.Errorf("duplicate policy: want %s, got %q", DuplicateReplace, cfg.Session.DuplicatePolicy)
	}
	if cfg.Bus.Driver != BusNone {
		t.Errorf("bus driver: want none, got %q", cfg.Bus.Driver)
	}
	if cfg.Bus.Topic != "bookhive.notifications" {
		t.Errorf("bus topic: got %q", cfg.Bus.Topic)
	}
	if got, want := cfg.Server.PingPeriod(), 54*time.Second; got != want {
		t.Errorf("ping period: want %v, got %v", want, got)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("BOOKHIVE_SERVER_WS_ADDR", "127.0.0.1:9999")
	t.Setenv("BOOKHIVE_SESSION_DUPLICATE_POLICY", "close_previous")

	cfg, err := Read("", nil, nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if cfg.Server.WSAddr != "127.0.0.1:9999" {
		t.Errorf("ws addr: got %q", cfg.Server.WSAddr)
	}
	if cfg.Session.DuplicatePolicy != DuplicateClosePrevious {
		t.Errorf("duplicate policy: got %q", cfg.Session.DuplicatePolicy)
	}
}

func TestFileAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifier.yaml")
	body := "server:\n  send_queue_size: 8\n  overflow_policy: drop_newest\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Read(path, nil, Overrides{"logging.level": "warn"})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if cfg.Server.SendQueueSize != 8 {
		t.Errorf("send queue size: want 8, got %d", cfg.Server.SendQueueSize)
	}
	if cfg.Server.OverflowPolicy != OverflowDropNewest {
		t.Errorf("overflow policy: got %q", cfg.Server.OverflowPolicy)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("override should win over file: got %q", cfg.Logging.Level)
	}
}

func TestInvalidValuesRejected(t *testing.T) {
	tests := []struct {
		name      string
		overrides Overrides
		mention   string
	}{
		{"overflow policy", Overrides{"server.overflow_policy": "drop_random"}, "OverflowPolicy"},
		{"duplicate policy", Overrides{"session.duplicate_policy": "allow_many"}, "DuplicatePolicy"},
		{"bus driver", Overrides{"bus.driver": "kafka"}, "Driver"},
		{"ws addr", Overrides{"server.ws_addr": "not-an-addr"}, "WSAddr"},
		{"log level", Overrides{"logging.level": "verbose"}, "Level"},
		{"port conflict", Overrides{"server.ws_addr": ":9090", "metrics.port": 9090}, "metrics port"},
		{"redis without addr", Overrides{"bus.driver": "redis"}, "Addr"},
		{"nats without url", Overrides{"bus.driver": "nats"}, "URL"},
		{"postgres without dsn", Overrides{"bus.driver": "postgres"}, "DSN"},
		{"pong wait below write timeout", Overrides{"server.pong_wait": "5s"}, "PongWait"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read("", nil, tt.overrides)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.mention) {
				t.Errorf("error should mention %q: %v", tt.mention, err)
			}
		})
	}
}

func TestUnknownKeyRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notifier.yaml")
	if err := os.WriteFile(path, []byte("server:\n  frobnicate: true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path, nil, nil); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestValidateNil(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}
