package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/BookHive-Network/notifier/internal/config"
	"github.com/BookHive-Network/notifier/internal/errors"
	"github.com/BookHive-Network/notifier/internal/logger"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// NATS is a core NATS backend. No queue group is used: every node must see
// every envelope.
type NATS struct {
	nc      *nats.Conn
	subject string
}

// NewNATS connects with unlimited reconnects.
func NewNATS(subject string, cfg config.NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, errors.ConfigurationError("bus.nats.url", "missing")
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 500 * time.Millisecond
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}

	log := logger.New("bus").With(zap.String("driver", config.BusNATS))
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	if cfg.User != "" {
		opts = append(opts, nats.UserInfo(cfg.User, cfg.Password))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, errors.BusError(config.BusNATS, "connect", err)
	}
	return &NATS{nc: nc, subject: subject}, nil
}

func (n *NATS) Name() string { return config.BusNATS }

// Subscribe blocks until ctx is done, then drains the subscription.
func (n *NATS) Subscribe(ctx context.Context, h Handler) error {
	sub, err := n.nc.Subscribe(n.subject, func(m *nats.Msg) {
		h(m.Data)
	})
	if err != nil {
		return errors.BusError(config.BusNATS, "subscribe", err)
	}
	<-ctx.Done()
	_ = sub.Drain()
	return nil
}

func (n *NATS) Publish(ctx context.Context, payload []byte) error {
	if err := n.nc.Publish(n.subject, payload); err != nil {
		return errors.BusError(config.BusNATS, "publish", err)
	}
	if _, ok := ctx.Deadline(); ok {
		if err := n.nc.FlushWithContext(ctx); err != nil {
			return errors.BusError(config.BusNATS, "flush", err)
		}
	}
	return nil
}

func (n *NATS) Ping(ctx context.Context) error {
	if status := n.nc.Status(); status != nats.CONNECTED {
		return fmt.Errorf("nats status %s", status)
	}
	return ctx.Err()
}

func (n *NATS) Close() error {
	return n.nc.Drain()
}
