// Package bus carries domain events from other BookHive processes into the
// local dispatcher. A producer publishes an Envelope on a broker topic;
// every notifier node subscribes and routes it to its own connections.
package bus

import (
	"context"

	"github.com/BookHive-Network/notifier/internal/config"
	"github.com/BookHive-Network/notifier/internal/errors"
)

// Handler receives one raw payload. It must not retain the slice.
type Handler func(payload []byte)

// Subscriber delivers payloads published on the topic until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, h Handler) error
}

// Publisher sends one payload on the topic.
type Publisher interface {
	Publish(ctx context.Context, payload []byte) error
}

// Backend is a broker connection.
type Backend interface {
	Subscriber
	Publisher
	Name() string
	Ping(ctx context.Context) error
	Close() error
}

// New connects to the broker cfg selects.
func New(ctx context.Context, cfg config.BusConfig) (Backend, error) {
	switch cfg.Driver {
	case config.BusRedis:
		return NewRedis(ctx, cfg.Topic, cfg.Redis)
	case config.BusNATS:
		return NewNATS(cfg.Topic, cfg.NATS)
	case config.BusPostgres:
		return NewPostgres(ctx, cfg.Topic, cfg.Postgres)
	case config.BusNone, "":
		return nil, errors.ConfigurationError("bus.driver", "no bus configured")
	default:
		return nil, errors.ConfigurationError("bus.driver", "unknown driver "+cfg.Driver)
	}
}
