package bus

import (
	"context"
	"time"

	"github.com/BookHive-Network/notifier/internal/config"
	"github.com/BookHive-Network/notifier/internal/errors"
	"github.com/redis/go-redis/v9"
)

// Redis is a pub/sub backend on a single Redis channel.
type Redis struct {
	client *redis.Client
	topic  string
}

// NewRedis connects and pings the server.
func NewRedis(ctx context.Context, topic string, cfg config.RedisConfig) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.BusError(config.BusRedis, "connect", err)
	}
	return &Redis{client: rdb, topic: topic}, nil
}

func (r *Redis) Name() string { return config.BusRedis }

// Subscribe blocks until ctx is done. go-redis resubscribes on its own
// after a dropped connection.
func (r *Redis) Subscribe(ctx context.Context, h Handler) error {
	pubsub := r.client.Subscribe(ctx, r.topic)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.BusError(config.BusRedis, "subscribe", err)
	}

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			h([]byte(msg.Payload))
		}
	}
}

func (r *Redis) Publish(ctx context.Context, payload []byte) error {
	if err := r.client.Publish(ctx, r.topic, payload).Err(); err != nil {
		return errors.BusError(config.BusRedis, "publish", err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
