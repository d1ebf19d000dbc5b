package bus

import (
	"context"
	"time"

	"github.com/BookHive-Network/notifier/internal/config"
	"github.com/BookHive-Network/notifier/internal/errors"
	"github.com/BookHive-Network/notifier/internal/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Postgres uses LISTEN/NOTIFY. The listener holds a dedicated connection
// outside the pool; publishing goes through the pool.
type Postgres struct {
	dsn            string
	channel        string
	reconnectDelay time.Duration
	pool           *pgxpool.Pool
	logger         *zap.Logger
}

// NewPostgres opens the publishing pool and checks it.
func NewPostgres(ctx context.Context, channel string, cfg config.PostgresConfig) (*Postgres, error) {
	if cfg.DSN == "" {
		return nil, errors.ConfigurationError("bus.postgres.dsn", "missing")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, errors.BusError(config.BusPostgres, "connect", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.BusError(config.BusPostgres, "connect", err)
	}

	delay := cfg.ReconnectDelay
	if delay <= 0 {
		delay = 2 * time.Second
	}
	return &Postgres{
		dsn:            cfg.DSN,
		channel:        channel,
		reconnectDelay: delay,
		pool:           pool,
		logger:         logger.New("bus").With(zap.String("driver", config.BusPostgres)),
	}, nil
}

func (p *Postgres) Name() string { return config.BusPostgres }

// Subscribe listens until ctx is done, reconnecting after failures.
// Notifications sent while disconnected are lost.
func (p *Postgres) Subscribe(ctx context.Context, h Handler) error {
	for {
		err := p.listen(ctx, h)
		if ctx.Err() != nil {
			return nil
		}
		if !errors.IsRecoverable(err) {
			return err
		}
		p.logger.Warn("Listener lost, reconnecting",
			zap.Error(err),
			zap.Duration("delay", p.reconnectDelay))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(p.reconnectDelay):
		}
	}
}

func (p *Postgres) listen(ctx context.Context, h Handler) error {
	conn, err := pgx.Connect(ctx, p.dsn)
	if err != nil {
		return errors.BusError(config.BusPostgres, "connect", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{p.channel}.Sanitize()); err != nil {
		return errors.BusError(config.BusPostgres, "listen", err)
	}
	p.logger.Debug("Listening", zap.String("channel", p.channel))

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return errors.BusError(config.BusPostgres, "wait", err)
		}
		h([]byte(n.Payload))
	}
}

// Publish sends a NOTIFY. Postgres caps payloads just under 8000 bytes.
func (p *Postgres) Publish(ctx context.Context, payload []byte) error {
	if _, err := p.pool.Exec(ctx, "SELECT pg_notify($1, $2)", p.channel, string(payload)); err != nil {
		return errors.BusError(config.BusPostgres, "publish", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
