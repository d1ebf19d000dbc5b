package bus

import (
	"context"

	"github.com/BookHive-Network/notifier/internal/domain"
	"github.com/BookHive-Network/notifier/internal/logger"
	"github.com/BookHive-Network/notifier/internal/metrics"
	"github.com/BookHive-Network/notifier/internal/workers"
	"go.uber.org/zap"
)

// Ingress feeds bus payloads into a dispatcher through a worker pool, so a
// slow decode never stalls the broker client.
type Ingress struct {
	sub        Subscriber
	name       string
	dispatcher domain.Dispatcher
	pool       *workers.WorkerPool
	logger     *zap.Logger
}

// NewIngress wires a subscriber to d; name labels metrics and logs.
func NewIngress(name string, sub Subscriber, d domain.Dispatcher, pool *workers.WorkerPool) *Ingress {
	return &Ingress{
		sub:        sub,
		name:       name,
		dispatcher: d,
		pool:       pool,
		logger:     logger.New("bus").With(zap.String("driver", name)),
	}
}

// Run subscribes and blocks until ctx is done or the subscription fails.
func (in *Ingress) Run(ctx context.Context) error {
	in.logger.Info("Bus ingress started")
	err := in.sub.Subscribe(ctx, in.Handle)
	if err != nil {
		in.logger.Error("Bus ingress stopped", zap.Error(err))
		return err
	}
	in.logger.Info("Bus ingress stopped")
	return nil
}

// Handle queues one payload for routing. Payloads are dropped when the
// pool is saturated.
func (in *Ingress) Handle(payload []byte) {
	metrics.BusEnvelope(in.name, metrics.BusReceived)
	raw := append([]byte(nil), payload...)
	if !in.pool.Submit(func() { in.route(raw) }) {
		metrics.BusEnvelope(in.name, metrics.BusDropped)
		in.logger.Warn("Bus envelope dropped, worker queue full",
			zap.Int("queue_capacity", in.pool.Capacity()))
	}
}

func (in *Ingress) route(raw []byte) {
	env, e, err := DecodeEnvelope(raw)
	if err != nil {
		metrics.BusEnvelope(in.name, metrics.BusInvalid)
		in.logger.Warn("Invalid bus envelope", zap.Error(err), zap.Int("size", len(raw)))
		return
	}
	n := Route(in.dispatcher, env, e)
	metrics.BusEnvelope(in.name, metrics.BusRouted)
	in.logger.Debug("Bus envelope routed",
		zap.String("type", string(e.Type())),
		zap.String("audience", env.Audience),
		zap.Int("targets", n))
}
