package limiter

import (
	"github.com/BookHive-Network/notifier/internal/config"
	"golang.org/x/time/rate"
)

// MessageLimiter is a per-connection token bucket on inbound messages.
// A nil *MessageLimiter allows everything.
type MessageLimiter struct {
	limiter *rate.Limiter
}

// NewMessageLimiter returns nil when rate limiting is disabled.
func NewMessageLimiter(cfg config.RateLimitConfig) *MessageLimiter {
	if !cfg.Enabled {
		return nil
	}
	return &MessageLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.MessagesPerSecond), cfg.Burst),
	}
}

// Allow consumes one token if available.
func (m *MessageLimiter) Allow() bool {
	if m == nil {
		return true
	}
	return m.limiter.Allow()
}
