package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/BookHive-Network/notifier/internal/logger"
	"go.uber.org/zap"
)

// BanList tracks rate-limit violations per client IP and bans an IP for a
// fixed duration once it crosses the threshold.
type BanList struct {
	mu         sync.Mutex
	bans       map[string]time.Time // ip -> expiry
	violations map[string]int

	threshold int
	duration  time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewBanList creates an empty ban list.
func NewBanList(threshold int, duration time.Duration) *BanList {
	if threshold < 1 {
		threshold = 1
	}
	return &BanList{
		bans:       make(map[string]time.Time),
		violations: make(map[string]int),
		threshold:  threshold,
		duration:   duration,
		now:        time.Now,
		logger:     logger.New("banlist"),
	}
}

// IsBanned reports whether ip is banned and for how much longer.
func (b *BanList) IsBanned(ip string) (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiry, ok := b.bans[ip]
	if !ok {
		return false, 0
	}
	now := b.now()
	if !now.Before(expiry) {
		delete(b.bans, ip)
		return false, 0
	}
	return true, expiry.Sub(now)
}

// RecordViolation counts one violation for ip and returns true when this
// violation triggered a ban.
func (b *BanList) RecordViolation(ip string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.violations[ip]++
	count := b.violations[ip]
	if count < b.threshold {
		b.logger.Debug("Client rate limit violation",
			zap.String("client_ip", ip),
			zap.Int("violation_count", count),
			zap.Int("ban_threshold", b.threshold))
		return false
	}

	expiry := b.now().Add(b.duration)
	b.bans[ip] = expiry
	delete(b.violations, ip)
	b.logger.Warn("Banning client due to repeated rate limit violations",
		zap.String("client_ip", ip),
		zap.Int("violation_count", count),
		zap.Duration("ban_duration", b.duration),
		zap.Time("ban_expires", expiry))
	return true
}

// Reset clears the violation count for ip, e.g. after a clean connection.
func (b *BanList) Reset(ip string) {
	b.mu.Lock()
	delete(b.violations, ip)
	b.mu.Unlock()
}

// Sweep drops expired bans and returns how many were removed.
func (b *BanList) Sweep() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	removed := 0
	for ip, expiry := range b.bans {
		if !now.Before(expiry) {
			delete(b.bans, ip)
			removed++
		}
	}
	if removed > 0 {
		b.logger.Debug("Ban list cleanup completed",
			zap.Int("unbanned_count", removed),
			zap.Int("remaining_bans", len(b.bans)))
	}
	return removed
}

// Len is the number of bans currently stored, expired or not.
func (b *BanList) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.bans)
}

// StartSweeper runs Sweep every interval until ctx is done.
func (b *BanList) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.Sweep()
			}
		}
	}()
}
