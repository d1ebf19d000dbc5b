package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/BookHive-Network/notifier/internal/config"
)

func fakeClock(start time.Time) (*time.Time, func() time.Time) {
	now := start
	return &now, func() time.Time { return now }
}

func TestBanAfterThreshold(t *testing.T) {
	b := NewBanList(3, time.Minute)
	now, clock := fakeClock(time.Unix(1_700_000_000, 0))
	b.now = clock

	for i := 1; i < 3; i++ {
		if b.RecordViolation("10.0.0.1") {
			t.Fatalf("violation %d should not ban", i)
		}
	}
	if banned, _ := b.IsBanned("10.0.0.1"); banned {
		t.Fatal("banned before threshold")
	}
	if !b.RecordViolation("10.0.0.1") {
		t.Fatal("third violation should ban")
	}

	banned, remaining := b.IsBanned("10.0.0.1")
	if !banned || remaining != time.Minute {
		t.Fatalf("banned=%v remaining=%v", banned, remaining)
	}
	if banned, _ := b.IsBanned("10.0.0.2"); banned {
		t.Fatal("other IP banned")
	}

	*now = now.Add(time.Minute)
	if banned, _ := b.IsBanned("10.0.0.1"); banned {
		t.Fatal("ban should expire")
	}
}

func TestResetClearsViolations(t *testing.T) {
	b := NewBanList(2, time.Minute)
	b.RecordViolation("ip")
	b.Reset("ip")
	if b.RecordViolation("ip") {
		t.Fatal("reset should have cleared the earlier violation")
	}
}

func TestSweep(t *testing.T) {
	b := NewBanList(1, time.Minute)
	now, clock := fakeClock(time.Unix(1_700_000_000, 0))
	b.now = clock

	b.RecordViolation("a")
	*now = now.Add(30 * time.Second)
	b.RecordViolation("b")
	*now = now.Add(45 * time.Second)

	if removed := b.Sweep(); removed != 1 {
		t.Fatalf("removed: want 1, got %d", removed)
	}
	if b.Len() != 1 {
		t.Fatalf("remaining: want 1, got %d", b.Len())
	}
}

func TestSweeperStopsWithContext(t *testing.T) {
	b := NewBanList(1, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	b.StartSweeper(ctx, 5*time.Millisecond)
	b.RecordViolation("a")

	deadline := time.After(2 * time.Second)
	for b.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("sweeper never removed the expired ban")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
}

func TestMessageLimiter(t *testing.T) {
	var disabled *MessageLimiter
	if !disabled.Allow() {
		t.Fatal("nil limiter must allow")
	}
	if NewMessageLimiter(config.RateLimitConfig{Enabled: false}) != nil {
		t.Fatal("disabled config should yield nil limiter")
	}

	l := NewMessageLimiter(config.RateLimitConfig{Enabled: true, MessagesPerSecond: 0.001, Burst: 2})
	if !l.Allow() || !l.Allow() {
		t.Fatal("burst should be allowed")
	}
	if l.Allow() {
		t.Fatal("third message should be limited")
	}
}
