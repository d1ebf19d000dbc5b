package notifier

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BookHive-Network/notifier/internal/config"
	"github.com/BookHive-Network/notifier/internal/metrics"
)

// OverflowPolicy decides which frame loses when an outbound queue is full.
type OverflowPolicy int

const (
	// DropOldest evicts the oldest queued frame to make room.
	DropOldest OverflowPolicy = iota
	// DropNewest discards the frame being enqueued.
	DropNewest
)

func (p OverflowPolicy) String() string {
	if p == DropNewest {
		return config.OverflowDropNewest
	}
	return config.OverflowDropOldest
}

// ParseOverflowPolicy maps the configuration value to a policy.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case config.OverflowDropOldest, "":
		return DropOldest, nil
	case config.OverflowDropNewest:
		return DropNewest, nil
	default:
		return DropOldest, fmt.Errorf("unknown overflow policy %q", s)
	}
}

// Conn is one client session as the hub sees it: identity, channel set and
// a bounded outbound queue. The transport drains Outbound and watches Done.
type Conn struct {
	id         string
	remoteAddr string
	openedAt   time.Time
	policy     OverflowPolicy

	out    chan []byte
	sendMu sync.Mutex // serializes producers so drop-oldest evicts exactly one frame

	mu       sync.Mutex
	userID   string
	channels map[string]struct{}
	reason   string

	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
}

// NewConn returns an open connection with a queue of queueSize frames.
func NewConn(id, remoteAddr string, queueSize int, policy OverflowPolicy) *Conn {
	if queueSize < 1 {
		queueSize = 1
	}
	if id == "" {
		id = NewConnID()
	}
	return &Conn{
		id:         id,
		remoteAddr: remoteAddr,
		openedAt:   time.Now(),
		policy:     policy,
		out:        make(chan []byte, queueSize),
		channels:   make(map[string]struct{}),
		done:       make(chan struct{}),
	}
}

// NewConnID returns a random 16-character hex id.
func NewConnID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func (c *Conn) ID() string           { return c.id }
func (c *Conn) RemoteAddr() string   { return c.remoteAddr }
func (c *Conn) OpenedAt() time.Time  { return c.openedAt }
func (c *Conn) IsClosed() bool       { return c.closed.Load() }
func (c *Conn) QueueLen() int        { return len(c.out) }
func (c *Conn) QueueCap() int        { return cap(c.out) }
func (c *Conn) Done() <-chan struct{} { return c.done }

// Outbound yields queued frames in enqueue order. It is never closed;
// select on Done as well.
func (c *Conn) Outbound() <-chan []byte { return c.out }

// UserID is the bound user, or "" while unauthenticated.
func (c *Conn) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// Authenticated reports whether a userId is bound.
func (c *Conn) Authenticated() bool {
	return c.UserID() != ""
}

// Channels returns the subscribed channel names, sorted.
func (c *Conn) Channels() []string {
	c.mu.Lock()
	out := make([]string, 0, len(c.channels))
	for ch := range c.channels {
		out = append(out, ch)
	}
	c.mu.Unlock()
	sort.Strings(out)
	return out
}

// IsSubscribed reports channel membership.
func (c *Conn) IsSubscribed(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.channels[channel]
	return ok
}

// CloseReason is the reason passed to the first Close call.
func (c *Conn) CloseReason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

// Enqueue places frame on the outbound queue without blocking. It returns
// false when the connection is closed or the frame itself was dropped.
func (c *Conn) Enqueue(frame []byte) bool {
	if c.closed.Load() {
		metrics.FrameDropped(metrics.DropConnClosed)
		return false
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	for {
		select {
		case c.out <- frame:
			return true
		default:
		}

		if c.policy == DropNewest {
			metrics.FrameDropped(metrics.DropQueueFullNewest)
			return false
		}

		select {
		case <-c.out:
			metrics.FrameDropped(metrics.DropQueueFullOldest)
		default:
			// the writer drained it first
		}
	}
}

// Close marks the connection closed and releases Done. Safe to call repeatedly.
func (c *Conn) Close(reason string) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.reason = reason
		c.mu.Unlock()
		c.closed.Store(true)
		close(c.done)
	})
}

// bind sets the userId and returns the previous one.
func (c *Conn) bind(userID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.userID
	c.userID = userID
	return prev
}

func (c *Conn) subscribe(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.channels[channel]; ok {
		return false
	}
	c.channels[channel] = struct{}{}
	return true
}

func (c *Conn) unsubscribe(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.channels[channel]; !ok {
		return false
	}
	delete(c.channels, channel)
	return true
}

func (c *Conn) clearChannels() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.channels)
	c.channels = make(map[string]struct{})
	return n
}
