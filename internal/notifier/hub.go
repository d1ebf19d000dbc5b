package notifier

import (
	"fmt"
	"sync"
	"time"

	"github.com/BookHive-Network/notifier/internal/config"
	"github.com/BookHive-Network/notifier/internal/errors"
	"github.com/BookHive-Network/notifier/internal/events"
	"github.com/BookHive-Network/notifier/internal/logger"
	"github.com/BookHive-Network/notifier/internal/metrics"
	"go.uber.org/zap"
)

// DuplicatePolicy decides what happens to the older connection when a
// userId authenticates on a second connection.
type DuplicatePolicy int

const (
	// Replace repoints the registry entry and leaves the old connection open.
	Replace DuplicatePolicy = iota
	// ClosePrevious repoints the entry and closes the old connection.
	ClosePrevious
)

// ParseDuplicatePolicy maps the configuration value to a policy.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case config.DuplicateReplace, "":
		return Replace, nil
	case config.DuplicateClosePrevious:
		return ClosePrevious, nil
	default:
		return Replace, fmt.Errorf("unknown duplicate session policy %q", s)
	}
}

// Audience labels used in logs and metrics.
const (
	AudienceAll     = "all"
	AudienceUser    = "user"
	AudienceChannel = "channel"
	AudienceReply   = "reply"
)

// Options configure a Hub.
type Options struct {
	DuplicatePolicy DuplicatePolicy
	WelcomeMessage  string
	Logger          *zap.Logger
	Now             func() time.Time
}

// Hub owns the connection registry, the per-user index and dispatch.
// Lock order is hub.mu before Conn.mu; no Conn method calls back into the hub.
type Hub struct {
	mu     sync.RWMutex
	conns  map[*Conn]struct{}
	byUser map[string]*Conn

	policy  DuplicatePolicy
	welcome string
	now     func() time.Time
	logger  *zap.Logger
}

// NewHub creates an empty registry.
func NewHub(opts Options) *Hub {
	h := &Hub{
		conns:   make(map[*Conn]struct{}),
		byUser:  make(map[string]*Conn),
		policy:  opts.DuplicatePolicy,
		welcome: opts.WelcomeMessage,
		now:     opts.Now,
		logger:  opts.Logger,
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.logger == nil {
		h.logger = logger.New("hub")
	}
	return h
}

/* ------------------------------------------------------------------ *
|  Registry                                                           |
* -------------------------------------------------------------------*/

// Admit registers a new unauthenticated connection. Closed connections
// are refused.
func (h *Hub) Admit(c *Conn) bool {
	if c.IsClosed() {
		return false
	}
	h.mu.Lock()
	if _, ok := h.conns[c]; ok {
		h.mu.Unlock()
		return true
	}
	h.conns[c] = struct{}{}
	total := len(h.conns)
	h.mu.Unlock()

	metrics.ConnectionOpened()
	h.logger.Debug("Connection admitted",
		zap.String("conn_id", c.ID()),
		zap.String("remote_addr", c.RemoteAddr()),
		zap.Int("connections", total))
	return true
}

// Open admits c and sends the welcome event.
func (h *Hub) Open(c *Conn) bool {
	if !h.Admit(c) {
		return false
	}
	h.Reply(c, events.Welcome{Message: h.welcome})
	return true
}

// Authenticate binds userID to c. An empty userID is answered with
// auth_error and changes nothing.
func (h *Hub) Authenticate(c *Conn, userID string) error {
	if userID == "" {
		err := errors.AuthenticationError("User ID is required")
		h.Reply(c, events.AuthError{Message: errors.UserMessage(err)})
		return err
	}

	h.mu.Lock()
	if _, ok := h.conns[c]; !ok {
		h.mu.Unlock()
		return errors.New(errors.ErrorTypeNotFound, "CONN_NOT_REGISTERED", "authenticate on a connection that is not registered").
			WithSeverity(errors.SeverityLow)
	}
	prev := c.bind(userID)
	if prev != "" && prev != userID && h.byUser[prev] == c {
		delete(h.byUser, prev)
	}
	var displaced *Conn
	if old, ok := h.byUser[userID]; ok && old != c {
		displaced = old
	}
	h.byUser[userID] = c
	authenticated := len(h.byUser)
	h.mu.Unlock()

	metrics.SetAuthenticatedConnections(authenticated)
	h.Reply(c, events.Authenticated{UserID: userID})

	if displaced != nil {
		h.logger.Debug("Registry entry replaced by newer session",
			zap.String("user_id", userID),
			zap.String("previous_conn_id", displaced.ID()),
			zap.String("conn_id", c.ID()))
		if h.policy == ClosePrevious {
			h.Forget(displaced, "replaced by newer session")
		}
	}
	return nil
}

// Forget removes c from the registry and closes it. The userId entry is
// only removed while it still points at c.
func (h *Hub) Forget(c *Conn, reason string) bool {
	h.mu.Lock()
	if _, ok := h.conns[c]; !ok {
		h.mu.Unlock()
		c.Close(reason)
		return false
	}
	delete(h.conns, c)
	userID := c.UserID()
	if userID != "" && h.byUser[userID] == c {
		delete(h.byUser, userID)
	}
	authenticated := len(h.byUser)
	total := len(h.conns)
	h.mu.Unlock()

	c.Close(reason)
	metrics.AddSubscriptions(-c.clearChannels())
	metrics.ConnectionClosed()
	metrics.SetAuthenticatedConnections(authenticated)

	h.logger.Debug("Connection forgotten",
		zap.String("conn_id", c.ID()),
		zap.String("user_id", userID),
		zap.String("reason", reason),
		zap.Duration("duration", time.Since(c.OpenedAt())),
		zap.Int("connections", total))
	return true
}

// Count is the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// AuthenticatedCount is the number of userIds with a registry entry.
func (h *Hub) AuthenticatedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser)
}

// Lookup returns the connection currently bound to userID.
func (h *Hub) Lookup(userID string) (*Conn, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.byUser[userID]
	return c, ok
}

// CloseAll forgets every connection. The transport sees Done and sends a
// close frame.
func (h *Hub) CloseAll(reason string) int {
	h.mu.RLock()
	targets := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.Forget(c, reason)
	}
	return len(targets)
}

/* ------------------------------------------------------------------ *
|  Subscriptions                                                      |
* -------------------------------------------------------------------*/

// Subscribe adds channel to c's set and always acknowledges.
func (h *Hub) Subscribe(c *Conn, channel string) {
	if c.subscribe(channel) {
		metrics.AddSubscriptions(1)
	}
	h.Reply(c, events.Subscribed{Channel: channel})
}

// Unsubscribe removes channel from c's set and always acknowledges.
func (h *Hub) Unsubscribe(c *Conn, channel string) {
	if c.unsubscribe(channel) {
		metrics.AddSubscriptions(-1)
	}
	h.Reply(c, events.Unsubscribed{Channel: channel})
}

/* ------------------------------------------------------------------ *
|  Dispatch                                                           |
* -------------------------------------------------------------------*/

// BroadcastAll enqueues e on every open connection and returns how many
// queues accepted it.
func (h *Hub) BroadcastAll(e events.Event) int {
	frame, ok := h.encode(e, AudienceAll)
	if !ok {
		return 0
	}

	h.mu.RLock()
	targets := make([]*Conn, 0, len(h.conns))
	for c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	return h.deliver(e, AudienceAll, frame, targets)
}

// SendToUser enqueues e on the connection bound to userID. Unknown or
// closed users are a silent no-op.
func (h *Hub) SendToUser(userID string, e events.Event) int {
	frame, ok := h.encode(e, AudienceUser)
	if !ok {
		return 0
	}

	h.mu.RLock()
	c, found := h.byUser[userID]
	h.mu.RUnlock()

	if !found {
		metrics.EventDispatched(string(e.Type()), AudienceUser, 0)
		return 0
	}
	return h.deliver(e, AudienceUser, frame, []*Conn{c})
}

// SendToChannel enqueues e on every open connection subscribed to channel.
func (h *Hub) SendToChannel(channel string, e events.Event) int {
	frame, ok := h.encode(e, AudienceChannel)
	if !ok {
		return 0
	}

	h.mu.RLock()
	targets := make([]*Conn, 0)
	for c := range h.conns {
		if c.IsSubscribed(channel) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	return h.deliver(e, AudienceChannel, frame, targets)
}

// Reply enqueues e on c alone.
func (h *Hub) Reply(c *Conn, e events.Event) bool {
	frame, ok := h.encode(e, AudienceReply)
	if !ok {
		return false
	}
	return h.deliver(e, AudienceReply, frame, []*Conn{c}) == 1
}

func (h *Hub) encode(e events.Event, audience string) ([]byte, bool) {
	frame, err := events.Encode(e, h.now())
	if err != nil {
		h.logger.Error("Failed to encode event",
			zap.String("audience", audience),
			zap.Error(err))
		metrics.IncrementErrorCount(string(errors.ErrorTypeInternal))
		return nil, false
	}
	return frame, true
}

func (h *Hub) deliver(e events.Event, audience string, frame []byte, targets []*Conn) int {
	delivered := 0
	for _, c := range targets {
		if c.Enqueue(frame) {
			delivered++
		}
	}
	metrics.EventDispatched(string(e.Type()), audience, delivered)
	if audience != AudienceReply {
		h.logger.Debug("Event dispatched",
			zap.String("type", string(e.Type())),
			zap.String("audience", audience),
			zap.Int("targets", len(targets)),
			zap.Int("delivered", delivered))
	}
	return delivered
}
