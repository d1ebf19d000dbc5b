package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Drop reasons for FramesDropped.
const (
	DropQueueFullOldest = "queue_full_oldest"
	DropQueueFullNewest = "queue_full_newest"
	DropConnClosed      = "connection_closed"
)

// Rejection reasons for UpgradesRejected.
const (
	RejectMaxConnections = "max_connections"
	RejectBanned         = "banned"
	RejectHandshake      = "handshake"
)

// Bus envelope outcomes.
const (
	BusReceived = "received"
	BusInvalid  = "invalid"
	BusDropped  = "dropped"
	BusRouted   = "routed"
)

var (
	eventWindow      = NewSlidingWindow(60*time.Second, 10000)
	connectionWindow = NewSlidingWindow(60*time.Second, 1000)
)

// Local mirrors of the collectors, for the health endpoint.
var (
	messagesProcessedCount int64
	activeConnectionsCount int64
	messagesSentCount      int64
	framesDroppedCount     int64
	errorCount             int64
)

var (
	// Connection metrics
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bookhive_notifier_active_connections",
		Help: "The number of open WebSocket connections",
	})

	AuthenticatedConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bookhive_notifier_authenticated_connections",
		Help: "The number of connections bound to a userId",
	})

	ActiveSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bookhive_notifier_active_subscriptions",
		Help: "The number of channel memberships across all connections",
	})

	UpgradesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookhive_notifier_upgrades_rejected_total",
		Help: "WebSocket upgrades refused before a connection was admitted",
	}, []string{"reason"})

	ClientsBanned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookhive_notifier_clients_banned_total",
		Help: "The number of times a client IP was banned",
	})

	// Inbound metrics
	MessagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookhive_notifier_messages_received_total",
		Help: "Inbound client messages by type",
	}, []string{"type"})

	MessageSizeBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bookhive_notifier_message_size_bytes",
		Help:    "Size of received messages in bytes",
		Buckets: prometheus.ExponentialBuckets(10, 10, 6),
	})

	// Outbound metrics
	EventsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookhive_notifier_events_dispatched_total",
		Help: "Dispatch calls by event type and audience",
	}, []string{"type", "audience"})

	DispatchTargets = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookhive_notifier_dispatch_targets",
		Help:    "Connections an event was enqueued on per dispatch call",
		Buckets: []float64{0, 1, 2, 5, 10, 50, 100, 500, 1000, 10000},
	}, []string{"audience"})

	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookhive_notifier_messages_sent_total",
		Help: "Frames written to WebSocket connections",
	})

	MessageSizeBytesSent = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bookhive_notifier_message_size_bytes_sent",
		Help:    "Size of sent frames in bytes",
		Buckets: prometheus.ExponentialBuckets(10, 10, 6),
	})

	FramesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookhive_notifier_frames_dropped_total",
		Help: "Outbound frames discarded before being written",
	}, []string{"reason"})

	SendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookhive_notifier_send_failures_total",
		Help: "Writes that failed and closed their connection",
	})

	// Bus metrics
	BusEnvelopes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookhive_notifier_bus_envelopes_total",
		Help: "Envelopes taken from the event bus by outcome",
	}, []string{"driver", "outcome"})

	// Error metrics
	ErrorsCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookhive_notifier_errors_total",
		Help: "The total number of errors by type",
	}, []string{"type"})
)

// RegisterMetrics pre-creates label combinations so dashboards see zeros.
func RegisterMetrics(inboundTypes, eventTypes []string) {
	for _, t := range inboundTypes {
		MessagesReceived.WithLabelValues(t)
	}
	MessagesReceived.WithLabelValues("unknown")
	for _, audience := range []string{"all", "user", "channel", "reply"} {
		DispatchTargets.WithLabelValues(audience)
		for _, t := range eventTypes {
			EventsDispatched.WithLabelValues(t, audience)
		}
	}
	for _, reason := range []string{DropQueueFullOldest, DropQueueFullNewest, DropConnClosed} {
		FramesDropped.WithLabelValues(reason)
	}
	for _, reason := range []string{RejectMaxConnections, RejectBanned, RejectHandshake} {
		UpgradesRejected.WithLabelValues(reason)
	}
	for _, errType := range []string{"validation", "authentication", "authorization", "rate_limit", "unavailable", "network", "internal", "external"} {
		ErrorsCount.WithLabelValues(errType)
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ConnectionOpened records an admitted connection.
func ConnectionOpened() {
	ActiveConnections.Inc()
	atomic.AddInt64(&activeConnectionsCount, 1)
	connectionWindow.Add()
}

// ConnectionClosed records a forgotten connection.
func ConnectionClosed() {
	ActiveConnections.Dec()
	atomic.AddInt64(&activeConnectionsCount, -1)
}

// SetAuthenticatedConnections publishes the registry's authenticated count.
func SetAuthenticatedConnections(n int) {
	AuthenticatedConnections.Set(float64(n))
}

// AddSubscriptions adjusts the channel membership gauge by delta.
func AddSubscriptions(delta int) {
	if delta != 0 {
		ActiveSubscriptions.Add(float64(delta))
	}
}

// InboundMessage records one parsed (or unparseable) client message.
func InboundMessage(msgType string, size int) {
	MessagesReceived.WithLabelValues(msgType).Inc()
	MessageSizeBytes.Observe(float64(size))
	atomic.AddInt64(&messagesProcessedCount, 1)
	eventWindow.Add()
}

// EventDispatched records one dispatch call and how many queues it reached.
func EventDispatched(eventType, audience string, targets int) {
	EventsDispatched.WithLabelValues(eventType, audience).Inc()
	DispatchTargets.WithLabelValues(audience).Observe(float64(targets))
}

// FrameSent records one frame written to the wire.
func FrameSent(size int) {
	MessagesSent.Inc()
	MessageSizeBytesSent.Observe(float64(size))
	atomic.AddInt64(&messagesSentCount, 1)
}

// FrameDropped records a frame discarded for reason.
func FrameDropped(reason string) {
	FramesDropped.WithLabelValues(reason).Inc()
	atomic.AddInt64(&framesDroppedCount, 1)
}

// SendFailed records a failed write.
func SendFailed() {
	SendFailures.Inc()
}

// UpgradeRejected records a refused handshake.
func UpgradeRejected(reason string) {
	UpgradesRejected.WithLabelValues(reason).Inc()
}

// ClientBanned records a new ban.
func ClientBanned() {
	ClientsBanned.Inc()
}

// BusEnvelope records an envelope outcome for driver.
func BusEnvelope(driver, outcome string) {
	BusEnvelopes.WithLabelValues(driver, outcome).Inc()
}

// IncrementErrorCount increments the error counter
func IncrementErrorCount(errType string) {
	ErrorsCount.WithLabelValues(errType).Inc()
	atomic.AddInt64(&errorCount, 1)
}

// GetActiveConnectionsCount returns the current number of active WebSocket connections
func GetActiveConnectionsCount() int64 {
	return atomic.LoadInt64(&activeConnectionsCount)
}

// GetMessagesProcessedCount returns the number of inbound messages since start
func GetMessagesProcessedCount() int64 {
	return atomic.LoadInt64(&messagesProcessedCount)
}

// GetMessagesSentCount returns the current count of sent messages
func GetMessagesSentCount() int64 {
	return atomic.LoadInt64(&messagesSentCount)
}

// GetFramesDroppedCount returns the number of discarded outbound frames
func GetFramesDroppedCount() int64 {
	return atomic.LoadInt64(&framesDroppedCount)
}

// GetErrorCount returns the current error count
func GetErrorCount() int64 {
	return atomic.LoadInt64(&errorCount)
}

// GetMessagesPerSecond is the inbound message rate over the last minute
func GetMessagesPerSecond() float64 {
	return eventWindow.Rate()
}

// GetConnectionsPerSecond calculates new connections per second using a sliding window
func GetConnectionsPerSecond() float64 {
	return connectionWindow.Rate()
}

// GetErrorRate calculates the error rate as a percentage of inbound messages
func GetErrorRate() float64 {
	errs := atomic.LoadInt64(&errorCount)
	messages := atomic.LoadInt64(&messagesProcessedCount)
	if messages == 0 {
		return 0
	}
	return (float64(errs) / float64(messages)) * 100
}

// SyncActiveConnectionsCount resets the connection gauge to the registry's count.
func SyncActiveConnectionsCount(actualCount int64) {
	if atomic.SwapInt64(&activeConnectionsCount, actualCount) != actualCount {
		ActiveConnections.Set(float64(actualCount))
	}
}
