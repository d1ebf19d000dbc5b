package constants

import "time"

// Service identity reported by health and logs.
const (
	DefaultServiceName = "bookhive-notifier"
	ServiceSoftware    = "github.com/BookHive-Network/notifier"
)

// HTTP server timeouts for the non-WebSocket endpoints.
const (
	HTTPReadHeaderTimeout = 10 * time.Second
	HTTPIdleTimeout       = 60 * time.Second
)

// Socket buffers for the upgrader.
const (
	WSReadBufferSize  = 4 * 1024
	WSWriteBufferSize = 16 * 1024
)

// Close handshake budget when a connection is torn down.
const CloseGracePeriod = time.Second

// Timeout constants (in seconds)
const (
	HealthCheckTimeout = 5 // Timeout for health check operations
	BusPingTimeout     = 2 // Timeout for the bus health ping
)

// Health thresholds.
const (
	MemoryWarningMB   = 500
	MemoryCriticalMB  = 1000
	GoroutineWarning  = 25000
	GoroutineCritical = 60000

	ConnectionDegradedPercent = 90
)
