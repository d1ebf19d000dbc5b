package config

import "time"

// Outbound queue overflow policies.
const (
	OverflowDropOldest = "drop_oldest"
	OverflowDropNewest = "drop_newest"
)

// ServerConfig holds WebSocket listener settings.
type ServerConfig struct {
	WSAddr           string        `mapstructure:"WS_ADDR"           json:"ws_addr"           validate:"required,wsaddr"`
	Path             string        `mapstructure:"PATH"              json:"path"              validate:"required,startswith=/"`
	AllowedOrigins   []string      `mapstructure:"ALLOWED_ORIGINS"   json:"allowed_origins"`
	MaxConnections   int           `mapstructure:"MAX_CONNECTIONS"   json:"max_connections"   validate:"required,min=1,max=1000000"`
	MaxMessageSize   int64         `mapstructure:"MAX_MESSAGE_SIZE"  json:"max_message_size"  validate:"required,min=128,max=1048576"`
	SendQueueSize    int           `mapstructure:"SEND_QUEUE_SIZE"   json:"send_queue_size"   validate:"required,min=1,max=65536"`
	OverflowPolicy   string        `mapstructure:"OVERFLOW_POLICY"   json:"overflow_policy"   validate:"required,overflow_policy"`
	IdleTimeout      time.Duration `mapstructure:"IDLE_TIMEOUT"      json:"idle_timeout"      validate:"required,reasonable_duration"`
	WriteTimeout     time.Duration `mapstructure:"WRITE_TIMEOUT"     json:"write_timeout"     validate:"required,timeout_duration"`
	PongWait         time.Duration `mapstructure:"PONG_WAIT"         json:"pong_wait"         validate:"required,timeout_duration"`
	HandshakeTimeout time.Duration `mapstructure:"HANDSHAKE_TIMEOUT" json:"handshake_timeout" validate:"required,timeout_duration"`
}

// PingPeriod is how often the write loop pings; it must stay below PongWait.
func (s ServerConfig) PingPeriod() time.Duration {
	return s.PongWait * 9 / 10
}
