package config

import "time"

// Bus drivers.
const (
	BusNone     = "none"
	BusRedis    = "redis"
	BusNATS     = "nats"
	BusPostgres = "postgres"
)

// BusConfig selects the broker that carries envelopes from other processes.
type BusConfig struct {
	Driver    string         `mapstructure:"DRIVER"     json:"driver"     validate:"required,bus_driver"`
	Topic     string         `mapstructure:"TOPIC"      json:"topic"      validate:"required,min=1,max=63"`
	Workers   int            `mapstructure:"WORKERS"    json:"workers"    validate:"required,min=1,max=256"`
	QueueSize int            `mapstructure:"QUEUE_SIZE" json:"queue_size" validate:"required,min=1,max=1000000"`
	Redis     RedisConfig    `mapstructure:"REDIS"      json:"redis"`
	NATS      NATSConfig     `mapstructure:"NATS"       json:"nats"`
	Postgres  PostgresConfig `mapstructure:"POSTGRES"   json:"postgres"`
}

// RedisConfig holds go-redis client settings.
type RedisConfig struct {
	Addr     string `mapstructure:"ADDR"      json:"addr"`
	Password string `mapstructure:"PASSWORD"  json:"-"`
	DB       int    `mapstructure:"DB"        json:"db"        validate:"min=0,max=15"`
	PoolSize int    `mapstructure:"POOL_SIZE" json:"pool_size" validate:"min=0,max=1000"`
}

// NATSConfig holds nats.go connection settings.
type NATSConfig struct {
	URL           string        `mapstructure:"URL"            json:"url"`
	Name          string        `mapstructure:"NAME"           json:"name"`
	User          string        `mapstructure:"USER"           json:"user"`
	Password      string        `mapstructure:"PASSWORD"       json:"-"`
	ReconnectWait time.Duration `mapstructure:"RECONNECT_WAIT" json:"reconnect_wait" validate:"omitempty,max=1m"`
	Timeout       time.Duration `mapstructure:"TIMEOUT"        json:"timeout"        validate:"omitempty,timeout_duration"`
}

// PostgresConfig holds the LISTEN/NOTIFY connection settings.
type PostgresConfig struct {
	DSN            string        `mapstructure:"DSN"             json:"-"`
	ReconnectDelay time.Duration `mapstructure:"RECONNECT_DELAY" json:"reconnect_delay" validate:"omitempty,timeout_duration"`
}
