package config

import "time"

// RateLimitConfig bounds inbound client traffic and drives the ban list.
type RateLimitConfig struct {
	Enabled           bool          `mapstructure:"ENABLED"             json:"enabled"`
	MessagesPerSecond float64       `mapstructure:"MESSAGES_PER_SECOND" json:"messages_per_second" validate:"gt=0,max=10000"`
	Burst             int           `mapstructure:"BURST"               json:"burst"               validate:"required,min=1,max=10000"`
	BanThreshold      int           `mapstructure:"BAN_THRESHOLD"       json:"ban_threshold"       validate:"required,min=1,max=1000"`
	BanDuration       time.Duration `mapstructure:"BAN_DURATION"        json:"ban_duration"        validate:"required,reasonable_duration"`
	SweepInterval     time.Duration `mapstructure:"SWEEP_INTERVAL"      json:"sweep_interval"      validate:"required,reasonable_duration"`
}
