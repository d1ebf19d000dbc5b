package config

import "time"

// GeneralConfig holds process-wide settings.
type GeneralConfig struct {
	Name            string        `mapstructure:"NAME"             json:"name"             validate:"required,min=1,max=64"`
	Environment     string        `mapstructure:"ENVIRONMENT"      json:"environment"      validate:"omitempty,oneof=development staging production"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT" json:"shutdown_timeout" validate:"required,timeout_duration"`
}
