package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BookHive-Network/notifier/internal/logger"
	validator "github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

//go:embed defaults.yaml
var defaultYAML []byte

// Version is set at runtime from build information
var Version = "dev"

// EnvPrefix namespaces environment overrides: BOOKHIVE_SERVER_WS_ADDR.
const EnvPrefix = "BOOKHIVE"

var validate = validator.New()

var hostnamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?(\.[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?)*$`)

// Config holds every sub‑config.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"    validate:"required"`
	Server    ServerConfig    `mapstructure:"server"     validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
	Session   SessionConfig   `mapstructure:"session"    validate:"required"`
	Bus       BusConfig       `mapstructure:"bus"        validate:"required"`
	Logging   LoggingConfig   `mapstructure:"logging"    validate:"required"`
	Metrics   MetricsConfig   `mapstructure:"metrics"    validate:"required"`
}

func init() {
	registerCustomValidators()

	validate.RegisterStructValidation(func(sl validator.StructLevel) {
		cfg := sl.Current().Interface().(Config)
		performCrossFieldValidation(sl, cfg)
	}, Config{})
}

// registerCustomValidators registers custom validation functions
func registerCustomValidators() {
	// host:port or :port
	if err := validate.RegisterValidation("wsaddr", func(fl validator.FieldLevel) bool {
		return validListenAddr(fl.Field().String())
	}); err != nil {
		logger.Error("Failed to register wsaddr validator", zap.Error(err))
	}

	// Between 1 second and 24 hours
	if err := validate.RegisterValidation("reasonable_duration", func(fl validator.FieldLevel) bool {
		duration, ok := fl.Field().Interface().(time.Duration)
		return ok && duration >= time.Second && duration <= 24*time.Hour
	}); err != nil {
		logger.Error("Failed to register reasonable_duration validator", zap.Error(err))
	}

	// Between 1 second and 1 hour
	if err := validate.RegisterValidation("timeout_duration", func(fl validator.FieldLevel) bool {
		duration, ok := fl.Field().Interface().(time.Duration)
		return ok && duration >= time.Second && duration <= time.Hour
	}); err != nil {
		logger.Error("Failed to register timeout_duration validator", zap.Error(err))
	}

	if err := validate.RegisterValidation("log_level", func(fl validator.FieldLevel) bool {
		return oneOf(fl.Field().String(), "debug", "info", "warn", "error", "fatal")
	}); err != nil {
		logger.Error("Failed to register log_level validator", zap.Error(err))
	}

	if err := validate.RegisterValidation("log_format", func(fl validator.FieldLevel) bool {
		return oneOf(fl.Field().String(), "console", "json")
	}); err != nil {
		logger.Error("Failed to register log_format validator", zap.Error(err))
	}

	if err := validate.RegisterValidation("overflow_policy", func(fl validator.FieldLevel) bool {
		return oneOf(fl.Field().String(), OverflowDropOldest, OverflowDropNewest)
	}); err != nil {
		logger.Error("Failed to register overflow_policy validator", zap.Error(err))
	}

	if err := validate.RegisterValidation("bus_driver", func(fl validator.FieldLevel) bool {
		return oneOf(fl.Field().String(), BusNone, BusRedis, BusNATS, BusPostgres)
	}); err != nil {
		logger.Error("Failed to register bus_driver validator", zap.Error(err))
	}
}

func validListenAddr(addr string) bool {
	if addr == "" {
		return false
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return false
	}
	if _, err := net.LookupPort("tcp", port); err != nil {
		return false
	}
	if host != "" && net.ParseIP(host) == nil && !hostnamePattern.MatchString(host) {
		return false
	}
	return true
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// performCrossFieldValidation performs validation across multiple fields
func performCrossFieldValidation(sl validator.StructLevel, cfg Config) {
	if cfg.Metrics.Enabled {
		if _, port, err := net.SplitHostPort(cfg.Server.WSAddr); err == nil && port == strconv.Itoa(cfg.Metrics.Port) {
			sl.ReportError(cfg.Metrics.Port, "Port", "Port", "port_conflict", "")
		}
	}

	if cfg.Server.PongWait <= cfg.Server.WriteTimeout {
		sl.ReportError(cfg.Server.PongWait, "PongWait", "PongWait", "pong_wait_too_short", "")
	}

	switch cfg.Bus.Driver {
	case BusRedis:
		if cfg.Bus.Redis.Addr == "" {
			sl.ReportError(cfg.Bus.Redis.Addr, "Addr", "Addr", "bus_backend_missing", BusRedis)
		}
	case BusNATS:
		if cfg.Bus.NATS.URL == "" {
			sl.ReportError(cfg.Bus.NATS.URL, "URL", "URL", "bus_backend_missing", BusNATS)
		}
	case BusPostgres:
		if cfg.Bus.Postgres.DSN == "" {
			sl.ReportError(cfg.Bus.Postgres.DSN, "DSN", "DSN", "bus_backend_missing", BusPostgres)
		}
	}
}

/* ------------------------------------------------------------------ *
|  Public API                                                         |
* -------------------------------------------------------------------*/

// SetVersion sets the version from build information
func SetVersion(v string) {
	Version = v
}

// Overrides are applied after file and environment, used for CLI flags.
type Overrides map[string]any

// Load merges defaults → file (optional) → env vars → overrides, validates,
// and returns cfg. The package logger is initialized from the result.
func Load(path string, log *zap.Logger, overrides Overrides) (*Config, error) {
	cfg, err := Read(path, log, overrides)
	if err != nil {
		return nil, err
	}
	if err := initializeLogger(cfg.Logging); err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	if log != nil {
		log.Info("logger initialized",
			zap.String("level", cfg.Logging.Level),
			zap.String("format", cfg.Logging.Format),
			zap.String("file", cfg.Logging.FilePath),
		)
	}
	return cfg, nil
}

// Read is Load without touching the global logger.
func Read(path string, log *zap.Logger, overrides Overrides) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 1. defaults.yaml (embedded)
	if err := v.ReadConfig(bytes.NewReader(defaultYAML)); err != nil {
		return nil, fmt.Errorf("read defaults: %w", err)
	}

	// 2. optional user file
	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read ./config.yaml: %w", err)
			}
			if log != nil {
				log.Info("No config.yaml found, using defaults")
			}
		} else if log != nil {
			log.Info("Loaded config.yaml from current directory")
		}
	}

	// 3. env already merged by AutomaticEnv()

	// 4. explicit overrides
	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, formatValidationError(err)
	}

	if log != nil {
		log.Info("configuration loaded",
			zap.String("version", Version),
			zap.String("bus_driver", cfg.Bus.Driver),
		)
	}
	return &cfg, nil
}

// Validate runs the same checks Load applies, for configs built in code.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration validation failed: nil config")
	}
	if err := validate.Struct(*cfg); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// Default returns the embedded defaults, validated.
func Default() (*Config, error) {
	return Read("", nil, nil)
}

// initializeLogger initializes the logger using the LoggingConfig
func initializeLogger(loggingConfig LoggingConfig) error {
	return logger.Init(
		logger.WithLevel(loggingConfig.Level),
		logger.WithFormat(loggingConfig.Format),
		logger.WithFile(loggingConfig.FilePath),
		logger.WithVersion(Version),
		logger.WithComponent("notifier"),
		logger.WithRotation(loggingConfig.MaxSize, loggingConfig.MaxBackups, loggingConfig.MaxAge),
	)
}

// formatValidationError converts validator errors into user-friendly messages
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		messages := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			messages = append(messages, getFieldErrorMessage(fieldError))
		}
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(messages, "\n  - "))
	}

	return fmt.Errorf("configuration validation failed: %w", err)
}

// getFieldErrorMessage returns a user-friendly error message for a field validation error
func getFieldErrorMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	value := fe.Value()
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required but not provided", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s (got: %v)", field, param, value)
	case "max":
		return fmt.Sprintf("%s must be at most %s (got: %v)", field, param, value)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s (got: %v)", field, param, value)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s (got: %v)", field, strings.ReplaceAll(param, " ", ", "), value)
	case "startswith":
		return fmt.Sprintf("%s must start with %q (got: %v)", field, param, value)
	case "wsaddr":
		return fmt.Sprintf("%s must be a valid listen address in format ':port' or 'host:port' (got: %v)", field, value)
	case "reasonable_duration":
		return fmt.Sprintf("%s must be between 1 second and 24 hours (got: %v)", field, value)
	case "timeout_duration":
		return fmt.Sprintf("%s must be between 1 second and 1 hour (got: %v)", field, value)
	case "log_level":
		return fmt.Sprintf("%s must be one of: debug, info, warn, error, fatal (got: %v)", field, value)
	case "log_format":
		return fmt.Sprintf("%s must be either 'console' or 'json' (got: %v)", field, value)
	case "overflow_policy":
		return fmt.Sprintf("%s must be either '%s' or '%s' (got: %v)", field, OverflowDropOldest, OverflowDropNewest, value)
	case "bus_driver":
		return fmt.Sprintf("%s must be one of: none, redis, nats, postgres (got: %v)", field, value)
	case "port_conflict":
		return "metrics port conflicts with the WebSocket listener port, they must be different"
	case "pong_wait_too_short":
		return fmt.Sprintf("%s must be longer than the write timeout so pings can be answered", field)
	case "bus_backend_missing":
		return fmt.Sprintf("%s must be set when bus driver is %s", field, param)
	default:
		return fmt.Sprintf("%s validation failed: %s (got: %v)", field, fe.Tag(), value)
	}
}
