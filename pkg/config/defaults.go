package config

import (
	"strings"
	"time"

	"github.com/MadalinaDev/PR-labs/pkg/counter"
	"github.com/MadalinaDev/PR-labs/pkg/ratelimit"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyServerDefaults(&cfg.Server)
	applyRateLimitDefaults(&cfg.RateLimit)
	applyCounterDefaults(&cfg.Counter)
	applyMetricsDefaults(&cfg.Metrics)
	cfg.API.ApplyDefaults()
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyServerDefaults sets file server defaults.
// Root has no default - it is required and must be configured.
func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.Mode == "" {
		cfg.Mode = "concurrent"
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.ContentTypes == "" {
		cfg.ContentTypes = "restricted"
	}
}

// applyRateLimitDefaults sets rate limiter defaults.
func applyRateLimitDefaults(cfg *RateLimitConfig) {
	// Enabled defaults to true via IsEnabled's nil handling
	if cfg.Limit == 0 {
		cfg.Limit = ratelimit.DefaultLimit
	}
	if cfg.Window == 0 {
		cfg.Window = ratelimit.DefaultWindow
	}
}

// applyCounterDefaults sets request counter defaults.
func applyCounterDefaults(cfg *CounterConfig) {
	if cfg.Policy == "" {
		cfg.Policy = string(counter.PolicyLocked)
	}
	if cfg.RacyDelay == 0 {
		cfg.RacyDelay = counter.DefaultRacyDelay
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in for metrics)
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 2112
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Root: "./public",
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
