// Package config loads, validates, and persists the file server
// configuration from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/MadalinaDev/PR-labs/pkg/api"
)

// Config represents the file server configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (PRLABS_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server configures the raw-socket HTTP file server
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// RateLimit configures the per-client sliding-window rate limiter
	RateLimit RateLimitConfig `mapstructure:"ratelimit" yaml:"ratelimit"`

	// Counter configures the shared per-path request counter
	Counter CounterConfig `mapstructure:"counter" yaml:"counter"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// API contains control-plane HTTP server configuration
	API api.Config `mapstructure:"api" yaml:"api"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// ServerConfig configures the file server itself: bind address, served
// root, dispatch mode, and per-request behavior.
type ServerConfig struct {
	// Host is the IP address to bind to.
	// Empty string or "0.0.0.0" binds to all interfaces.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the TCP port to listen on.
	// Default: 8000
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// Root is the directory tree to serve (required).
	// Every request path is confined to this tree.
	Root string `mapstructure:"root" validate:"required" yaml:"root"`

	// Mode selects how accepted connections are dispatched.
	// Valid values: sequential, concurrent
	Mode string `mapstructure:"mode" validate:"required,oneof=sequential concurrent" yaml:"mode"`

	// MaxConnections limits concurrent client connections.
	// 0 means unlimited. Ignored in sequential mode.
	MaxConnections int `mapstructure:"max_connections" validate:"omitempty,min=0" yaml:"max_connections"`

	// RequestDelay is an artificial pause applied to each admitted
	// request, simulating slow I/O so concurrency behavior is observable.
	// Default: 0 (no delay)
	RequestDelay time.Duration `mapstructure:"request_delay" yaml:"request_delay"`

	// ReadTimeout bounds reading one request off a connection.
	// Default: 30s. 0 disables the deadline.
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// ShutdownTimeout is the maximum time to wait for active connections
	// during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"omitempty,gt=0" yaml:"shutdown_timeout"`

	// ContentTypes selects the content-type policy.
	// Valid values:
	//   restricted  - only text/html, image/png, application/pdf are
	//                 served; anything else is reported as absent
	//   passthrough - every file is served with its detected type
	ContentTypes string `mapstructure:"content_types" validate:"required,oneof=restricted passthrough" yaml:"content_types"`
}

// RateLimitConfig configures the per-client-IP sliding-window limiter.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is applied.
	// Default: true
	// A pointer distinguishes "not set" from "explicitly false".
	Enabled *bool `mapstructure:"enabled" yaml:"enabled"`

	// Limit is the maximum admitted requests per client per window.
	// Default: 5
	Limit int `mapstructure:"limit" validate:"omitempty,min=1" yaml:"limit"`

	// Window is the sliding window duration.
	// Default: 1s
	Window time.Duration `mapstructure:"window" validate:"omitempty,gt=0" yaml:"window"`
}

// IsEnabled returns whether rate limiting is enabled.
// Defaults to true if not explicitly set.
func (c *RateLimitConfig) IsEnabled() bool {
	if c.Enabled == nil {
		return true
	}
	return *c.Enabled
}

// CounterConfig configures the shared per-path request counter.
type CounterConfig struct {
	// Policy selects the counter's synchronization discipline.
	// Valid values:
	//   locked - mutex-protected, never loses updates
	//   racy   - deliberately unsynchronized read-modify-write, loses
	//            updates under concurrency
	Policy string `mapstructure:"policy" validate:"required,oneof=locked racy" yaml:"policy"`

	// RacyDelay is the pause between read and write in the racy
	// counter, widening the race window so losses are observable.
	// Only used when Policy is "racy".
	// Default: 10ms
	RacyDelay time.Duration `mapstructure:"racy_delay" yaml:"racy_delay"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected (zero overhead).
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 2112
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (PRLABS_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	// If no config file was found, use defaults
	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	// Unmarshal into config struct with custom decode hooks
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides user-friendly instructions if not.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: User-friendly error with instructions if config not found
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  fileserver init\n\n"+
				"Or specify a custom config file:\n"+
				"  fileserver <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  fileserver init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path.
// The configuration is saved in YAML format using proper yaml tags.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Use yaml.Marshal directly to respect yaml tags
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Restricted permissions; config files may later grow sensitive data.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the PRLABS_ prefix and underscores
	// Example: PRLABS_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("PRLABS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/fileserver/config.yaml
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return false, nil
		}
		// Also check for os.PathError when explicit config file doesn't exist
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "fileserver")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "fileserver")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
