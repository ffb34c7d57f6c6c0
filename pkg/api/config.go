package api

import "time"

// Config configures the control-plane HTTP server.
//
// The control plane runs beside the file server on its own port and
// exposes health, metrics, and counter inspection endpoints over
// standard HTTP. It never serves files.
//
// When Enabled is false, no control-plane server is started.
type Config struct {
	// Enabled controls whether the control-plane server is started.
	// Default: false (opt-in)
	// A pointer distinguishes "not set" from "explicitly false".
	Enabled *bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the control-plane endpoints.
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Default: 10s
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request on a
	// kept-alive connection. If zero, ReadTimeout is used.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
}

// IsEnabled returns whether the control-plane server is enabled.
// Defaults to false if not explicitly set.
func (c *Config) IsEnabled() bool {
	if c.Enabled == nil {
		return false
	}
	return *c.Enabled
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Port <= 0 {
		c.Port = 9090
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
}
