package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// sampleConfig is the commented configuration template written by the
// init command. It is kept in sync with the defaults in defaults.go.
const sampleConfig = `# File Server Configuration File
#
# All values can be overridden with environment variables using the
# PRLABS_ prefix, for example:
#   PRLABS_LOGGING_LEVEL=DEBUG
#   PRLABS_SERVER_PORT=8080

logging:
  # Minimum log level: DEBUG, INFO, WARN, ERROR
  level: INFO
  # Output format: text, json
  format: text
  # Destination: stdout, stderr, or a file path
  output: stdout

server:
  # Bind address; 0.0.0.0 listens on all interfaces
  host: 0.0.0.0
  port: 8000
  # Directory tree to serve (required). Requests cannot escape it.
  root: ./public
  # Connection dispatch: sequential | concurrent
  mode: concurrent
  # Maximum concurrent connections; 0 = unlimited
  max_connections: 0
  # Artificial per-request delay, e.g. "1s" to make concurrency visible
  request_delay: 0s
  # Socket read timeout for one request
  read_timeout: 30s
  shutdown_timeout: 30s
  # Content-type policy: restricted (html/png/pdf only) | passthrough
  content_types: restricted

ratelimit:
  enabled: true
  # Admitted requests per client IP per window
  limit: 5
  window: 1s

counter:
  # Per-path request counter policy: locked | racy
  policy: locked
  # Read-to-write pause of the racy counter
  racy_delay: 10ms

metrics:
  enabled: false
  port: 2112

api:
  enabled: false
  port: 9090
`

// InitConfig creates a sample configuration file at the default
// location ($XDG_CONFIG_HOME/fileserver/config.yaml).
//
// Returns the path of the created file. Fails if the file already
// exists unless force is true.
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()
	return configPath, InitConfigToPath(configPath, force)
}

// InitConfigToPath creates a sample configuration file at the given
// path, creating parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
