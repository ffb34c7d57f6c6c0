package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MadalinaDev/PR-labs/internal/logger"
	"github.com/MadalinaDev/PR-labs/pkg/api"
	"github.com/MadalinaDev/PR-labs/pkg/config"
	"github.com/MadalinaDev/PR-labs/pkg/contenttype"
	"github.com/MadalinaDev/PR-labs/pkg/counter"
	"github.com/MadalinaDev/PR-labs/pkg/metrics"
	prommetrics "github.com/MadalinaDev/PR-labs/pkg/metrics/prometheus"
	"github.com/MadalinaDev/PR-labs/pkg/ratelimit"
	"github.com/MadalinaDev/PR-labs/pkg/server"
	"github.com/MadalinaDev/PR-labs/pkg/webroot"
)

var (
	flagPort          int
	flagRoot          string
	flagMode          string
	flagCounterPolicy string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the file server",
	Long: `Start the file server with the specified configuration.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/fileserver/config.yaml. Without a
config file, built-in defaults serve ./public on port 8000.

Examples:
  # Start with defaults
  fileserver start

  # Serve a specific directory on a specific port
  fileserver start --root ./www --port 8080

  # Sequential dispatch with the deliberately racy counter
  fileserver start --mode sequential --counter-policy racy

  # Start with environment variable overrides
  PRLABS_LOGGING_LEVEL=DEBUG fileserver start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().IntVar(&flagPort, "port", 0, "TCP port to listen on (overrides config)")
	startCmd.Flags().StringVar(&flagRoot, "root", "", "directory tree to serve (overrides config)")
	startCmd.Flags().StringVar(&flagMode, "mode", "", "dispatch mode: sequential | concurrent (overrides config)")
	startCmd.Flags().StringVar(&flagCounterPolicy, "counter-policy", "", "request counter policy: locked | racy (overrides config)")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))

	// Initialize metrics (if enabled)
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("Metrics collection disabled")
	}
	httpMetrics := prommetrics.NewHTTPMetrics()

	root, err := webroot.New(cfg.Server.Root)
	if err != nil {
		return fmt.Errorf("failed to open served root: %w", err)
	}

	var limiter *ratelimit.SlidingWindow
	if cfg.RateLimit.IsEnabled() {
		limiter = ratelimit.New(cfg.RateLimit.Limit, cfg.RateLimit.Window)
		logger.Info("Rate limiting enabled", "limit", cfg.RateLimit.Limit, "window", cfg.RateLimit.Window)
	} else {
		logger.Info("Rate limiting disabled")
	}

	hits, err := counter.New(counter.Policy(cfg.Counter.Policy), cfg.Counter.RacyDelay)
	if err != nil {
		return fmt.Errorf("failed to create request counter: %w", err)
	}
	logger.Info("Request counter configured", "policy", cfg.Counter.Policy)

	classifier := contenttype.New(contenttype.Mode(cfg.Server.ContentTypes))

	srv := server.New(
		server.Config{
			BindAddress:     cfg.Server.Host,
			Port:            cfg.Server.Port,
			Mode:            server.DispatchMode(cfg.Server.Mode),
			MaxConnections:  cfg.Server.MaxConnections,
			RequestDelay:    cfg.Server.RequestDelay,
			ReadTimeout:     cfg.Server.ReadTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
		},
		root, limiter, hits, classifier, httpMetrics,
	)

	// Start the metrics server (if enabled)
	if metricsServer := metrics.NewServer(cfg.Metrics.Port); metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("Metrics server error", logger.KeyError, err)
			}
		}()
	}

	// Start the control-plane server (if enabled)
	if cfg.API.IsEnabled() {
		apiServer := api.NewServer(cfg.API, hits)
		go func() {
			if err := apiServer.Start(ctx); err != nil {
				logger.Error("Control-plane server error", logger.KeyError, err)
			}
		}()
	}

	// Start the file server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", logger.KeyError, err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", logger.KeyError, err)
			return err
		}
	}

	return nil
}

// applyFlagOverrides applies CLI flag values over the loaded config.
// Flags have the highest precedence.
func applyFlagOverrides(cfg *config.Config) {
	if flagPort != 0 {
		cfg.Server.Port = flagPort
	}
	if flagRoot != "" {
		cfg.Server.Root = flagRoot
	}
	if flagMode != "" {
		cfg.Server.Mode = flagMode
	}
	if flagCounterPolicy != "" {
		cfg.Counter.Policy = flagCounterPolicy
	}
}
