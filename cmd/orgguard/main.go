// Package main is the entry point for the orgguard binary. It serves the
// organization policy API over HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/orgguard/orgguard/internal/api"
	"github.com/orgguard/orgguard/pkg/config"
	"github.com/orgguard/orgguard/pkg/logging"
	"github.com/orgguard/orgguard/pkg/policy"
	"github.com/orgguard/orgguard/pkg/policy/requirements"
	"github.com/orgguard/orgguard/pkg/storage"
	"github.com/orgguard/orgguard/pkg/telemetry"
)

const (
	serviceName              = "orgguard"
	telemetryShutdownTimeout = 5 * time.Second
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd creates the root command for orgguard.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "orgguard",
		Short: "Organization policy requirement and validation engine",
		Long: `orgguard serves organization security policies over HTTP: it validates and
persists policy writes, enforces the dependency graph between policy types,
and answers aggregated per-user requirement queries.`,
		RunE: runServer,
	}

	rootCmd.Flags().StringP("config", "c", "", "Path to configuration file (YAML)")
	rootCmd.Flags().String("listen", "", "HTTP listen address (overrides config)")
	rootCmd.Flags().String("otel-endpoint", "", "OTLP endpoint (overrides config)")
	rootCmd.Flags().StringP("log-level", "l", "", "Log level (debug, info, warn, error)")

	return rootCmd
}

func runServer(cmd *cobra.Command, _ []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}

	cfg, provider, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if provider != nil {
		defer func() { _ = provider.Close() }()
	}

	if err := applyFlagOverrides(cmd, cfg); err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.SetupProvider(ctx, telemetry.Config{
		ServiceName: serviceName,
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Environment: cfg.Telemetry.Environment,
		Headers:     cfg.Telemetry.Headers,
	})
	if err != nil {
		return fmt.Errorf("telemetry initialization failed: %w", err)
	}
	defer shutdownTelemetry(logger, telemetryShutdown)

	server, err := buildServer(logger)
	if err != nil {
		return err
	}

	if provider != nil {
		go watchConfigReloads(ctx, provider, logger)
	}

	return serve(ctx, cfg, server.Handler(), logger)
}

// loadConfig loads configuration, with file watching when a path was given.
func loadConfig(path string) (*config.Config, *config.FileConfigProvider, error) {
	if path == "" {
		cfg, err := config.Load("")
		return cfg, nil, err
	}

	// Bootstrap logging is only needed until the real logger exists.
	provider, err := config.NewFileConfigProvider(path, slog.Default())
	if err != nil {
		return nil, nil, err
	}
	return provider.Current(), provider, nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) error {
	if listen, err := cmd.Flags().GetString("listen"); err != nil {
		return err
	} else if listen != "" {
		cfg.Server.ListenAddress = listen
	}

	if endpoint, err := cmd.Flags().GetString("otel-endpoint"); err != nil {
		return err
	} else if endpoint != "" {
		cfg.Telemetry.OTLPEndpoint = endpoint
	}

	if level, err := cmd.Flags().GetString("log-level"); err != nil {
		return err
	} else if level != "" {
		cfg.Logging.Level = level
	}

	return cfg.Validate()
}

// buildServer wires stores, handlers, and commands into the HTTP server.
func buildServer(logger *slog.Logger) (*api.Server, error) {
	store := storage.NewMemoryStore()

	handlers, err := policy.NewEventHandlerFactory(policy.DefaultHandlers(store)...)
	if err != nil {
		return nil, fmt.Errorf("event handler registration failed: %w", err)
	}

	saver, err := policy.NewSavePolicyCommand(store, store, store, handlers, logger)
	if err != nil {
		return nil, fmt.Errorf("save command construction failed: %w", err)
	}

	query, err := requirements.NewQuery(store, requirements.DefaultFactories()...)
	if err != nil {
		return nil, fmt.Errorf("requirement factory registration failed: %w", err)
	}

	return api.NewServer(store, saver, query, api.NewMetrics(), logger), nil
}

func serve(ctx context.Context, cfg *config.Config, handler http.Handler, logger *slog.Logger) error {
	server := &http.Server{
		Addr:              cfg.Server.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		ln, err := net.Listen("tcp", cfg.Server.ListenAddress)
		if err != nil {
			errCh <- fmt.Errorf("listen on %s: %w", cfg.Server.ListenAddress, err)
			return
		}
		logger.Info("server listening", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case sig := <-sigCh:
		logger.Info("received signal, initiating graceful shutdown", "signal", sig.String())
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// watchConfigReloads logs configuration changes. Address and logging changes
// take effect on the next restart.
func watchConfigReloads(ctx context.Context, provider *config.FileConfigProvider, logger *slog.Logger) {
	updates := provider.Subscribe()
	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-updates:
			if !ok {
				return
			}
			if first {
				// Subscribe delivers the current state immediately.
				first = false
				continue
			}
			logger.Info("configuration file changed; restart to apply server settings",
				"listen_address", cfg.Server.ListenAddress,
				"log_level", cfg.Logging.Level)
		}
	}
}

func shutdownTelemetry(logger *slog.Logger, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Error("telemetry shutdown error", "error", err)
	}
}
