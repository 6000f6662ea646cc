package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazz-dev/depwatch/internal/alert"
	"github.com/hazz-dev/depwatch/internal/checker"
	"github.com/hazz-dev/depwatch/internal/config"
	"github.com/hazz-dev/depwatch/internal/health"
	"github.com/hazz-dev/depwatch/internal/retry"
	"github.com/hazz-dev/depwatch/internal/server"
	"github.com/hazz-dev/depwatch/internal/version"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "depwatch",
		Short:        "Dependency health monitor with resilient outbound calls",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "config.yml", "config file path")

	root.AddCommand(versionCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(statusCmd())

	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.String())
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dependency monitor",
		RunE:  runServe,
	}
}

// retryPolicy maps the config's retry section to a retry.Policy.
func retryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  cfg.Retry.BaseDelay.Duration,
		Multiplier: cfg.Retry.Multiplier,
		MaxDelay:   cfg.Retry.MaxDelay.Duration,
		Jitter:     cfg.Retry.JitterEnabled(),
	}
}

// buildMonitor constructs the monitor and registers every configured
// service's check function.
func buildMonitor(cfg *config.Config, logger *slog.Logger) (*health.Monitor, error) {
	mon := health.New(health.Options{
		CheckInterval:   cfg.Monitor.CheckInterval.Duration,
		HistorySize:     cfg.Monitor.HistorySize,
		AlertThreshold:  cfg.Monitor.AlertThreshold,
		CacheTTL:        cfg.Monitor.CacheTTL.Duration,
		CheckTimeout:    cfg.Monitor.CheckTimeout.Duration,
		Workers:         cfg.Monitor.Workers,
		ShutdownTimeout: cfg.Monitor.ShutdownTimeout.Duration,
		Logger:          logger,
	})

	for _, svc := range cfg.Services {
		c, err := checker.New(svc)
		if err != nil {
			return nil, fmt.Errorf("creating checker for %q: %w", svc.Name, err)
		}
		reg := health.Registration{
			ServiceID:   svc.Name,
			DisplayName: svc.DisplayName,
			ServiceURL:  svc.Target,
			Check:       c.Check,
		}
		if err := mon.Register(reg); err != nil {
			return nil, fmt.Errorf("registering %q: %w", svc.Name, err)
		}
	}
	return mon, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()

	// 1. Load config
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger.Info("config loaded", "services", len(cfg.Services))

	// 2. Build monitor with registered checks
	mon, err := buildMonitor(cfg, logger)
	if err != nil {
		return err
	}

	// 3. Alert handlers: always log, webhook if configured
	mon.RegisterAlertHandler(alert.LogHandler(logger))
	if cfg.Alerts.Webhook.URL != "" {
		wh := alert.NewWebhook(cfg.Alerts.Webhook.URL, cfg.Alerts.Webhook.Cooldown.Duration, retryPolicy(cfg), logger)
		mon.RegisterAlertHandler(wh.Handle)
	}

	// 4. Build API server
	apiServer := server.New(mon, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: apiServer.Router(),
	}

	// 5. Signal context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// 6. Start monitoring
	mon.Start()

	// 7. Start HTTP server in background
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "address", cfg.Server.Address)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// 8. Wait for signal or server error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		mon.Stop()
		return fmt.Errorf("HTTP server: %w", err)
	}

	// 9. Graceful shutdown
	mon.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a one-off check of all configured services",
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return executeCheck(cmd, cfg)
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print current service status from a running instance",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return executeStatus(cmd, cfg)
}
