// Package cli provides common CLI initialization utilities shared by the
// server, the event worker, the period worker and issue-token.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expensetracker/internal/config"
	applog "expensetracker/internal/log"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration, installs the default logger for
// component and validates. It exits the process on validation failure.
func LoadAndValidateConfig(component string) (*config.Config, *slog.Logger) {
	cfg := config.Load()
	logger := applog.Setup(os.Stdout, cfg.LogLevel, cfg.LogFormat, component)
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg, logger
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
func GracefulShutdown(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")
	}()
	return ctx, stop
}

// RunCleanup runs cleanup, giving up after timeout.
func RunCleanup(logger *slog.Logger, timeout time.Duration, cleanup func() error) {
	done := make(chan error, 1)
	go func() { done <- cleanup() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("Cleanup failed", "error", err)
			return
		}
		logger.Info("Shutdown complete")
	case <-time.After(timeout):
		logger.Warn("Shutdown timeout reached")
	}
}
