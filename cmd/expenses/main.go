package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"expensetracker/internal/auth"
	"expensetracker/internal/backend"
	"expensetracker/internal/cli"
	apphttp "expensetracker/internal/http"
	applog "expensetracker/internal/log"
	"expensetracker/internal/metrics"
	"expensetracker/internal/middleware/ratelimit"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentAPI)

	ctx, stop := cli.GracefulShutdown(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	m := metrics.New()
	svc, err := cli.NewServices(cfg, res, m)
	if err != nil {
		logger.Error("Failed to initialize services", "error", err)
		res.Cleanup()
		os.Exit(1)
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
		CleanupInterval:   5 * time.Minute,
		IdleTimeout:       10 * time.Minute,
	})

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Services: svc,
		Store:    res.Store,
		Auth:     auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL),
		Metrics:  m,
		Limiter:  limiter,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting expense tracker server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		res.Cleanup()
		os.Exit(1)
	}

	cli.RunCleanup(logger, 10*time.Second, res.Cleanup)
	logger.Info("Server stopped gracefully")
}
