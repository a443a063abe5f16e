package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/backend"
	"expensetracker/internal/cli"
	applog "expensetracker/internal/log"
	"expensetracker/internal/metrics"
	"expensetracker/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentPeriodWorker)

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

	svc, err := cli.NewServices(cfg, res, metrics.New())
	if err != nil {
		logger.Error("Failed to initialize services", "error", err)
		res.Cleanup()
		os.Exit(1)
	}
	processor := services.NewPeriodProcessor(svc)

	logger.Info("Period processor configured",
		"interval", cfg.PeriodWorkerInterval,
		"reminder_window_days", cfg.ReminderWindowDays)

	run := func(now time.Time) {
		sum, err := processor.Process(ctx, now.UTC())
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Period processing failed", "error", err)
			return
		}
		logger.Info("Period processing complete",
			"owners", sum.Owners,
			"rolled", sum.Rolled,
			"reminders", sum.Reminders,
			"failed", sum.Failed,
			"next_check", now.Add(cfg.PeriodWorkerInterval).Format(time.TimeOnly))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(cfg.PeriodWorkerInterval)
		defer ticker.Stop()

		run(time.Now())
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case now := <-ticker.C:
				run(now)
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Period worker stopped", "error", err)
	}
	cli.RunCleanup(logger, 30*time.Second, res.Cleanup)
}
