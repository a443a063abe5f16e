package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cache"
	"expensetracker/internal/report"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/memory"
	"expensetracker/internal/storage/postgres"
	"expensetracker/internal/storage/sqlite"
)

const (
	reportCachePrefix = "expenses:"
	cacheSweepEvery   = 10 * time.Minute
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
	// dialAMQP is replaced in tests.
	dialAMQP func(url, exchange, queue string) (*amqp.Client, error)
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger:   logger,
		dialAMQP: amqp.NewClient,
	}
}

// CreateBackend opens storage, then the report cache, then the optional
// event publisher. On failure everything opened so far is released.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var cleanups []CleanupFunc
	cleanup := func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			errs = append(errs, cleanups[i]())
		}
		return errors.Join(errs...)
	}

	store, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}
	cleanups = append(cleanups, store.Close)

	reports, stopCache, err := f.openReportCache(ctx, config)
	if err != nil {
		_ = cleanup()
		return nil, err
	}
	cleanups = append(cleanups, stopCache)

	res := &BackendResult{
		Store:   store,
		Reports: reports,
		Cleanup: cleanup,
	}

	if config.AMQPURL != "" {
		client, err := f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			res.Events = client
			cleanups = append(cleanups, client.Close)
		}
	}

	return res, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (storage.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		s, err := sqlite.Open(ctx, config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return s, nil
	case PostgresBackend:
		s, err := postgres.Open(ctx, config.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		f.logger.Info("Initialized Postgres backend")
		return s, nil
	case MemoryBackend:
		f.logger.Warn("Using in-memory backend, data is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) openReportCache(ctx context.Context, config Config) (cache.Store[report.MonthlyReport], CleanupFunc, error) {
	ttl := config.ReportCacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	if config.RedisURL != "" {
		client, err := cache.OpenRedis(ctx, config.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis cache: %w", err)
		}
		f.logger.Info("Initialized Redis report cache", "ttl", ttl)
		return cache.NewRedis[report.MonthlyReport](client, reportCachePrefix, ttl), client.Close, nil
	}

	size := config.ReportCacheSize
	if size < 1 {
		size = 256
	}
	lru := cache.NewLRU[report.MonthlyReport](size, ttl)
	manager := cache.NewManager()
	manager.Register(lru)
	manager.StartCleanup(cacheSweepEvery)
	f.logger.Info("Initialized in-process report cache", "size", size, "ttl", ttl)

	return lru, func() error {
		manager.Stop()
		return nil
	}, nil
}
