package backend

import (
	"fmt"
	"time"

	"expensetracker/internal/config"
)

// BackendType represents the type of storage backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// Config holds what the factory needs to open storage, the report cache and
// the event publisher.
type Config struct {
	Type BackendType

	SQLiteDBPath string
	PostgresURL  string

	// RedisURL selects the shared report cache; empty keeps it in process.
	RedisURL        string
	ReportCacheSize int
	ReportCacheTTL  time.Duration

	// AMQP is optional; without it events are skipped.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	c := Config{
		Type:            BackendType(appConfig.DataBackend),
		SQLiteDBPath:    appConfig.SQLiteDBPath,
		PostgresURL:     appConfig.PostgresURL,
		RedisURL:        appConfig.RedisURL,
		ReportCacheSize: appConfig.ReportCacheSize,
		ReportCacheTTL:  appConfig.ReportCacheTTL,
		AMQPURL:         appConfig.AMQPURL,
		AMQPExchange:    appConfig.AMQPExchange,
		AMQPQueue:       appConfig.AMQPQueue,
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.PostgresURL == "" {
			return fmt.Errorf("Postgres URL is required for postgres backend")
		}
	}
	return nil
}
