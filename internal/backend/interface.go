package backend

import (
	"context"

	"expensetracker/internal/cache"
	"expensetracker/internal/report"
	"expensetracker/internal/services"
	"expensetracker/internal/storage"
)

// CleanupFunc releases what the factory opened.
type CleanupFunc func() error

// BackendResult is everything services.Deps needs from the outside world.
type BackendResult struct {
	Store   storage.Store
	Reports cache.Store[report.MonthlyReport]
	// Events is nil when no broker is configured or reachable.
	Events  services.EventPublisher
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}
