package memory

import (
	"testing"

	"expensetracker/internal/storage"
	"expensetracker/internal/storage/storetest"
)

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store { return New() })
}
