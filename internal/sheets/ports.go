package sheets

import (
	"context"

	"expensetracker/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseWriter mirrors an expense into the sheet. Writing the same
	// expense twice updates its row instead of adding another.
	ExpenseWriter interface {
		Upsert(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// ExpenseDeleter removes the mirrored row. A missing row is not an error.
	ExpenseDeleter interface {
		Delete(ctx context.Context, expenseID string) error
	}

	Mirror interface {
		ExpenseWriter
		ExpenseDeleter
	}
)
