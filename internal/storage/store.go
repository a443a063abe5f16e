// Package storage defines the persistence contract used by the services.
//
// Every read and write is scoped by owner. Implementations return
// core.ErrNotFound for missing (or foreign) records and
// core.ErrDuplicatePayment when a bill payment would violate the unique
// (owner, bill, period) constraint.
package storage

import (
	"context"
	"time"

	"expensetracker/internal/core"
)

// ExpenseFilter narrows ListExpenses. Zero values mean "no constraint".
// From and To are inclusive instants.
type ExpenseFilter struct {
	From     time.Time
	To       time.Time
	Category core.Category
	Limit    int
}

// Match reports whether e satisfies the filter, ignoring Limit.
func (f ExpenseFilter) Match(e core.Expense) bool {
	if !f.From.IsZero() && e.SpentAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.SpentAt.After(f.To) {
		return false
	}
	return f.Category == "" || e.Category == f.Category
}

type BillStore interface {
	CreateBill(ctx context.Context, b core.Bill) error
	GetBill(ctx context.Context, ownerID, id string) (core.Bill, error)
	// ListBills returns bills ordered by due day, active ones only unless
	// includeInactive is set.
	ListBills(ctx context.Context, ownerID string, includeInactive bool) ([]core.Bill, error)
	UpdateBill(ctx context.Context, b core.Bill) error
	// DeleteBill removes the bill and detaches its payments, which keep
	// their name and amount snapshots.
	DeleteBill(ctx context.Context, ownerID, id string) error
}

type PaymentStore interface {
	GetBillPayment(ctx context.Context, ownerID, billID string, p core.Period) (core.BillPayment, error)
	ListBillPayments(ctx context.Context, ownerID string, p core.Period) ([]core.BillPayment, error)
	// RecordBillPayment writes the payment and its expense atomically:
	// either both exist afterwards or neither does.
	RecordBillPayment(ctx context.Context, p core.BillPayment, e core.Expense) error
}

type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) error
	GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, ownerID, id string) error
	// ListExpenses returns matching expenses newest first.
	ListExpenses(ctx context.Context, ownerID string, f ExpenseFilter) ([]core.Expense, error)
}

type SettingsStore interface {
	GetSettings(ctx context.Context, ownerID string) (core.UserSettings, error)
	// EnsureSettings inserts defaults unless the owner already has settings
	// and returns whatever is stored afterwards. created is true only for the
	// call whose insert won.
	EnsureSettings(ctx context.Context, defaults core.UserSettings) (st core.UserSettings, created bool, err error)
	UpdateSettings(ctx context.Context, s core.UserSettings) error
}

type MarkerStore interface {
	GetPeriodMarker(ctx context.Context, ownerID string) (core.PeriodMarker, error)
	SavePeriodMarker(ctx context.Context, m core.PeriodMarker) error
	// ListOwners returns every owner that has stored anything.
	ListOwners(ctx context.Context) ([]string, error)
}

// Store is the full persistence surface.
type Store interface {
	BillStore
	PaymentStore
	ExpenseStore
	SettingsStore
	MarkerStore
	Ping(ctx context.Context) error
	Close() error
}
