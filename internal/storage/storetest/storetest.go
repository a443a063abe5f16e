// Package storetest is a conformance suite shared by every storage.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) storage.Store

var at = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func newBill(owner, name string, dueDay int) core.Bill {
	return core.Bill{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		Name:      name,
		Amount:    core.Money{Cents: 150000},
		DueDay:    dueDay,
		Active:    true,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func newExpense(owner string, cents int64, cat core.Category, spent time.Time) core.Expense {
	return core.Expense{
		ID:        uuid.NewString(),
		OwnerID:   owner,
		Item:      "item",
		Amount:    core.Money{Cents: cents},
		Category:  cat,
		Mode:      core.UPI,
		SpentAt:   spent,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func paymentFor(b core.Bill, p core.Period) (core.BillPayment, core.Expense) {
	bp := core.BillPayment{
		ID:        uuid.NewString(),
		OwnerID:   b.OwnerID,
		BillID:    b.ID,
		BillName:  b.Name,
		Amount:    b.Amount,
		Mode:      core.Cash,
		PaidAt:    at,
		Period:    p,
		CreatedAt: at,
	}
	e := newExpense(b.OwnerID, b.Amount.Cents, core.Bills, at)
	e.Item = "Bill Payment: " + b.Name
	return bp, e
}

// Run exercises the full storage contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("bills", func(t *testing.T) { testBills(t, newStore(t)) })
	t.Run("delete bill keeps payments", func(t *testing.T) { testDeleteBillKeepsPayments(t, newStore(t)) })
	t.Run("record payment", func(t *testing.T) { testRecordPayment(t, newStore(t)) })
	t.Run("record payment is atomic", func(t *testing.T) { testRecordPaymentAtomic(t, newStore(t)) })
	t.Run("concurrent payments", func(t *testing.T) { testConcurrentPayments(t, newStore(t)) })
	t.Run("expenses", func(t *testing.T) { testExpenses(t, newStore(t)) })
	t.Run("settings", func(t *testing.T) { testSettings(t, newStore(t)) })
	t.Run("period markers", func(t *testing.T) { testMarkers(t, newStore(t)) })
}

func testBills(t *testing.T, s storage.Store) {
	ctx := context.Background()
	rent := newBill("u1", "Rent", 5)
	wifi := newBill("u1", "WiFi", 15)
	emi := newBill("u1", "Home Loan EMI", 1)
	other := newBill("u2", "Rent", 5)
	for _, b := range []core.Bill{rent, wifi, emi, other} {
		require.NoError(t, s.CreateBill(ctx, b))
	}

	got, err := s.GetBill(ctx, "u1", rent.ID)
	require.NoError(t, err)
	assert.Equal(t, rent, got)

	_, err = s.GetBill(ctx, "u2", rent.ID)
	assert.ErrorIs(t, err, core.ErrNotFound, "bills are scoped by owner")

	list, err := s.ListBills(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Home Loan EMI", "Rent", "WiFi"}, []string{list[0].Name, list[1].Name, list[2].Name})

	wifi.Active = false
	wifi.Category = core.Personal
	wifi.UpdatedAt = at.Add(time.Hour)
	require.NoError(t, s.UpdateBill(ctx, wifi))

	list, err = s.ListBills(ctx, "u1", false)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	list, err = s.ListBills(ctx, "u1", true)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	got, err = s.GetBill(ctx, "u1", wifi.ID)
	require.NoError(t, err)
	assert.Equal(t, core.Personal, got.Category)
	assert.False(t, got.Active)

	foreign := other
	foreign.OwnerID = "u1"
	assert.ErrorIs(t, s.UpdateBill(ctx, foreign), core.ErrNotFound)
	assert.ErrorIs(t, s.DeleteBill(ctx, "u1", other.ID), core.ErrNotFound)

	require.NoError(t, s.DeleteBill(ctx, "u1", rent.ID))
	_, err = s.GetBill(ctx, "u1", rent.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testDeleteBillKeepsPayments(t *testing.T, s storage.Store) {
	ctx := context.Background()
	b := newBill("u1", "Netflix", 20)
	require.NoError(t, s.CreateBill(ctx, b))
	p := core.Period{Year: 2024, Month: time.March}
	bp, e := paymentFor(b, p)
	require.NoError(t, s.RecordBillPayment(ctx, bp, e))

	require.NoError(t, s.DeleteBill(ctx, "u1", b.ID))

	payments, err := s.ListBillPayments(ctx, "u1", p)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Empty(t, payments[0].BillID)
	assert.Equal(t, "Netflix", payments[0].BillName)
	assert.Equal(t, b.Amount, payments[0].Amount)
}

func testRecordPayment(t *testing.T, s storage.Store) {
	ctx := context.Background()
	b := newBill("u1", "EB Bill", 10)
	require.NoError(t, s.CreateBill(ctx, b))
	p := core.Period{Year: 2024, Month: time.March}

	_, err := s.GetBillPayment(ctx, "u1", b.ID, p)
	require.ErrorIs(t, err, core.ErrNotFound)

	bp, e := paymentFor(b, p)
	require.NoError(t, s.RecordBillPayment(ctx, bp, e))

	got, err := s.GetBillPayment(ctx, "u1", b.ID, p)
	require.NoError(t, err)
	assert.Equal(t, bp, got)

	stored, err := s.GetExpense(ctx, "u1", e.ID)
	require.NoError(t, err)
	assert.Equal(t, e, stored)

	again, againExpense := paymentFor(b, p)
	err = s.RecordBillPayment(ctx, again, againExpense)
	require.ErrorIs(t, err, core.ErrDuplicatePayment)
	_, err = s.GetExpense(ctx, "u1", againExpense.ID)
	assert.ErrorIs(t, err, core.ErrNotFound, "duplicate must not leave an expense behind")

	next, nextExpense := paymentFor(b, p.Next())
	require.NoError(t, s.RecordBillPayment(ctx, next, nextExpense))

	payments, err := s.ListBillPayments(ctx, "u1", p)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
	payments, err = s.ListBillPayments(ctx, "u2", p)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func testRecordPaymentAtomic(t *testing.T, s storage.Store) {
	ctx := context.Background()
	b := newBill("u1", "School Fees", 5)
	require.NoError(t, s.CreateBill(ctx, b))
	p := core.Period{Year: 2024, Month: time.March}

	existing := newExpense("u1", 100, core.Food, at)
	require.NoError(t, s.CreateExpense(ctx, existing))

	bp, e := paymentFor(b, p)
	e.ID = existing.ID // forces the expense insert to fail
	err := s.RecordBillPayment(ctx, bp, e)
	require.Error(t, err)
	assert.False(t, errors.Is(err, core.ErrDuplicatePayment))

	_, err = s.GetBillPayment(ctx, "u1", b.ID, p)
	assert.ErrorIs(t, err, core.ErrNotFound, "payment must be rolled back with the expense")

	bp, e = paymentFor(b, p)
	require.NoError(t, s.RecordBillPayment(ctx, bp, e), "the period is still payable")
}

func testConcurrentPayments(t *testing.T, s storage.Store) {
	ctx := context.Background()
	b := newBill("u1", "Rent", 5)
	require.NoError(t, s.CreateBill(ctx, b))
	p := core.Period{Year: 2024, Month: time.March}

	const workers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		ok   int
		dups int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bp, e := paymentFor(b, p)
			err := s.RecordBillPayment(ctx, bp, e)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, core.ErrDuplicatePayment):
				dups++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, dups)

	bills, err := s.ListExpenses(ctx, "u1", storage.ExpenseFilter{Category: core.Bills})
	require.NoError(t, err)
	assert.Len(t, bills, 1)
}

func testExpenses(t *testing.T, s storage.Store) {
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2024, 3, d, 12, 0, 0, 0, time.UTC) }

	e1 := newExpense("u1", 100, core.Food, day(1))
	e2 := newExpense("u1", 200, core.Transport, day(5))
	e3 := newExpense("u1", 300, core.Food, day(9))
	e4 := newExpense("u2", 400, core.Food, day(5))
	for _, e := range []core.Expense{e1, e2, e3, e4} {
		require.NoError(t, s.CreateExpense(ctx, e))
	}

	all, err := s.ListExpenses(ctx, "u1", storage.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{e3.ID, e2.ID, e1.ID}, []string{all[0].ID, all[1].ID, all[2].ID}, "newest first")

	ranged, err := s.ListExpenses(ctx, "u1", storage.ExpenseFilter{From: day(5), To: day(9)})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	food, err := s.ListExpenses(ctx, "u1", storage.ExpenseFilter{Category: core.Food})
	require.NoError(t, err)
	assert.Len(t, food, 2)

	limited, err := s.ListExpenses(ctx, "u1", storage.ExpenseFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, e3.ID, limited[0].ID)

	e2.Amount = core.Money{Cents: 250}
	e2.Notes = "taxi"
	e2.UpdatedAt = at.Add(time.Hour)
	require.NoError(t, s.UpdateExpense(ctx, e2))
	got, err := s.GetExpense(ctx, "u1", e2.ID)
	require.NoError(t, err)
	assert.Equal(t, e2, got)

	foreign := e4
	foreign.OwnerID = "u1"
	assert.ErrorIs(t, s.UpdateExpense(ctx, foreign), core.ErrNotFound)
	assert.ErrorIs(t, s.DeleteExpense(ctx, "u1", e4.ID), core.ErrNotFound)

	require.NoError(t, s.DeleteExpense(ctx, "u1", e1.ID))
	_, err = s.GetExpense(ctx, "u1", e1.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func testSettings(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, err := s.GetSettings(ctx, "u1")
	require.ErrorIs(t, err, core.ErrNotFound)

	defaults := core.UserSettings{
		OwnerID:              "u1",
		MonthlyBudget:        core.Money{Cents: 5000000},
		Currency:             "₹",
		StartOfWeek:          time.Monday,
		NotificationsEnabled: true,
		CreatedAt:            at,
		UpdatedAt:            at,
	}
	got, created, err := s.EnsureSettings(ctx, defaults)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, defaults, got)

	changed := got
	changed.MonthlyBudget = core.Money{Cents: 100}
	changed.StartOfWeek = time.Sunday
	changed.NotificationsEnabled = false
	changed.UpdatedAt = at.Add(time.Hour)
	require.NoError(t, s.UpdateSettings(ctx, changed))

	again, created, err := s.EnsureSettings(ctx, defaults)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, changed, again, "existing settings are never overwritten by defaults")

	assert.ErrorIs(t, s.UpdateSettings(ctx, core.UserSettings{OwnerID: "nobody", Currency: "$"}), core.ErrNotFound)

	require.NoError(t, s.CreateBill(ctx, newBill("u2", "Rent", 1)))
	require.NoError(t, s.CreateExpense(ctx, newExpense("u3", 1, core.Food, at)))
	owners, err := s.ListOwners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2", "u3"}, owners)

	// Racing first accesses: exactly one caller sees its insert win.
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	racer := defaults
	racer.OwnerID = "u-race"
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created, err := s.EnsureSettings(ctx, racer)
			assert.NoError(t, err)
			if created {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, winners)
}

func testMarkers(t *testing.T, s storage.Store) {
	ctx := context.Background()
	_, err := s.GetPeriodMarker(ctx, "u1")
	require.ErrorIs(t, err, core.ErrNotFound)

	feb := core.Period{Year: 2024, Month: time.February}
	mar := core.Period{Year: 2024, Month: time.March}
	require.NoError(t, s.SavePeriodMarker(ctx, core.PeriodMarker{OwnerID: "u1", LastSeen: feb}))
	m, err := s.GetPeriodMarker(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, feb, m.LastSeen)
	assert.Nil(t, m.PendingReport)

	require.NoError(t, s.SavePeriodMarker(ctx, core.PeriodMarker{OwnerID: "u1", LastSeen: mar, PendingReport: &feb}))
	m, err = s.GetPeriodMarker(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, mar, m.LastSeen)
	require.NotNil(t, m.PendingReport)
	assert.Equal(t, feb, *m.PendingReport)

	require.NoError(t, s.SavePeriodMarker(ctx, core.PeriodMarker{OwnerID: "u1", LastSeen: mar}))
	m, err = s.GetPeriodMarker(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, m.PendingReport)
}
