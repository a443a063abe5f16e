package services

import (
	"context"
	"math"
	"testing"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseService_CRUD(t *testing.T) {
	f := newFixture(t, date(2024, 3, 15))
	ctx := context.Background()

	e, err := f.svc.Expenses.Create(ctx, owner, ExpenseInput{
		Item:     "  Lunch ",
		Amount:   core.Money{Cents: 25000},
		Category: core.Food,
		Mode:     core.UPI,
		Notes:    "team",
	})
	require.NoError(t, err)
	assert.Equal(t, "Lunch", e.Item)
	assert.NotEmpty(t, e.ID)

	updated, err := f.svc.Expenses.Update(ctx, owner, e.ID, ExpenseInput{
		Item:     "Dinner",
		Amount:   core.Money{Cents: 40000},
		Category: core.Food,
		Mode:     core.Card,
	})
	require.NoError(t, err)
	assert.Equal(t, "Dinner", updated.Item)
	assert.Equal(t, e.SpentAt, updated.SpentAt, "zero SpentAt keeps the stored date")

	require.NoError(t, f.svc.Expenses.Delete(ctx, owner, e.ID))
	_, err = f.svc.Expenses.Get(ctx, owner, e.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.Equal(t,
		[]amqp.EventType{amqp.ExpenseCreated, amqp.ExpenseUpdated, amqp.ExpenseDeleted},
		f.events.types())
}

func TestExpenseService_Validation(t *testing.T) {
	f := newFixture(t, date(2024, 3, 15))
	ctx := context.Background()

	tests := []struct {
		name string
		in   ExpenseInput
	}{
		{"empty item", ExpenseInput{Amount: core.Money{Cents: 1}, Category: core.Food, Mode: core.Cash}},
		{"zero amount", ExpenseInput{Item: "x", Category: core.Food, Mode: core.Cash}},
		{"negative amount", ExpenseInput{Item: "x", Amount: core.Money{Cents: -5}, Category: core.Food, Mode: core.Cash}},
		{"amount above maximum", ExpenseInput{Item: "x", Amount: core.Money{Cents: core.MaxAmountCents + 1}, Category: core.Food, Mode: core.Cash}},
		{"amount near int64 max", ExpenseInput{Item: "x", Amount: core.Money{Cents: math.MaxInt64}, Category: core.Food, Mode: core.Cash}},
		{"unknown category", ExpenseInput{Item: "x", Amount: core.Money{Cents: 1}, Category: "rent", Mode: core.Cash}},
		{"unknown mode", ExpenseInput{Item: "x", Amount: core.Money{Cents: 1}, Category: core.Food, Mode: "cheque"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Expenses.Create(ctx, owner, tt.in)
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}
	assert.Empty(t, f.events.types(), "nothing published for rejected input")
}

func TestExpenseService_ForeignOwner(t *testing.T) {
	f := newFixture(t, date(2024, 3, 15))
	ctx := context.Background()
	e := f.expense(t, 100, core.Food, time.Time{})

	_, err := f.svc.Expenses.Get(ctx, "intruder", e.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, f.svc.Expenses.Delete(ctx, "intruder", e.ID), core.ErrNotFound)
}

func TestExpenseService_ListInclusiveDays(t *testing.T) {
	f := newFixture(t, date(2024, 3, 15))
	ctx := context.Background()

	early := f.expense(t, 100, core.Food, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	late := f.expense(t, 200, core.Transport, time.Date(2024, 3, 10, 23, 59, 0, 0, time.UTC))
	f.expense(t, 300, core.Food, time.Date(2024, 3, 11, 0, 0, 1, 0, time.UTC))

	// Boundaries given at noon still include the whole first and last day.
	got, err := f.svc.Expenses.List(ctx, owner, ListOptions{
		From: date(2024, 3, 1),
		To:   date(2024, 3, 10),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, late.ID, got[0].ID, "newest first")
	assert.Equal(t, early.ID, got[1].ID)

	got, err = f.svc.Expenses.List(ctx, owner, ListOptions{Category: core.Food, Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(300), got[0].Amount.Cents)

	_, err = f.svc.Expenses.List(ctx, owner, ListOptions{From: date(2024, 3, 10), To: date(2024, 3, 1)})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestExpenseService_TodayAndMonth(t *testing.T) {
	f := newFixture(t, date(2024, 3, 15))
	ctx := context.Background()

	f.expense(t, 100, core.Food, time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC))
	f.expense(t, 200, core.Food, time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC))
	f.expense(t, 400, core.Food, time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC))

	today, err := f.svc.Expenses.Today(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, today, 1)

	month, err := f.svc.Expenses.Month(ctx, owner, core.Period{})
	require.NoError(t, err)
	assert.Len(t, month, 2)

	feb, err := f.svc.Expenses.Month(ctx, owner, core.Period{Year: 2024, Month: time.February})
	require.NoError(t, err)
	assert.Len(t, feb, 1)
}

func TestExpenseService_UpdateInvalidatesBothPeriods(t *testing.T) {
	f := newFixture(t, date(2024, 3, 15))
	ctx := context.Background()
	e := f.expense(t, 100, core.Food, date(2024, 2, 10))

	feb := core.Period{Year: 2024, Month: time.February}
	mar := core.Period{Year: 2024, Month: time.March}
	_, err := f.svc.Reports.Monthly(ctx, owner, feb)
	require.NoError(t, err)
	_, err = f.svc.Reports.Monthly(ctx, owner, mar)
	require.NoError(t, err)
	require.Equal(t, 2, f.cache.Size())

	_, err = f.svc.Expenses.Update(ctx, owner, e.ID, ExpenseInput{
		Item:     "moved",
		Amount:   core.Money{Cents: 100},
		Category: core.Food,
		Mode:     core.Cash,
		SpentAt:  date(2024, 3, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, f.cache.Size())
}
