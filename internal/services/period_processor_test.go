package services

import (
	"context"
	"errors"
	"testing"

	"expensetracker/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriodProcessor_Process(t *testing.T) {
	f := newFixture(t, date(2024, 3, 20))
	ctx := context.Background()
	f.bill(t, "Rent", 1500000, 5, core.Bills)
	_, err := f.svc.Expenses.Create(ctx, "owner-2", ExpenseInput{
		Item: "Bus", Amount: core.Money{Cents: 3000}, Category: core.Transport, Mode: core.Cash,
	})
	require.NoError(t, err)

	p := NewPeriodProcessor(f.svc)

	sum, err := p.Process(ctx, f.now)
	require.NoError(t, err)
	assert.Equal(t, PeriodRunSummary{Owners: 2, Reminders: 1}, sum)

	sum, err = p.Process(ctx, date(2024, 4, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Rolled)
	assert.Equal(t, 0, sum.Failed)
}

func TestPeriodProcessor_ListOwnersFailure(t *testing.T) {
	f := newFixture(t, date(2024, 3, 20))
	p := NewPeriodProcessor(f.svc)
	p.owners = func(context.Context) ([]string, error) { return nil, errors.New("db gone") }

	_, err := p.Process(context.Background(), f.now)
	assert.ErrorContains(t, err, "list owners")
}

func TestPeriodProcessor_BadOwnerDoesNotStopPass(t *testing.T) {
	f := newFixture(t, date(2024, 3, 20))
	f.bill(t, "Rent", 1500000, 5, core.Bills)
	p := NewPeriodProcessor(f.svc)
	p.owners = func(context.Context) ([]string, error) { return []string{"", owner}, nil }

	sum, err := p.Process(context.Background(), f.now)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 1, sum.Reminders)
}
