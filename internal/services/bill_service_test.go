package services

import (
	"context"
	"testing"
	"time"

	"expensetracker/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillService_CRUD(t *testing.T) {
	f := newFixture(t, date(2024, 3, 15))
	ctx := context.Background()

	b := f.bill(t, " WiFi ", 59900, 15, core.Bills)
	assert.Equal(t, "WiFi", b.Name)
	assert.True(t, b.Active)

	inactive := false
	updated, err := f.svc.Bills.Update(ctx, owner, b.ID, BillInput{
		Name: "WiFi", Amount: core.Money{Cents: 69900}, DueDay: 18, Active: &inactive,
	})
	require.NoError(t, err)
	assert.False(t, updated.Active)

	active, err := f.svc.Bills.List(ctx, owner, false)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := f.svc.Bills.List(ctx, owner, true)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, f.svc.Bills.Delete(ctx, owner, b.ID))
	_, err = f.svc.Bills.Get(ctx, owner, b.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, f.svc.Bills.Delete(ctx, owner, b.ID), core.ErrNotFound)
}

func TestBillService_Validation(t *testing.T) {
	f := newFixture(t, date(2024, 3, 15))
	ctx := context.Background()

	tests := []struct {
		name string
		in   BillInput
	}{
		{"empty name", BillInput{Amount: core.Money{Cents: 1}, DueDay: 1}},
		{"zero amount", BillInput{Name: "x", DueDay: 1}},
		{"due day 0", BillInput{Name: "x", Amount: core.Money{Cents: 1}, DueDay: 0}},
		{"due day 32", BillInput{Name: "x", Amount: core.Money{Cents: 1}, DueDay: 32}},
		{"bad category", BillInput{Name: "x", Amount: core.Money{Cents: 1}, DueDay: 1, Category: "rent"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Bills.Create(ctx, owner, tt.in)
			assert.ErrorIs(t, err, core.ErrValidation)
		})
	}
}

func TestBillService_DeleteKeepsPaymentHistory(t *testing.T) {
	f := newFixture(t, date(2024, 3, 15))
	ctx := context.Background()
	b := f.bill(t, "WiFi", 59900, 15, core.Bills)

	_, err := f.svc.Payments.MarkPaid(ctx, owner, PayBillInput{BillID: b.ID, Mode: core.UPI})
	require.NoError(t, err)
	require.NoError(t, f.svc.Bills.Delete(ctx, owner, b.ID))

	payments, err := f.svc.Bills.Payments(ctx, owner, core.Period{Year: 2024, Month: time.March})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Empty(t, payments[0].BillID)
	assert.Equal(t, "WiFi", payments[0].BillName)
}

func TestBillService_Status(t *testing.T) {
	f := newFixture(t, date(2024, 3, 15))
	ctx := context.Background()
	eb := f.bill(t, "EB Bill", 80000, 10, core.Bills)
	f.bill(t, "WiFi", 59900, 20, core.Bills)

	overview, err := f.svc.Bills.Status(ctx, owner, core.Period{})
	require.NoError(t, err)
	assert.Equal(t, "2024-03", overview.Period.String())
	assert.Equal(t, 1, overview.Stats.Overdue)
	assert.Equal(t, 1, overview.Stats.Pending)

	_, err = f.svc.Payments.MarkPaid(ctx, owner, PayBillInput{BillID: eb.ID, Mode: core.Cash})
	require.NoError(t, err)

	overview, err = f.svc.Bills.Status(ctx, owner, core.Period{})
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaid, overview.Bills[0].Status)
	assert.Equal(t, 0, overview.Stats.Overdue)

	// an elapsed month with nothing paid
	overview, err = f.svc.Bills.Status(ctx, owner, core.Period{Year: 2024, Month: time.February})
	require.NoError(t, err)
	assert.Equal(t, 2, overview.Stats.Overdue)
}

func TestBillService_SeedDefaultsSkipsExistingOwner(t *testing.T) {
	f := newFixture(t, date(2024, 3, 15))
	f.bill(t, "Only", 100, 1, core.Bills)

	n, err := f.svc.Bills.SeedDefaults(context.Background(), owner, DefaultBills())
	require.NoError(t, err)
	assert.Zero(t, n)
}
