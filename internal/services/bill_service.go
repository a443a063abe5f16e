package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"expensetracker/internal/core"
)

// BillInput carries the user-editable fields of a bill. A nil Active means
// "active" on create and "unchanged" on update.
type BillInput struct {
	Name     string
	Amount   core.Money
	DueDay   int
	Category core.Category
	Active   *bool
}

type BillService struct {
	*base
}

func (s *BillService) Create(ctx context.Context, ownerID string, in BillInput) (core.Bill, error) {
	if err := requireOwner(ownerID); err != nil {
		return core.Bill{}, err
	}
	now := s.clock.Now()
	b := core.Bill{
		ID:        newID(),
		OwnerID:   ownerID,
		Name:      strings.TrimSpace(in.Name),
		Amount:    in.Amount,
		DueDay:    in.DueDay,
		Category:  in.Category,
		Active:    in.Active == nil || *in.Active,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	if err := s.store.CreateBill(ctx, b); err != nil {
		return core.Bill{}, fmt.Errorf("create bill: %w", err)
	}
	slog.InfoContext(ctx, "Bill created", "bill_id", b.ID, "due_day", b.DueDay)
	return b, nil
}

func (s *BillService) Get(ctx context.Context, ownerID, id string) (core.Bill, error) {
	if err := requireOwner(ownerID); err != nil {
		return core.Bill{}, err
	}
	b, err := s.store.GetBill(ctx, ownerID, id)
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill: %w", err)
	}
	return b, nil
}

// List returns the owner's bills ordered by due day.
func (s *BillService) List(ctx context.Context, ownerID string, includeInactive bool) ([]core.Bill, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	bills, err := s.store.ListBills(ctx, ownerID, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return bills, nil
}

// Update replaces the editable fields. Existing payments keep their
// snapshots of the old name and amount.
func (s *BillService) Update(ctx context.Context, ownerID, id string, in BillInput) (core.Bill, error) {
	if err := requireOwner(ownerID); err != nil {
		return core.Bill{}, err
	}
	b, err := s.store.GetBill(ctx, ownerID, id)
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill: %w", err)
	}
	b.Name = strings.TrimSpace(in.Name)
	b.Amount = in.Amount
	b.DueDay = in.DueDay
	b.Category = in.Category
	if in.Active != nil {
		b.Active = *in.Active
	}
	b.UpdatedAt = s.clock.Now()
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	if err := s.store.UpdateBill(ctx, b); err != nil {
		return core.Bill{}, fmt.Errorf("update bill: %w", err)
	}
	return b, nil
}

func (s *BillService) Delete(ctx context.Context, ownerID, id string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if err := s.store.DeleteBill(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	slog.InfoContext(ctx, "Bill deleted", "bill_id", id)
	return nil
}

// Status resolves every active bill for period; a zero period means the
// current one.
func (s *BillService) Status(ctx context.Context, ownerID string, period core.Period) (BillOverviewResult, error) {
	if err := requireOwner(ownerID); err != nil {
		return BillOverviewResult{}, err
	}
	today := s.clock.Now()
	if period.IsZero() {
		period = core.PeriodOf(today)
	}
	bills, err := s.store.ListBills(ctx, ownerID, false)
	if err != nil {
		return BillOverviewResult{}, fmt.Errorf("list bills: %w", err)
	}
	payments, err := s.store.ListBillPayments(ctx, ownerID, period)
	if err != nil {
		return BillOverviewResult{}, fmt.Errorf("list bill payments: %w", err)
	}
	return BillOverview(bills, period, today, payments), nil
}

func (s *BillService) Payments(ctx context.Context, ownerID string, period core.Period) ([]core.BillPayment, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if period.IsZero() {
		period = core.PeriodOf(s.clock.Now())
	}
	payments, err := s.store.ListBillPayments(ctx, ownerID, period)
	if err != nil {
		return nil, fmt.Errorf("list bill payments: %w", err)
	}
	return payments, nil
}

// SeedDefaults creates templates for an owner that has no bills at all,
// inactive ones included. It returns how many bills were created.
func (s *BillService) SeedDefaults(ctx context.Context, ownerID string, templates []BillInput) (int, error) {
	if len(templates) == 0 {
		return 0, nil
	}
	existing, err := s.List(ctx, ownerID, true)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for i, t := range templates {
		if _, err := s.Create(ctx, ownerID, t); err != nil {
			return i, fmt.Errorf("seed bill %q: %w", t.Name, err)
		}
	}
	slog.InfoContext(ctx, "Seeded default bills", "count", len(templates))
	return len(templates), nil
}
