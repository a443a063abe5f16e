package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/report"
	"expensetracker/internal/storage"
)

type ExpenseInput struct {
	Item     string
	Amount   core.Money
	Category core.Category
	Mode     core.PaymentMode
	// SpentAt defaults to now when zero.
	SpentAt time.Time
	Notes   string
}

// ListOptions filters expenses. From and To are widened to whole days so a
// range always includes everything dated on its first and last day.
type ListOptions struct {
	From     time.Time
	To       time.Time
	Category core.Category
	Limit    int
}

// ExpenseService writes expenses to storage and then announces them on the
// event bus; a failed publish never fails the request.
type ExpenseService struct {
	*base
}

func (s *ExpenseService) Create(ctx context.Context, ownerID string, in ExpenseInput) (core.Expense, error) {
	if err := requireOwner(ownerID); err != nil {
		return core.Expense{}, err
	}
	now := s.clock.Now()
	e := core.Expense{
		ID:        newID(),
		OwnerID:   ownerID,
		Item:      strings.TrimSpace(in.Item),
		Amount:    in.Amount,
		Category:  in.Category,
		Mode:      in.Mode,
		SpentAt:   in.SpentAt,
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if e.SpentAt.IsZero() {
		e.SpentAt = now
	}
	e.SpentAt = e.SpentAt.UTC()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	// Save first, announce after
	if err := s.store.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.metrics.ExpenseWritten("create")

	period := core.PeriodOf(e.SpentAt)
	s.invalidate(ctx, ownerID, period)
	s.publish(ctx, amqp.ExpenseCreated, ownerID, e.ID, period)
	return e, nil
}

func (s *ExpenseService) Get(ctx context.Context, ownerID, id string) (core.Expense, error) {
	if err := requireOwner(ownerID); err != nil {
		return core.Expense{}, err
	}
	e, err := s.store.GetExpense(ctx, ownerID, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (s *ExpenseService) Update(ctx context.Context, ownerID, id string, in ExpenseInput) (core.Expense, error) {
	if err := requireOwner(ownerID); err != nil {
		return core.Expense{}, err
	}
	e, err := s.store.GetExpense(ctx, ownerID, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	oldPeriod := core.PeriodOf(e.SpentAt)

	e.Item = strings.TrimSpace(in.Item)
	e.Amount = in.Amount
	e.Category = in.Category
	e.Mode = in.Mode
	if !in.SpentAt.IsZero() {
		e.SpentAt = in.SpentAt.UTC()
	}
	e.Notes = strings.TrimSpace(in.Notes)
	e.UpdatedAt = s.clock.Now()
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.metrics.ExpenseWritten("update")

	newPeriod := core.PeriodOf(e.SpentAt)
	s.invalidate(ctx, ownerID, oldPeriod, newPeriod)
	s.publish(ctx, amqp.ExpenseUpdated, ownerID, e.ID, newPeriod)
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, ownerID, id string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	e, err := s.store.GetExpense(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("get expense: %w", err)
	}
	if err := s.store.DeleteExpense(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.metrics.ExpenseWritten("delete")
	slog.InfoContext(ctx, "Expense deleted", "expense_id", id)

	period := core.PeriodOf(e.SpentAt)
	s.invalidate(ctx, ownerID, period)
	s.publish(ctx, amqp.ExpenseDeleted, ownerID, id, period)
	return nil
}

// List returns matching expenses newest first.
func (s *ExpenseService) List(ctx context.Context, ownerID string, opts ListOptions) ([]core.Expense, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if opts.Category != "" && !opts.Category.Valid() {
		return nil, core.ErrInvalidCategory
	}
	if opts.Limit < 0 {
		return nil, core.Invalid("limit", "cannot be negative")
	}
	f := storage.ExpenseFilter{Category: opts.Category, Limit: opts.Limit}
	if !opts.From.IsZero() {
		f.From, _ = report.DayRange(opts.From)
	}
	if !opts.To.IsZero() {
		_, f.To = report.DayRange(opts.To)
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, core.Invalid("to", "must not be before from")
	}
	expenses, err := s.store.ListExpenses(ctx, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Today lists the expenses dated on the clock's current day.
func (s *ExpenseService) Today(ctx context.Context, ownerID string) ([]core.Expense, error) {
	now := s.clock.Now()
	return s.List(ctx, ownerID, ListOptions{From: now, To: now})
}

// Month lists the expenses of period; a zero period means the current one.
func (s *ExpenseService) Month(ctx context.Context, ownerID string, period core.Period) ([]core.Expense, error) {
	if period.IsZero() {
		period = core.PeriodOf(s.clock.Now())
	}
	return s.List(ctx, ownerID, ListOptions{From: period.Start(), To: period.End()})
}
