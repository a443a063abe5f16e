package services

import (
	"context"
	"fmt"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/report"
	"expensetracker/internal/storage"
)

// ComparisonReport puts a period next to the one before it.
type ComparisonReport struct {
	Period   core.Period       `json:"period"`
	Previous core.Period       `json:"previous"`
	Result   report.Comparison `json:"comparison"`
}

type ReportService struct {
	*base
	settings *SettingsService
}

func (s *ReportService) periodExpenses(ctx context.Context, ownerID string, p core.Period) ([]core.Expense, error) {
	expenses, err := s.store.ListExpenses(ctx, ownerID, storage.ExpenseFilter{From: p.Start(), To: p.End()})
	if err != nil {
		return nil, fmt.Errorf("list expenses for %s: %w", p, err)
	}
	return expenses, nil
}

// Dashboard summarises today, this week and this month.
func (s *ReportService) Dashboard(ctx context.Context, ownerID string) (report.Dashboard, error) {
	st, err := s.settings.Get(ctx, ownerID)
	if err != nil {
		return report.Dashboard{}, err
	}
	now := s.clock.Now()
	weekStart, weekEnd := report.WeekRange(now, st.StartOfWeek)
	monthStart, monthEnd := report.MonthRange(now)

	// One query covering both the week and the month.
	from, to := monthStart, monthEnd
	if weekStart.Before(from) {
		from = weekStart
	}
	if weekEnd.After(to) {
		to = weekEnd
	}
	expenses, err := s.store.ListExpenses(ctx, ownerID, storage.ExpenseFilter{From: from, To: to})
	if err != nil {
		return report.Dashboard{}, fmt.Errorf("list expenses: %w", err)
	}
	return report.BuildDashboard(now, expenses, st), nil
}

// Monthly builds the report for p against the owner's current budget. The
// cache holds the budget-free aggregation until an expense in p changes; the
// budget is applied on every read.
func (s *ReportService) Monthly(ctx context.Context, ownerID string, p core.Period) (report.MonthlyReport, error) {
	if err := requireOwner(ownerID); err != nil {
		return report.MonthlyReport{}, err
	}
	if p.IsZero() {
		p = core.PeriodOf(s.clock.Now())
	}
	st, err := s.settings.Get(ctx, ownerID)
	if err != nil {
		return report.MonthlyReport{}, err
	}

	key := reportKey(ownerID, p)
	if s.reports != nil {
		if r, ok := s.reports.Get(ctx, key); ok {
			return r.WithBudget(st.MonthlyBudget), nil
		}
	}
	expenses, err := s.periodExpenses(ctx, ownerID, p)
	if err != nil {
		return report.MonthlyReport{}, err
	}
	r := report.BuildMonthlyReport(p, expenses, core.Money{})
	if s.reports != nil {
		s.reports.Set(ctx, key, r)
	}
	return r.WithBudget(st.MonthlyBudget), nil
}

// Trend totals spending between from and to per granularity bucket. A zero
// from starts twelve months before to; a zero to means now.
func (s *ReportService) Trend(ctx context.Context, ownerID string, g report.Granularity, from, to time.Time) ([]report.TrendPoint, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = s.clock.Now()
	}
	if from.IsZero() {
		from = core.PeriodOf(to).Start().AddDate(-1, 0, 0)
	}
	if to.Before(from) {
		return nil, core.Invalid("to", "must not be before from")
	}
	expenses, err := s.store.ListExpenses(ctx, ownerID, storage.ExpenseFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return report.Trend(expenses, g), nil
}

// Compare contrasts p with the month before it.
func (s *ReportService) Compare(ctx context.Context, ownerID string, p core.Period) (ComparisonReport, error) {
	if err := requireOwner(ownerID); err != nil {
		return ComparisonReport{}, err
	}
	if p.IsZero() {
		p = core.PeriodOf(s.clock.Now())
	}
	current, err := s.periodExpenses(ctx, ownerID, p)
	if err != nil {
		return ComparisonReport{}, err
	}
	previous, err := s.periodExpenses(ctx, ownerID, p.Prev())
	if err != nil {
		return ComparisonReport{}, err
	}
	return ComparisonReport{
		Period:   p,
		Previous: p.Prev(),
		Result:   report.Compare(current, previous),
	}, nil
}
