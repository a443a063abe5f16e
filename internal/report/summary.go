package report

import (
	"time"

	"expensetracker/internal/core"
)

const dashboardTopCategories = 3

// MonthlyReport is the full picture of one period against a budget.
type MonthlyReport struct {
	Period           core.Period      `json:"period"`
	Total            core.Money       `json:"total"`
	Budget           core.Money       `json:"budget"`
	Remaining        core.Money       `json:"remaining"`
	BudgetProgress   float64          `json:"budget_progress"`
	SavedPercentage  float64          `json:"saved_percentage"`
	Overspent        bool             `json:"overspent"`
	TransactionCount int              `json:"transaction_count"`
	Categories       []CategoryShare  `json:"categories"`
	PaymentModes     []ModeShare      `json:"payment_modes"`
	Stats            Stats            `json:"stats"`
	HighestDay       *DayTotal        `json:"highest_day,omitempty"`
	MostUsedMode     core.PaymentMode `json:"most_used_mode,omitempty"`
}

type TodaySummary struct {
	Date       string          `json:"date"`
	Total      core.Money      `json:"total"`
	Count      int             `json:"count"`
	Categories []CategoryShare `json:"categories"`
}

type WeekSummary struct {
	Start        string     `json:"start"`
	End          string     `json:"end"`
	Total        core.Money `json:"total"`
	DailyAverage core.Money `json:"daily_average"`
	Days         []DayTotal `json:"days"`
}

type MonthSummary struct {
	Period         core.Period     `json:"period"`
	Total          core.Money      `json:"total"`
	Budget         core.Money      `json:"budget"`
	Remaining      core.Money      `json:"remaining"`
	BudgetProgress float64         `json:"budget_progress"`
	TopCategories  []CategoryShare `json:"top_categories"`
}

type Dashboard struct {
	Today       TodaySummary `json:"today"`
	Week        WeekSummary  `json:"week"`
	Month       MonthSummary `json:"month"`
	Suggestions []Suggestion `json:"suggestions"`
}

// BuildMonthlyReport aggregates the expenses of p. Expenses outside p are
// ignored.
func BuildMonthlyReport(p core.Period, expenses []core.Expense, budget core.Money) MonthlyReport {
	in := FilterByPeriod(expenses, p.Start(), p.End())

	r := MonthlyReport{
		Period:           p,
		Total:            Total(in),
		TransactionCount: len(in),
		Categories:       CategoryBreakdown(in),
		PaymentModes:     PaymentModeBreakdown(in),
		Stats:            Summarize(in),
	}
	if d, ok := HighestDay(in); ok {
		r.HighestDay = &d
	}
	if m, ok := MostUsedMode(in); ok {
		r.MostUsedMode = m
	}
	return r.WithBudget(budget)
}

// WithBudget returns r measured against budget. Only the budget fields change,
// so a report cached under one budget can be served under another.
func (r MonthlyReport) WithBudget(budget core.Money) MonthlyReport {
	remaining := RemainingBudget(r.Total, budget)
	r.Budget = budget
	r.Remaining = remaining
	r.BudgetProgress = BudgetProgress(r.Total, budget)
	r.SavedPercentage = core.Percent(remaining, budget)
	r.Overspent = remaining.Cents < 0
	return r
}

// BuildDashboard summarises today, the current week and the current month
// as seen at now.
func BuildDashboard(now time.Time, expenses []core.Expense, settings core.UserSettings) Dashboard {
	dayStart, dayEnd := DayRange(now)
	weekStart, weekEnd := WeekRange(now, settings.StartOfWeek)
	monthStart, monthEnd := MonthRange(now)

	today := FilterByPeriod(expenses, dayStart, dayEnd)
	week := FilterByPeriod(expenses, weekStart, weekEnd)
	month := FilterByPeriod(expenses, monthStart, monthEnd)

	weekTotal := Total(week)
	monthTotal := Total(month)

	return Dashboard{
		Today: TodaySummary{
			Date:       dayStart.Format(time.DateOnly),
			Total:      Total(today),
			Count:      len(today),
			Categories: CategoryBreakdown(today),
		},
		Week: WeekSummary{
			Start:        weekStart.Format(time.DateOnly),
			End:          weekEnd.Format(time.DateOnly),
			Total:        weekTotal,
			DailyAverage: divide(weekTotal, 7),
			Days:         DailyTotals(week, weekStart),
		},
		Month: MonthSummary{
			Period:         core.PeriodOf(now),
			Total:          monthTotal,
			Budget:         settings.MonthlyBudget,
			Remaining:      RemainingBudget(monthTotal, settings.MonthlyBudget),
			BudgetProgress: BudgetProgress(monthTotal, settings.MonthlyBudget),
			TopCategories:  TopCategories(month, dashboardTopCategories),
		},
		Suggestions: Suggestions(now, month, settings.MonthlyBudget),
	}
}
