package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"expensetracker/internal/core"
	"github.com/shopspring/decimal"
)

const (
	// categoryShareWarning is the share of spend, in percent, above which a
	// category gets its own suggestion.
	categoryShareWarning = 30.0

	smallTransactionCents = 10_000
	smallTransactionLimit = 20
)

type SuggestionKind string

const (
	SuggestionWarning SuggestionKind = "warning"
	SuggestionSuccess SuggestionKind = "success"
	SuggestionInfo    SuggestionKind = "info"
)

// Suggestion is a short piece of advice derived from a month of spending.
type Suggestion struct {
	Kind     SuggestionKind `json:"kind"`
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	Category core.Category  `json:"category,omitempty"`
	Amount   *core.Money    `json:"amount,omitempty"`
}

func moneyRef(m core.Money) *core.Money { return &m }

// Suggestions looks at the expenses of the month containing now and returns
// advice in a stable order: budget outcome, heavy categories, pace, then
// small purchases. Budget-based advice is skipped when budget is zero.
func Suggestions(now time.Time, expenses []core.Expense, budget core.Money) []Suggestion {
	now = now.UTC()
	p := core.PeriodOf(now)
	month := FilterByPeriod(expenses, p.Start(), p.End())
	total := Total(month)
	out := []Suggestion{}

	if budget.Cents > 0 {
		if remaining := RemainingBudget(total, budget); remaining.Cents < 0 {
			over := core.Money{Cents: -remaining.Cents}
			out = append(out, Suggestion{
				Kind:    SuggestionWarning,
				Code:    "overspent",
				Message: fmt.Sprintf("You've overspent by %s this month. Consider reviewing your expenses.", over),
				Amount:  moneyRef(over),
			})
		} else {
			out = append(out, Suggestion{
				Kind: SuggestionSuccess,
				Code: "saved",
				Message: fmt.Sprintf("Great job! You've saved %s (%.1f%% of budget) this month.",
					remaining, core.Percent(remaining, budget)),
				Amount: moneyRef(remaining),
			})
		}
	}

	for _, c := range CategoryBreakdown(month) {
		if c.Percentage <= categoryShareWarning {
			continue
		}
		out = append(out, Suggestion{
			Kind:     SuggestionInfo,
			Code:     "category_share",
			Message:  fmt.Sprintf("%s accounts for %.1f%% of your spending. Consider ways to reduce this.", titleCase(string(c.Category)), c.Percentage),
			Category: c.Category,
			Amount:   moneyRef(c.Amount),
		})
	}

	if budget.Cents > 0 && total.Cents > 0 {
		day := int64(now.Day())
		daysInMonth := int64(p.DaysIn())
		daysLeft := daysInMonth - day
		projected := total.Decimal().Mul(decimal.NewFromInt(daysInMonth)).Div(decimal.NewFromInt(day))
		if projected.GreaterThan(budget.Decimal()) && daysLeft > 0 {
			daily := divide(RemainingBudget(total, budget), daysLeft)
			if daily.Cents < 0 {
				daily = core.Money{}
			}
			out = append(out, Suggestion{
				Kind:    SuggestionWarning,
				Code:    "pace",
				Message: fmt.Sprintf("At current rate, you'll exceed budget. Try to spend less than %s per day for rest of month.", daily),
				Amount:  moneyRef(daily),
			})
		}
	}

	var small []core.Expense
	for _, e := range month {
		if e.Amount.Cents < smallTransactionCents {
			small = append(small, e)
		}
	}
	if len(small) > smallTransactionLimit {
		smallTotal := Total(small)
		out = append(out, Suggestion{
			Kind:    SuggestionInfo,
			Code:    "small_transactions",
			Message: fmt.Sprintf("You have %d small transactions totaling %s. Small expenses add up!", len(small), smallTotal),
			Amount:  moneyRef(smallTotal),
		})
	}
	return out
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

type Granularity string

const (
	Daily   Granularity = "daily"
	Weekly  Granularity = "weekly"
	Monthly Granularity = "monthly"
)

// ParseGranularity accepts daily, weekly or monthly. Empty means daily.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return Daily, nil
	case Daily, Weekly, Monthly:
		return g, nil
	default:
		return "", core.Invalid("granularity", "must be daily, weekly or monthly")
	}
}

// TrendPoint is the spend of one bucket. Start is the first day of the
// bucket; weeks start on Monday.
type TrendPoint struct {
	Label  string     `json:"label"`
	Start  string     `json:"start"`
	Amount core.Money `json:"amount"`
	Count  int        `json:"count"`
}

func trendBucket(t time.Time, g Granularity) (label string, start time.Time) {
	t = midnight(t.UTC())
	switch g {
	case Weekly:
		year, week := t.ISOWeek()
		back := (int(t.Weekday()) + 6) % 7
		return fmt.Sprintf("%d-W%02d", year, week), t.AddDate(0, 0, -back)
	case Monthly:
		p := core.PeriodOf(t)
		return p.String(), p.Start()
	default:
		return t.Format(time.DateOnly), t
	}
}

// Trend totals expenses per day, ISO week or UTC month. Only buckets with
// spending are returned, oldest first.
func Trend(expenses []core.Expense, g Granularity) []TrendPoint {
	idx := make(map[string]int)
	out := []TrendPoint{}
	for _, e := range expenses {
		label, start := trendBucket(e.SpentAt, g)
		i, ok := idx[label]
		if !ok {
			i = len(out)
			idx[label] = i
			out = append(out, TrendPoint{Label: label, Start: start.Format(time.DateOnly)})
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
		out[i].Count++
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
