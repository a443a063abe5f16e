// Package report holds the pure aggregation functions behind every budget,
// breakdown and dashboard figure. Nothing here touches storage or the clock:
// callers pass the expenses and reference times in.
package report

import (
	"sort"
	"time"

	"expensetracker/internal/core"
)

// CategoryShare is one row of a category breakdown.
type CategoryShare struct {
	Category   core.Category `json:"category"`
	Amount     core.Money    `json:"amount"`
	Percentage float64       `json:"percentage"`
	Count      int           `json:"count"`
}

// ModeShare is one row of a payment mode breakdown.
type ModeShare struct {
	Mode       core.PaymentMode `json:"payment_mode"`
	Amount     core.Money       `json:"amount"`
	Percentage float64          `json:"percentage"`
	Count      int              `json:"count"`
}

// Total sums the amounts of expenses. An empty slice totals zero.
func Total(expenses []core.Expense) core.Money {
	var total core.Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// FilterByPeriod keeps expenses dated between start and end, both inclusive.
// Anything on the same calendar day as start or end is kept regardless of
// its time of day.
func FilterByPeriod(expenses []core.Expense, start, end time.Time) []core.Expense {
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if InRange(e.SpentAt, start, end) {
			out = append(out, e)
		}
	}
	return out
}

// InRange reports whether t falls within [start, end] at day granularity on
// the boundaries.
func InRange(t, start, end time.Time) bool {
	if sameDay(t, start) || sameDay(t, end) {
		return true
	}
	return t.After(start) && t.Before(end)
}

func sameDay(t, ref time.Time) bool {
	y1, m1, d1 := t.In(ref.Location()).Date()
	y2, m2, d2 := ref.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

type bucket[K comparable] struct {
	key    K
	amount core.Money
	count  int
}

// groupSorted sums amounts per key and orders buckets by amount descending,
// breaking ties with rank and then the key's string form.
func groupSorted[K ~string](expenses []core.Expense, keyOf func(core.Expense) K, rank func(K) int) []bucket[K] {
	idx := make(map[K]int)
	var buckets []bucket[K]
	for _, e := range expenses {
		k := keyOf(e)
		i, ok := idx[k]
		if !ok {
			i = len(buckets)
			idx[k] = i
			buckets = append(buckets, bucket[K]{key: k})
		}
		buckets[i].amount = buckets[i].amount.Add(e.Amount)
		buckets[i].count++
	}
	sort.Slice(buckets, func(i, j int) bool {
		a, b := buckets[i], buckets[j]
		if a.amount.Cents != b.amount.Cents {
			return a.amount.Cents > b.amount.Cents
		}
		if ra, rb := rank(a.key), rank(b.key); ra != rb {
			return ra < rb
		}
		return a.key < b.key
	})
	return buckets
}

// CategoryBreakdown groups expenses by category. Percentages are relative to
// the overall total and are all zero when the total is zero.
func CategoryBreakdown(expenses []core.Expense) []CategoryShare {
	total := Total(expenses)
	buckets := groupSorted(expenses,
		func(e core.Expense) core.Category { return e.Category },
		core.Category.Rank)
	out := make([]CategoryShare, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, CategoryShare{
			Category:   b.key,
			Amount:     b.amount,
			Percentage: core.Percent(b.amount, total),
			Count:      b.count,
		})
	}
	return out
}

// PaymentModeBreakdown is CategoryBreakdown keyed on payment mode.
func PaymentModeBreakdown(expenses []core.Expense) []ModeShare {
	total := Total(expenses)
	buckets := groupSorted(expenses,
		func(e core.Expense) core.PaymentMode { return e.Mode },
		core.PaymentMode.Rank)
	out := make([]ModeShare, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, ModeShare{
			Mode:       b.key,
			Amount:     b.amount,
			Percentage: core.Percent(b.amount, total),
			Count:      b.count,
		})
	}
	return out
}

// TopCategories returns at most n rows of the category breakdown.
func TopCategories(expenses []core.Expense, n int) []CategoryShare {
	all := CategoryBreakdown(expenses)
	if n >= 0 && len(all) > n {
		return all[:n]
	}
	return all
}

// BudgetProgress is spent as a percentage of budget, capped at 100. A zero
// budget yields 0.
func BudgetProgress(spent, budget core.Money) float64 {
	if budget.Cents <= 0 {
		return 0
	}
	p := core.Percent(spent, budget)
	if p > 100 {
		return 100
	}
	return p
}

// RemainingBudget is budget minus spent. It goes negative when overspent.
func RemainingBudget(spent, budget core.Money) core.Money {
	return budget.Sub(spent)
}
