package report

import (
	"sort"
	"time"

	"expensetracker/internal/core"
	"github.com/shopspring/decimal"
)

// significantChange is the month-over-month swing, in percent, worth flagging.
const significantChange = 20.0

type Stats struct {
	Count   int        `json:"count"`
	Total   core.Money `json:"total"`
	Average core.Money `json:"average"`
	Median  core.Money `json:"median"`
	Min     core.Money `json:"min"`
	Max     core.Money `json:"max"`
}

type CategoryChange struct {
	Category      core.Category `json:"category"`
	Current       core.Money    `json:"current"`
	Previous      core.Money    `json:"previous"`
	PercentChange float64       `json:"percent_change"`
	Significant   bool          `json:"significant"`
}

type Comparison struct {
	CurrentTotal  core.Money       `json:"current_total"`
	PreviousTotal core.Money       `json:"previous_total"`
	Difference    core.Money       `json:"difference"`
	PercentChange float64          `json:"percent_change"`
	Direction     string           `json:"direction"`
	Categories    []CategoryChange `json:"categories"`
}

func divide(m core.Money, n int64) core.Money {
	if n == 0 {
		return core.Money{}
	}
	v, _ := core.MoneyFromDecimal(m.Decimal().Div(decimal.NewFromInt(n)))
	return v
}

// Summarize computes count, total, average, median, min and max.
func Summarize(expenses []core.Expense) Stats {
	s := Stats{Count: len(expenses), Total: Total(expenses)}
	if s.Count == 0 {
		return s
	}
	amounts := make([]int64, len(expenses))
	for i, e := range expenses {
		amounts[i] = e.Amount.Cents
	}
	sort.Slice(amounts, func(i, j int) bool { return amounts[i] < amounts[j] })

	s.Average = divide(s.Total, int64(s.Count))
	s.Min = core.Money{Cents: amounts[0]}
	s.Max = core.Money{Cents: amounts[len(amounts)-1]}
	mid := len(amounts) / 2
	if len(amounts)%2 == 0 {
		s.Median = divide(core.Money{Cents: amounts[mid-1] + amounts[mid]}, 2)
	} else {
		s.Median = core.Money{Cents: amounts[mid]}
	}
	return s
}

// Compare contrasts two sets of expenses, typically consecutive months.
// Percent changes are 0 whenever the previous amount is 0.
func Compare(current, previous []core.Expense) Comparison {
	c := Comparison{
		CurrentTotal:  Total(current),
		PreviousTotal: Total(previous),
	}
	c.Difference = c.CurrentTotal.Sub(c.PreviousTotal)
	c.PercentChange = core.Percent(c.Difference, c.PreviousTotal)
	switch {
	case c.Difference.Cents > 0:
		c.Direction = "increase"
	case c.Difference.Cents < 0:
		c.Direction = "decrease"
	default:
		c.Direction = "flat"
	}

	prev := make(map[core.Category]core.Money)
	for _, share := range CategoryBreakdown(previous) {
		prev[share.Category] = share.Amount
	}
	for _, share := range CategoryBreakdown(current) {
		p := prev[share.Category]
		pct := core.Percent(share.Amount.Sub(p), p)
		c.Categories = append(c.Categories, CategoryChange{
			Category:      share.Category,
			Current:       share.Amount,
			Previous:      p,
			PercentChange: pct,
			Significant:   pct > significantChange || pct < -significantChange,
		})
	}
	return c
}

// HighestDay returns the day with the largest spend, earliest first on ties.
func HighestDay(expenses []core.Expense) (DayTotal, bool) {
	totals := make(map[string]core.Money)
	for _, e := range expenses {
		d := e.SpentAt.Format(time.DateOnly)
		totals[d] = totals[d].Add(e.Amount)
	}
	var best DayTotal
	found := false
	for d, amt := range totals {
		if !found || amt.Cents > best.Amount.Cents || (amt.Cents == best.Amount.Cents && d < best.Date) {
			best = DayTotal{Date: d, Amount: amt}
			found = true
		}
	}
	return best, found
}

// MostUsedMode returns the payment mode with the most transactions.
func MostUsedMode(expenses []core.Expense) (core.PaymentMode, bool) {
	counts := make(map[core.PaymentMode]int)
	for _, e := range expenses {
		counts[e.Mode]++
	}
	var best core.PaymentMode
	for m, n := range counts {
		if best == "" || n > counts[best] || (n == counts[best] && m.Rank() < best.Rank()) {
			best = m
		}
	}
	return best, best != ""
}
