package report

import (
	"testing"
	"time"

	"expensetracker/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	assert.Equal(t, Stats{}, Summarize(nil))

	odd := []core.Expense{
		exp(300, core.Food, core.Cash, day(2024, 1, 1, 0)),
		exp(100, core.Food, core.Cash, day(2024, 1, 2, 0)),
		exp(200, core.Food, core.Cash, day(2024, 1, 3, 0)),
	}
	s := Summarize(odd)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, core.Money{Cents: 600}, s.Total)
	assert.Equal(t, core.Money{Cents: 200}, s.Average)
	assert.Equal(t, core.Money{Cents: 200}, s.Median)
	assert.Equal(t, core.Money{Cents: 100}, s.Min)
	assert.Equal(t, core.Money{Cents: 300}, s.Max)

	even := append(odd, exp(401, core.Food, core.Cash, day(2024, 1, 4, 0)))
	s = Summarize(even)
	assert.Equal(t, core.Money{Cents: 250}, s.Median)
	assert.Equal(t, core.Money{Cents: 250}, s.Average) // 1001/4 rounds to 250

	pair := []core.Expense{exp(1, core.Food, core.Cash, day(2024, 1, 1, 0)), exp(2, core.Food, core.Cash, day(2024, 1, 1, 0))}
	assert.Equal(t, core.Money{Cents: 2}, Summarize(pair).Median) // 1.5 rounds half away from zero
}

func TestCompare(t *testing.T) {
	prev := []core.Expense{
		exp(1000, core.Food, core.Cash, day(2024, 1, 5, 0)),
		exp(1000, core.Transport, core.Cash, day(2024, 1, 6, 0)),
	}
	cur := []core.Expense{
		exp(1500, core.Food, core.Cash, day(2024, 2, 5, 0)),
		exp(900, core.Transport, core.Cash, day(2024, 2, 6, 0)),
		exp(100, core.Personal, core.Cash, day(2024, 2, 7, 0)),
	}

	c := Compare(cur, prev)
	assert.Equal(t, core.Money{Cents: 2500}, c.CurrentTotal)
	assert.Equal(t, core.Money{Cents: 2000}, c.PreviousTotal)
	assert.Equal(t, core.Money{Cents: 500}, c.Difference)
	assert.Equal(t, 25.0, c.PercentChange)
	assert.Equal(t, "increase", c.Direction)

	require.Len(t, c.Categories, 3)
	assert.Equal(t, core.Food, c.Categories[0].Category)
	assert.Equal(t, 50.0, c.Categories[0].PercentChange)
	assert.True(t, c.Categories[0].Significant)
	assert.Equal(t, core.Transport, c.Categories[1].Category)
	assert.Equal(t, -10.0, c.Categories[1].PercentChange)
	assert.False(t, c.Categories[1].Significant)
	assert.Equal(t, core.Personal, c.Categories[2].Category)
	assert.Equal(t, 0.0, c.Categories[2].PercentChange, "no previous spend means no percentage")

	assert.Equal(t, "flat", Compare(nil, nil).Direction)
	assert.Equal(t, "decrease", Compare(nil, prev).Direction)
}

func TestHighestDayAndMostUsedMode(t *testing.T) {
	_, ok := HighestDay(nil)
	assert.False(t, ok)
	_, ok = MostUsedMode(nil)
	assert.False(t, ok)

	in := []core.Expense{
		exp(100, core.Food, core.Card, day(2024, 1, 1, 8)),
		exp(150, core.Food, core.Card, day(2024, 1, 1, 20)),
		exp(250, core.Food, core.UPI, day(2024, 1, 2, 9)),
		exp(10, core.Food, core.UPI, day(2024, 1, 3, 9)),
	}
	d, ok := HighestDay(in)
	require.True(t, ok)
	assert.Equal(t, DayTotal{Date: "2024-01-01", Amount: core.Money{Cents: 250}}, d)

	m, ok := MostUsedMode(in)
	require.True(t, ok)
	assert.Equal(t, core.UPI, m)
}

func TestBuildMonthlyReport(t *testing.T) {
	p := core.Period{Year: 2024, Month: time.March}
	in := []core.Expense{
		exp(60000, core.Food, core.UPI, day(2024, 3, 2, 10)),
		exp(20000, core.Bills, core.Cash, day(2024, 3, 31, 23)),
		exp(99900, core.Food, core.UPI, day(2024, 4, 1, 0)),
	}
	r := BuildMonthlyReport(p, in, core.Money{Cents: 100000})

	assert.Equal(t, p, r.Period)
	assert.Equal(t, core.Money{Cents: 80000}, r.Total)
	assert.Equal(t, core.Money{Cents: 20000}, r.Remaining)
	assert.Equal(t, 80.0, r.BudgetProgress)
	assert.Equal(t, 20.0, r.SavedPercentage)
	assert.False(t, r.Overspent)
	assert.Equal(t, 2, r.TransactionCount)
	require.Len(t, r.Categories, 2)
	assert.Equal(t, core.Food, r.Categories[0].Category)
	require.NotNil(t, r.HighestDay)
	assert.Equal(t, "2024-03-02", r.HighestDay.Date)

	over := BuildMonthlyReport(p, in, core.Money{Cents: 50000})
	assert.True(t, over.Overspent)
	assert.Equal(t, 100.0, over.BudgetProgress)
	assert.Equal(t, core.Money{Cents: -30000}, over.Remaining)
}

func TestMonthlyReportWithBudget(t *testing.T) {
	p := core.Period{Year: 2024, Month: time.February}
	in := []core.Expense{exp(60000, core.Food, core.UPI, day(2024, 2, 10, 0))}
	r := BuildMonthlyReport(p, in, core.Money{Cents: 100000})

	rebased := r.WithBudget(core.Money{Cents: 50000})
	assert.Equal(t, BuildMonthlyReport(p, in, core.Money{Cents: 50000}), rebased)
	assert.Equal(t, core.Money{Cents: 50000}, rebased.Budget)
	assert.Equal(t, core.Money{Cents: -10000}, rebased.Remaining)
	assert.True(t, rebased.Overspent)
	assert.Equal(t, core.Money{Cents: 100000}, r.Budget, "receiver is not modified")

	none := r.WithBudget(core.Money{})
	assert.Equal(t, 0.0, none.BudgetProgress)
	assert.Equal(t, 0.0, none.SavedPercentage)
}

func TestBuildDashboard(t *testing.T) {
	now := day(2024, 3, 13, 15) // Wednesday
	settings := core.UserSettings{MonthlyBudget: core.Money{Cents: 100000}, StartOfWeek: time.Monday}
	in := []core.Expense{
		exp(1000, core.Food, core.Cash, day(2024, 3, 13, 9)),
		exp(2000, core.Transport, core.UPI, day(2024, 3, 11, 9)),
		exp(4000, core.Groceries, core.Card, day(2024, 3, 2, 9)),
		exp(8000, core.Bills, core.Card, day(2024, 2, 28, 9)),
	}
	d := BuildDashboard(now, in, settings)

	assert.Equal(t, "2024-03-13", d.Today.Date)
	assert.Equal(t, core.Money{Cents: 1000}, d.Today.Total)
	assert.Equal(t, 1, d.Today.Count)

	assert.Equal(t, "2024-03-11", d.Week.Start)
	assert.Equal(t, "2024-03-17", d.Week.End)
	assert.Equal(t, core.Money{Cents: 3000}, d.Week.Total)
	assert.Equal(t, core.Money{Cents: 429}, d.Week.DailyAverage)
	require.Len(t, d.Week.Days, 7)
	assert.Equal(t, core.Money{Cents: 2000}, d.Week.Days[0].Amount)

	assert.Equal(t, core.Period{Year: 2024, Month: time.March}, d.Month.Period)
	assert.Equal(t, core.Money{Cents: 7000}, d.Month.Total)
	assert.Equal(t, core.Money{Cents: 93000}, d.Month.Remaining)
	assert.Equal(t, 7.0, d.Month.BudgetProgress)
	require.Len(t, d.Month.TopCategories, 3)
	assert.Equal(t, core.Groceries, d.Month.TopCategories[0].Category)

	require.Len(t, d.Suggestions, 2)
	assert.Equal(t, "saved", d.Suggestions[0].Code)
	assert.Equal(t, "category_share", d.Suggestions[1].Code)
	assert.Equal(t, core.Groceries, d.Suggestions[1].Category)
}
