package report

import (
	"time"

	"expensetracker/internal/core"
)

// DayTotal is the spend of a single calendar day.
type DayTotal struct {
	Date   string     `json:"date"`
	Amount core.Money `json:"amount"`
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(start time.Time, days int) time.Time {
	return start.AddDate(0, 0, days).Add(-time.Nanosecond)
}

// DayRange spans the calendar day containing now.
func DayRange(now time.Time) (time.Time, time.Time) {
	start := midnight(now)
	return start, endOfDay(start, 1)
}

// WeekRange spans the seven days of the week containing now, where weeks
// begin on startOfWeek.
func WeekRange(now time.Time, startOfWeek time.Weekday) (time.Time, time.Time) {
	back := (int(now.Weekday()) - int(startOfWeek) + 7) % 7
	start := midnight(now).AddDate(0, 0, -back)
	return start, endOfDay(start, 7)
}

// MonthRange spans the calendar month containing now.
func MonthRange(now time.Time) (time.Time, time.Time) {
	y, m, _ := now.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// DailyTotals returns seven zero-filled day totals starting at weekStart.
func DailyTotals(expenses []core.Expense, weekStart time.Time) []DayTotal {
	start := midnight(weekStart)
	out := make([]DayTotal, 7)
	idx := make(map[string]int, len(out))
	for i := range out {
		out[i].Date = start.AddDate(0, 0, i).Format(time.DateOnly)
		idx[out[i].Date] = i
	}
	for _, e := range expenses {
		if i, ok := idx[e.SpentAt.In(start.Location()).Format(time.DateOnly)]; ok {
			out[i].Amount = out[i].Amount.Add(e.Amount)
		}
	}
	return out
}
