package services

import (
	"time"

	"expensetracker/internal/core"
)

// StatusRule decides the status of an unpaid bill for one relation between
// the bill's period and today. Each relation has its own rule.
type StatusRule interface {
	Status(bill core.Bill, period core.Period, today time.Time) core.BillStatus
}

type periodRelation int

const (
	periodElapsed periodRelation = iota
	periodCurrent
	periodUpcoming
)

// ElapsedRule: a period that is fully over and still unpaid is overdue.
type ElapsedRule struct{}

func (ElapsedRule) Status(core.Bill, core.Period, time.Time) core.BillStatus {
	return core.StatusOverdue
}

// CurrentRule compares today's day of month with the bill's due day, clamped
// to the length of the month.
type CurrentRule struct{}

func (CurrentRule) Status(bill core.Bill, period core.Period, today time.Time) core.BillStatus {
	if today.Day() > bill.EffectiveDueDay(period) {
		return core.StatusOverdue
	}
	return core.StatusPending
}

// UpcomingRule: nothing in a future period can be late yet.
type UpcomingRule struct{}

func (UpcomingRule) Status(core.Bill, core.Period, time.Time) core.BillStatus {
	return core.StatusPending
}

var statusRules = map[periodRelation]StatusRule{
	periodElapsed:  ElapsedRule{},
	periodCurrent:  CurrentRule{},
	periodUpcoming: UpcomingRule{},
}

func relationOf(period, current core.Period) periodRelation {
	switch c := period.Compare(current); {
	case c < 0:
		return periodElapsed
	case c > 0:
		return periodUpcoming
	default:
		return periodCurrent
	}
}

// ResolveBillStatus reports whether bill is paid, pending or overdue for
// period as seen on today. payments may hold any payments; only the one for
// (bill, period) matters.
func ResolveBillStatus(bill core.Bill, period core.Period, today time.Time, payments []core.BillPayment) core.BillStatus {
	if _, ok := findPayment(bill.ID, period, payments); ok {
		return core.StatusPaid
	}
	rule := statusRules[relationOf(period, core.PeriodOf(today))]
	return rule.Status(bill, period, today)
}

func findPayment(billID string, period core.Period, payments []core.BillPayment) (core.BillPayment, bool) {
	for _, p := range payments {
		if p.BillID != "" && p.BillID == billID && p.Period == period {
			return p, true
		}
	}
	return core.BillPayment{}, false
}

// DueSoon reports whether an unpaid bill falls due within window days of
// today in today's period. Bills already past their due day are not "soon".
func DueSoon(bill core.Bill, today time.Time, window int) bool {
	days := bill.EffectiveDueDay(core.PeriodOf(today)) - today.Day()
	return days >= 0 && days <= window
}

type BillStatusEntry struct {
	Bill    core.Bill         `json:"bill"`
	Status  core.BillStatus   `json:"status"`
	DueDate string            `json:"due_date"`
	Payment *core.BillPayment `json:"payment,omitempty"`
}

// BillStats counts bills by status. PendingAmount covers everything unpaid,
// overdue included.
type BillStats struct {
	Total         int        `json:"total"`
	Paid          int        `json:"paid"`
	Pending       int        `json:"pending"`
	Overdue       int        `json:"overdue"`
	TotalAmount   core.Money `json:"total_amount"`
	PaidAmount    core.Money `json:"paid_amount"`
	PendingAmount core.Money `json:"pending_amount"`
}

type BillOverviewResult struct {
	Period core.Period       `json:"period"`
	Bills  []BillStatusEntry `json:"bills"`
	Stats  BillStats         `json:"stats"`
}

// BillOverview resolves every bill for period. Paid amounts come from the
// payment snapshots, not the bill's current amount.
func BillOverview(bills []core.Bill, period core.Period, today time.Time, payments []core.BillPayment) BillOverviewResult {
	out := BillOverviewResult{Period: period, Bills: make([]BillStatusEntry, 0, len(bills))}
	for _, b := range bills {
		entry := BillStatusEntry{
			Bill:    b,
			Status:  ResolveBillStatus(b, period, today, payments),
			DueDate: b.DueDate(period).Format(time.DateOnly),
		}
		out.Stats.Total++
		out.Stats.TotalAmount = out.Stats.TotalAmount.Add(b.Amount)

		switch entry.Status {
		case core.StatusPaid:
			p, _ := findPayment(b.ID, period, payments)
			entry.Payment = &p
			out.Stats.Paid++
			out.Stats.PaidAmount = out.Stats.PaidAmount.Add(p.Amount)
		case core.StatusOverdue:
			out.Stats.Overdue++
			out.Stats.PendingAmount = out.Stats.PendingAmount.Add(b.Amount)
		default:
			out.Stats.Pending++
			out.Stats.PendingAmount = out.Stats.PendingAmount.Add(b.Amount)
		}
		out.Bills = append(out.Bills, entry)
	}
	return out
}
