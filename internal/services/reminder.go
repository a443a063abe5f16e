package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
)

// ReminderService announces unpaid bills that are overdue or close to their
// due day, at most once per bill, status and day within this process.
type ReminderService struct {
	*base
	settings *SettingsService
	window   int

	mu   sync.Mutex
	sent map[string]string // owner/bill/status -> date
}

// Reminder is one bill that needs attention.
type Reminder struct {
	Bill   core.Bill
	Status core.BillStatus
	Period core.Period
}

// Due lists the owner's reminders as of now without publishing anything.
func (s *ReminderService) Due(ctx context.Context, ownerID string, now time.Time) ([]Reminder, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	period := core.PeriodOf(now)
	bills, err := s.store.ListBills(ctx, ownerID, false)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	payments, err := s.store.ListBillPayments(ctx, ownerID, period)
	if err != nil {
		return nil, fmt.Errorf("list bill payments: %w", err)
	}

	var out []Reminder
	for _, b := range bills {
		st := ResolveBillStatus(b, period, now, payments)
		if st == core.StatusOverdue || (st == core.StatusPending && DueSoon(b, now, s.window)) {
			out = append(out, Reminder{Bill: b, Status: st, Period: period})
		}
	}
	return out, nil
}

// Send publishes a bill.reminder event per reminder when the owner has
// notifications enabled and returns how many were published.
func (s *ReminderService) Send(ctx context.Context, ownerID string, now time.Time) (int, error) {
	enabled, err := s.settings.NotificationsEnabled(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	if !enabled {
		return 0, nil
	}
	reminders, err := s.Due(ctx, ownerID, now)
	if err != nil {
		return 0, err
	}
	if s.events == nil {
		if len(reminders) > 0 {
			slog.WarnContext(ctx, "AMQP client not available, skipping reminders", "count", len(reminders))
		}
		return 0, nil
	}

	today := now.Format(time.DateOnly)
	sent := 0
	for _, r := range reminders {
		key := ownerID + "/" + r.Bill.ID + "/" + string(r.Status)
		if !s.markSent(key, today) {
			continue
		}
		e := amqp.NewEvent(amqp.BillReminder, ownerID, r.Bill.ID, r.Period.String())
		e.Status = string(r.Status)
		err := s.events.Publish(ctx, e)
		s.metrics.EventPublished(string(amqp.BillReminder), err)
		if err != nil {
			s.unmarkSent(key)
			slog.ErrorContext(ctx, "Failed to publish reminder", "bill_id", r.Bill.ID, "error", err)
			continue
		}
		s.metrics.ReminderSent()
		sent++
	}
	return sent, nil
}

func (s *ReminderService) markSent(key, day string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sent == nil {
		s.sent = make(map[string]string)
	}
	if s.sent[key] == day {
		return false
	}
	s.sent[key] = day
	return true
}

func (s *ReminderService) unmarkSent(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sent, key)
}
