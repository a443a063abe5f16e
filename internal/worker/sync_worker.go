package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/sheets"
	"expensetracker/internal/storage"
)

// Reader is the slice of the store the worker reads from.
type Reader interface {
	GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error)
	GetBill(ctx context.Context, ownerID, id string) (core.Bill, error)
	ListBillPayments(ctx context.Context, ownerID string, p core.Period) ([]core.BillPayment, error)
	GetSettings(ctx context.Context, ownerID string) (core.UserSettings, error)
}

var _ Reader = (storage.Store)(nil)

// Notification is what an owner is told about a bill.
type Notification struct {
	OwnerID string
	Title   string
	Body    string
}

// Notifier delivers notifications. LogNotifier is the only implementation.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, n Notification) error {
	slog.InfoContext(ctx, "Notification", "title", n.Title, "body", n.Body)
	return nil
}

// SyncWorker consumes domain events: expenses are mirrored to the sheet
// and bill events become owner notifications.
type SyncWorker struct {
	store    Reader
	mirror   sheets.Mirror
	notifier Notifier
}

func NewSyncWorker(store Reader, mirror sheets.Mirror, notifier Notifier) *SyncWorker {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &SyncWorker{store: store, mirror: mirror, notifier: notifier}
}

// Handle dispatches one event. A returned error requeues the message, so
// events about entities that no longer exist are acknowledged quietly.
func (w *SyncWorker) Handle(ctx context.Context, e amqp.Event) error {
	ctx = applog.WithOwnerID(ctx, e.OwnerID)

	slog.InfoContext(ctx, "Processing event",
		"type", e.Type,
		"entity_id", e.EntityID)

	switch e.Type {
	case amqp.ExpenseCreated, amqp.ExpenseUpdated:
		return w.syncExpense(ctx, e)
	case amqp.ExpenseDeleted:
		return w.deleteExpense(ctx, e)
	case amqp.BillPaid:
		return w.notifyPaid(ctx, e)
	case amqp.BillReminder:
		return w.notifyReminder(ctx, e)
	default:
		slog.WarnContext(ctx, "Ignoring unknown event type", "type", e.Type)
		return nil
	}
}

func (w *SyncWorker) syncExpense(ctx context.Context, e amqp.Event) error {
	if w.mirror == nil {
		return nil
	}

	expense, err := w.store.GetExpense(ctx, e.OwnerID, e.EntityID)
	if errors.Is(err, core.ErrNotFound) {
		slog.InfoContext(ctx, "Expense gone before sync, skipping", "expense_id", e.EntityID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense: %w", err)
	}

	ref, err := w.mirror.Upsert(ctx, expense)
	if err != nil {
		return fmt.Errorf("sync expense to sheets: %w", err)
	}

	slog.InfoContext(ctx, "Successfully synced expense",
		"expense_id", expense.ID,
		"sheets_ref", ref,
		"amount", expense.Amount.String())
	return nil
}

func (w *SyncWorker) deleteExpense(ctx context.Context, e amqp.Event) error {
	if w.mirror == nil {
		return nil
	}
	if err := w.mirror.Delete(ctx, e.EntityID); err != nil {
		return fmt.Errorf("delete expense from sheets: %w", err)
	}
	slog.InfoContext(ctx, "Successfully deleted expense", "expense_id", e.EntityID)
	return nil
}

func (w *SyncWorker) notifyPaid(ctx context.Context, e amqp.Event) error {
	period, err := core.ParsePeriod(e.Period)
	if err != nil {
		slog.WarnContext(ctx, "Dropping bill.paid event with bad period", "period", e.Period)
		return nil
	}
	enabled, err := w.notificationsEnabled(ctx, e.OwnerID)
	if err != nil || !enabled {
		return err
	}

	payments, err := w.store.ListBillPayments(ctx, e.OwnerID, period)
	if err != nil {
		return fmt.Errorf("list bill payments: %w", err)
	}
	for _, p := range payments {
		if p.ID != e.EntityID {
			continue
		}
		return w.notifier.Notify(ctx, Notification{
			OwnerID: e.OwnerID,
			Title:   "Bill paid",
			Body:    fmt.Sprintf("%s paid %s for %s", p.BillName, p.Amount.String(), period),
		})
	}
	slog.InfoContext(ctx, "Payment gone before notification, skipping", "payment_id", e.EntityID)
	return nil
}

func (w *SyncWorker) notifyReminder(ctx context.Context, e amqp.Event) error {
	enabled, err := w.notificationsEnabled(ctx, e.OwnerID)
	if err != nil || !enabled {
		return err
	}

	bill, err := w.store.GetBill(ctx, e.OwnerID, e.EntityID)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get bill: %w", err)
	}

	title := "Bill due soon"
	if core.BillStatus(e.Status) == core.StatusOverdue {
		title = "Bill overdue"
	}
	body := fmt.Sprintf("%s (%s) is due on day %d", bill.Name, bill.Amount.String(), bill.DueDay)
	if period, err := core.ParsePeriod(e.Period); err == nil {
		body = fmt.Sprintf("%s (%s) is due on %s", bill.Name, bill.Amount.String(),
			bill.DueDate(period).Format("2 Jan 2006"))
	}
	return w.notifier.Notify(ctx, Notification{OwnerID: e.OwnerID, Title: title, Body: body})
}

// notificationsEnabled treats owners without stored settings as opted in,
// matching the defaults they would get on first access.
func (w *SyncWorker) notificationsEnabled(ctx context.Context, ownerID string) (bool, error) {
	st, err := w.store.GetSettings(ctx, ownerID)
	if errors.Is(err, core.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("get settings: %w", err)
	}
	if !st.NotificationsEnabled {
		slog.DebugContext(ctx, "Notifications disabled, skipping")
	}
	return st.NotificationsEnabled, nil
}
