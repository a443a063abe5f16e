// Package services orchestrates the domain operations: it validates input,
// talks to storage, and fans out best-effort side effects (events, cache
// invalidation, metrics) after each successful write.
package services

import (
	"context"
	"log/slog"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	"expensetracker/internal/metrics"
	"expensetracker/internal/report"
	"expensetracker/internal/storage"

	"github.com/google/uuid"
)

// DefaultReminderWindow is how many days ahead an unpaid bill counts as due soon.
const DefaultReminderWindow = 3

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	Publish(ctx context.Context, e amqp.Event) error
}

// SettingsDefaults seed the settings row created on first access.
type SettingsDefaults struct {
	MonthlyBudget        core.Money
	Currency             string
	StartOfWeek          time.Weekday
	NotificationsEnabled bool
}

func DefaultSettings() SettingsDefaults {
	return SettingsDefaults{
		MonthlyBudget:        core.Money{Cents: 5_000_000},
		Currency:             "₹",
		StartOfWeek:          time.Monday,
		NotificationsEnabled: true,
	}
}

// Deps wires the services. Store is required; Clock defaults to the system
// clock and every other field is optional.
type Deps struct {
	Store          storage.Store
	Clock          core.Clock
	Events         EventPublisher
	Reports        cache.Store[report.MonthlyReport]
	Metrics        *metrics.Metrics
	Defaults       SettingsDefaults
	ReminderWindow int
	// SeedBills are created for an owner the first time their settings are
	// read. Empty disables seeding.
	SeedBills []BillInput
}

type Services struct {
	Expenses  *ExpenseService
	Bills     *BillService
	Payments  *BillPaymentService
	Settings  *SettingsService
	Reports   *ReportService
	Rollover  *RolloverService
	Reminders *ReminderService
}

func New(d Deps) *Services {
	if d.Clock == nil {
		d.Clock = core.SystemClock{}
	}
	if d.Defaults.Currency == "" {
		d.Defaults = DefaultSettings()
	}
	if d.ReminderWindow <= 0 {
		d.ReminderWindow = DefaultReminderWindow
	}

	b := &base{
		store:   d.Store,
		clock:   d.Clock,
		events:  d.Events,
		reports: d.Reports,
		metrics: d.Metrics,
	}
	bills := &BillService{base: b}
	settings := &SettingsService{base: b, defaults: d.Defaults, bills: bills, seed: d.SeedBills}
	reports := &ReportService{base: b, settings: settings}
	return &Services{
		Expenses:  &ExpenseService{base: b},
		Bills:     bills,
		Payments:  &BillPaymentService{base: b},
		Settings:  settings,
		Reports:   reports,
		Rollover:  &RolloverService{base: b, reports: reports},
		Reminders: &ReminderService{base: b, settings: settings, window: d.ReminderWindow},
	}
}

// base holds what every service shares.
type base struct {
	store   storage.Store
	clock   core.Clock
	events  EventPublisher
	reports cache.Store[report.MonthlyReport]
	metrics *metrics.Metrics
}

func requireOwner(ownerID string) error {
	if ownerID == "" {
		return core.ErrNotAuthenticated
	}
	return nil
}

func newID() string { return uuid.NewString() }

// publish is best effort: the write it describes has already committed.
func (b *base) publish(ctx context.Context, t amqp.EventType, ownerID, entityID string, p core.Period) {
	if b.events == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping event", "type", t)
		return
	}
	e := amqp.NewEvent(t, ownerID, entityID, p.String())
	err := b.events.Publish(ctx, e)
	b.metrics.EventPublished(string(t), err)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish event",
			"type", t,
			"entity_id", entityID,
			"error", err)
	}
}

func reportKey(ownerID string, p core.Period) string {
	return "report:" + ownerID + ":" + p.String()
}

// invalidate drops cached monthly reports for the given periods.
func (b *base) invalidate(ctx context.Context, ownerID string, periods ...core.Period) {
	if b.reports == nil || len(periods) == 0 {
		return
	}
	keys := make([]string, 0, len(periods))
	for _, p := range periods {
		keys = append(keys, reportKey(ownerID, p))
	}
	b.reports.Delete(ctx, keys...)
}
