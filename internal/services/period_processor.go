package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// PeriodRunSummary counts what one pass of the period processor did.
type PeriodRunSummary struct {
	Owners    int
	Rolled    int
	Reminders int
	Failed    int
}

// PeriodProcessor walks every known owner, reconciling month rollover and
// sending bill reminders. One owner's failure never stops the pass.
type PeriodProcessor struct {
	rollover  *RolloverService
	reminders *ReminderService
	owners    func(ctx context.Context) ([]string, error)
}

func NewPeriodProcessor(s *Services) *PeriodProcessor {
	return &PeriodProcessor{
		rollover:  s.Rollover,
		reminders: s.Reminders,
		owners:    s.Rollover.store.ListOwners,
	}
}

// Process runs one pass as of now.
func (p *PeriodProcessor) Process(ctx context.Context, now time.Time) (PeriodRunSummary, error) {
	owners, err := p.owners(ctx)
	if err != nil {
		return PeriodRunSummary{}, fmt.Errorf("list owners: %w", err)
	}

	slog.InfoContext(ctx, "Processing periods",
		"owners", len(owners),
		"processing_date", now.Format(time.DateOnly))

	sum := PeriodRunSummary{Owners: len(owners)}
	for _, owner := range owners {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}

		res, err := p.rollover.Reconcile(ctx, owner, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to reconcile period",
				"owner_id", owner,
				"error", err)
			sum.Failed++
			continue
		}
		if res.Rolled {
			sum.Rolled++
		}

		n, err := p.reminders.Send(ctx, owner, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to send reminders",
				"owner_id", owner,
				"error", err)
			sum.Failed++
			continue
		}
		sum.Reminders += n
	}

	slog.InfoContext(ctx, "Period processing complete",
		"owners", sum.Owners,
		"rolled", sum.Rolled,
		"reminders", sum.Reminders,
		"failed", sum.Failed)

	return sum, nil
}
