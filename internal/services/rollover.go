package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/report"
)

// RolloverResult describes what Reconcile found.
type RolloverResult struct {
	Current core.Period
	// Closed is the period that just ended, set only when Rolled is true.
	Closed core.Period
	Rolled bool
}

// RolloverService notices when an owner crosses into a new month and keeps
// the closed month's report pending until it is acknowledged.
type RolloverService struct {
	*base
	reports *ReportService
}

// Reconcile compares the owner's last seen period with the period of now.
// Calling it repeatedly within a period is a no-op.
func (s *RolloverService) Reconcile(ctx context.Context, ownerID string, now time.Time) (RolloverResult, error) {
	if err := requireOwner(ownerID); err != nil {
		return RolloverResult{}, err
	}
	current := core.PeriodOf(now)
	res := RolloverResult{Current: current}

	m, err := s.store.GetPeriodMarker(ctx, ownerID)
	switch {
	case errors.Is(err, core.ErrNotFound):
		m = core.PeriodMarker{OwnerID: ownerID, LastSeen: current}
		if err := s.store.SavePeriodMarker(ctx, m); err != nil {
			return res, fmt.Errorf("save period marker: %w", err)
		}
		return res, nil
	case err != nil:
		return res, fmt.Errorf("get period marker: %w", err)
	}

	if !m.LastSeen.Before(current) {
		return res, nil
	}

	closed := m.LastSeen
	m.LastSeen = current
	m.PendingReport = &closed
	if err := s.store.SavePeriodMarker(ctx, m); err != nil {
		return res, fmt.Errorf("save period marker: %w", err)
	}
	slog.InfoContext(ctx, "Month rolled over",
		"owner_id", ownerID,
		"closed", closed.String(),
		"current", current.String())

	res.Closed = closed
	res.Rolled = true
	return res, nil
}

// PendingMonthEndReport returns the report of the last closed period that
// has not been acknowledged, or ok=false when there is none.
func (s *RolloverService) PendingMonthEndReport(ctx context.Context, ownerID string) (report.MonthlyReport, bool, error) {
	if err := requireOwner(ownerID); err != nil {
		return report.MonthlyReport{}, false, err
	}
	if _, err := s.Reconcile(ctx, ownerID, s.clock.Now()); err != nil {
		return report.MonthlyReport{}, false, err
	}
	m, err := s.store.GetPeriodMarker(ctx, ownerID)
	if err != nil {
		return report.MonthlyReport{}, false, fmt.Errorf("get period marker: %w", err)
	}
	if m.PendingReport == nil {
		return report.MonthlyReport{}, false, nil
	}
	r, err := s.reports.Monthly(ctx, ownerID, *m.PendingReport)
	if err != nil {
		return report.MonthlyReport{}, false, err
	}
	return r, true, nil
}

func (s *RolloverService) AcknowledgeMonthEndReport(ctx context.Context, ownerID string) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	m, err := s.store.GetPeriodMarker(ctx, ownerID)
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get period marker: %w", err)
	}
	if m.PendingReport == nil {
		return nil
	}
	m.PendingReport = nil
	if err := s.store.SavePeriodMarker(ctx, m); err != nil {
		return fmt.Errorf("save period marker: %w", err)
	}
	return nil
}
