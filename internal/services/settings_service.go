package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"expensetracker/internal/core"
)

// SettingsInput is a partial update; nil fields keep their stored value.
type SettingsInput struct {
	MonthlyBudget        *core.Money
	Currency             *string
	StartOfWeek          *time.Weekday
	NotificationsEnabled *bool
}

type SettingsService struct {
	*base
	defaults SettingsDefaults
	bills    *BillService
	seed     []BillInput
}

// Get returns the owner's settings, creating the defaults on first access.
// Concurrent first reads end up with the same stored row, and only the call
// that inserted it seeds the default bills.
func (s *SettingsService) Get(ctx context.Context, ownerID string) (core.UserSettings, error) {
	if err := requireOwner(ownerID); err != nil {
		return core.UserSettings{}, err
	}
	st, err := s.store.GetSettings(ctx, ownerID)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.UserSettings{}, fmt.Errorf("get settings: %w", err)
	}

	now := s.clock.Now()
	st, created, err := s.store.EnsureSettings(ctx, core.UserSettings{
		OwnerID:              ownerID,
		MonthlyBudget:        s.defaults.MonthlyBudget,
		Currency:             s.defaults.Currency,
		StartOfWeek:          s.defaults.StartOfWeek,
		NotificationsEnabled: s.defaults.NotificationsEnabled,
		CreatedAt:            now,
		UpdatedAt:            now,
	})
	if err != nil {
		return core.UserSettings{}, fmt.Errorf("create default settings: %w", err)
	}
	if !created {
		return st, nil
	}
	slog.InfoContext(ctx, "Created default settings", "owner_id", ownerID)

	if s.bills != nil {
		if _, err := s.bills.SeedDefaults(ctx, ownerID, s.seed); err != nil {
			slog.ErrorContext(ctx, "Failed to seed default bills", "owner_id", ownerID, "error", err)
		}
	}
	return st, nil
}

func (s *SettingsService) Update(ctx context.Context, ownerID string, in SettingsInput) (core.UserSettings, error) {
	st, err := s.Get(ctx, ownerID)
	if err != nil {
		return core.UserSettings{}, err
	}
	if in.MonthlyBudget != nil {
		st.MonthlyBudget = *in.MonthlyBudget
	}
	if in.Currency != nil {
		st.Currency = strings.TrimSpace(*in.Currency)
	}
	if in.StartOfWeek != nil {
		st.StartOfWeek = *in.StartOfWeek
	}
	if in.NotificationsEnabled != nil {
		st.NotificationsEnabled = *in.NotificationsEnabled
	}
	if err := st.Validate(); err != nil {
		return core.UserSettings{}, err
	}
	st.UpdatedAt = s.clock.Now()
	if err := s.store.UpdateSettings(ctx, st); err != nil {
		return core.UserSettings{}, fmt.Errorf("update settings: %w", err)
	}
	// Cached reports hold no budget; Monthly applies the stored one on read.
	return st, nil
}

// NotificationsEnabled reads the stored preference without creating
// settings; owners without settings get the default.
func (s *SettingsService) NotificationsEnabled(ctx context.Context, ownerID string) (bool, error) {
	if err := requireOwner(ownerID); err != nil {
		return false, err
	}
	st, err := s.store.GetSettings(ctx, ownerID)
	if errors.Is(err, core.ErrNotFound) {
		return s.defaults.NotificationsEnabled, nil
	}
	if err != nil {
		return false, fmt.Errorf("get settings: %w", err)
	}
	return st.NotificationsEnabled, nil
}
