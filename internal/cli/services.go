package cli

import (
	"fmt"
	"time"

	"expensetracker/internal/backend"
	"expensetracker/internal/config"
	"expensetracker/internal/core"
	"expensetracker/internal/metrics"
	"expensetracker/internal/services"
)

// NewServices wires the service layer on top of an opened backend.
func NewServices(cfg *config.Config, res *backend.BackendResult, m *metrics.Metrics) (*services.Services, error) {
	seed, err := billSeed(cfg)
	if err != nil {
		return nil, err
	}
	return services.New(services.Deps{
		Store:   res.Store,
		Clock:   core.SystemClock{},
		Events:  res.Events,
		Reports: res.Reports,
		Metrics: m,
		Defaults: services.SettingsDefaults{
			MonthlyBudget:        cfg.DefaultBudget(),
			Currency:             cfg.DefaultCurrency,
			StartOfWeek:          time.Weekday(cfg.DefaultStartOfWeek),
			NotificationsEnabled: true,
		},
		ReminderWindow: cfg.ReminderWindowDays,
		SeedBills:      seed,
	}), nil
}

func billSeed(cfg *config.Config) ([]services.BillInput, error) {
	if !cfg.SeedDefaultBills {
		return nil, nil
	}
	if cfg.BillSeedFile == "" {
		return services.DefaultBills(), nil
	}
	seed, err := services.LoadBillSeed(cfg.BillSeedFile)
	if err != nil {
		return nil, fmt.Errorf("load bill seed: %w", err)
	}
	return seed, nil
}
