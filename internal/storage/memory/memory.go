// Package memory is an in-process storage.Store for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

type paymentKey struct {
	owner, bill, period string
}

type Store struct {
	mu       sync.Mutex
	bills    map[string]core.Bill
	payments []core.BillPayment
	expenses map[string]core.Expense
	settings map[string]core.UserSettings
	markers  map[string]core.PeriodMarker
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		bills:    make(map[string]core.Bill),
		expenses: make(map[string]core.Expense),
		settings: make(map[string]core.UserSettings),
		markers:  make(map[string]core.PeriodMarker),
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) CreateBill(_ context.Context, b core.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bills[b.ID]; ok {
		return fmt.Errorf("insert bill: id %s already exists", b.ID)
	}
	s.bills[b.ID] = b
	return nil
}

func (s *Store) GetBill(_ context.Context, ownerID, id string) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bills[id]
	if !ok || b.OwnerID != ownerID {
		return core.Bill{}, core.ErrNotFound
	}
	return b, nil
}

func (s *Store) ListBills(_ context.Context, ownerID string, includeInactive bool) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Bill
	for _, b := range s.bills {
		if b.OwnerID == ownerID && (includeInactive || b.Active) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDay != out[j].DueDay {
			return out[i].DueDay < out[j].DueDay
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateBill(_ context.Context, b core.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.bills[b.ID]
	if !ok || cur.OwnerID != b.OwnerID {
		return core.ErrNotFound
	}
	b.CreatedAt = cur.CreatedAt
	s.bills[b.ID] = b
	return nil
}

func (s *Store) DeleteBill(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bills[id]
	if !ok || b.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(s.bills, id)
	for i := range s.payments {
		if s.payments[i].OwnerID == ownerID && s.payments[i].BillID == id {
			s.payments[i].BillID = ""
		}
	}
	return nil
}

func (s *Store) GetBillPayment(_ context.Context, ownerID, billID string, p core.Period) (core.BillPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, bp := range s.payments {
		if bp.OwnerID == ownerID && bp.BillID == billID && bp.Period == p {
			return bp, nil
		}
	}
	return core.BillPayment{}, core.ErrNotFound
}

func (s *Store) ListBillPayments(_ context.Context, ownerID string, p core.Period) ([]core.BillPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.BillPayment
	for _, bp := range s.payments {
		if bp.OwnerID == ownerID && bp.Period == p {
			out = append(out, bp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaidAt.Before(out[j].PaidAt) })
	return out, nil
}

// RecordBillPayment checks every constraint before mutating anything, which
// under the single lock gives the same all-or-nothing result as a transaction.
func (s *Store) RecordBillPayment(_ context.Context, p core.BillPayment, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := paymentKey{p.OwnerID, p.BillID, p.Period.String()}
	for _, bp := range s.payments {
		if bp.ID == p.ID {
			return fmt.Errorf("insert bill payment: id %s already exists", p.ID)
		}
		if p.BillID != "" && (paymentKey{bp.OwnerID, bp.BillID, bp.Period.String()}) == key {
			return core.ErrDuplicatePayment
		}
	}
	if _, ok := s.expenses[e.ID]; ok {
		return fmt.Errorf("insert expense: id %s already exists", e.ID)
	}

	s.payments = append(s.payments, p)
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[e.ID]; ok {
		return fmt.Errorf("insert expense: id %s already exists", e.ID)
	}
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) GetExpense(_ context.Context, ownerID, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.OwnerID != ownerID {
		return core.Expense{}, core.ErrNotFound
	}
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.expenses[e.ID]
	if !ok || cur.OwnerID != e.OwnerID {
		return core.ErrNotFound
	}
	e.CreatedAt = cur.CreatedAt
	s.expenses[e.ID] = e
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.OwnerID != ownerID {
		return core.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ListExpenses(_ context.Context, ownerID string, f storage.ExpenseFilter) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.OwnerID == ownerID && f.Match(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.SpentAt.Equal(b.SpentAt) {
			return a.SpentAt.After(b.SpentAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) GetSettings(_ context.Context, ownerID string) (core.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[ownerID]
	if !ok {
		return core.UserSettings{}, core.ErrNotFound
	}
	return st, nil
}

func (s *Store) EnsureSettings(_ context.Context, d core.UserSettings) (core.UserSettings, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.settings[d.OwnerID]; ok {
		return st, false, nil
	}
	s.settings[d.OwnerID] = d
	return d, true, nil
}

func (s *Store) UpdateSettings(_ context.Context, st core.UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.settings[st.OwnerID]
	if !ok {
		return core.ErrNotFound
	}
	st.CreatedAt = cur.CreatedAt
	s.settings[st.OwnerID] = st
	return nil
}

func (s *Store) GetPeriodMarker(_ context.Context, ownerID string) (core.PeriodMarker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.markers[ownerID]
	if !ok {
		return core.PeriodMarker{}, core.ErrNotFound
	}
	if m.PendingReport != nil {
		p := *m.PendingReport
		m.PendingReport = &p
	}
	return m, nil
}

func (s *Store) SavePeriodMarker(_ context.Context, m core.PeriodMarker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.PendingReport != nil {
		p := *m.PendingReport
		m.PendingReport = &p
	}
	s.markers[m.OwnerID] = m
	return nil
}

func (s *Store) ListOwners(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	for id := range s.settings {
		seen[id] = struct{}{}
	}
	for _, b := range s.bills {
		seen[b.OwnerID] = struct{}{}
	}
	for _, e := range s.expenses {
		seen[e.OwnerID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
