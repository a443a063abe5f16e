// Package memory keeps mirrored expense rows in process. The worker falls
// back to it when no spreadsheet is configured.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"expensetracker/internal/core"
	ports "expensetracker/internal/sheets"
)

var _ ports.Mirror = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	order []string
	items map[string]core.Expense
}

func New() *Store {
	return &Store{items: make(map[string]core.Expense)}
}

// Upsert stores the expense and returns a synthetic row reference.
func (s *Store) Upsert(_ context.Context, e core.Expense) (string, error) {
	if e.ID == "" {
		return "", errors.New("expense has no ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[e.ID]; !ok {
		s.order = append(s.order, e.ID)
	}
	s.items[e.ID] = e
	return fmt.Sprintf("mem:%s", e.ID), nil
}

func (s *Store) Delete(_ context.Context, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[expenseID]; !ok {
		return nil
	}
	delete(s.items, expenseID)
	for i, id := range s.order {
		if id == expenseID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Rows returns mirrored expenses in first-written order.
func (s *Store) Rows() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}
