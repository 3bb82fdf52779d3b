// Package memory is an in-process ExpenseExporter used when no spreadsheet
// is configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"viajjo/internal/core"
	ports "viajjo/internal/sheets"
)

var _ ports.ExpenseExporter = (*Store)(nil)

type Store struct {
	mu   sync.Mutex
	rows [][]any
}

func New() *Store {
	return &Store{}
}

// AppendExpense stores the row and returns a synthetic row reference.
func (s *Store) AppendExpense(_ context.Context, email string, e core.Expense) (string, error) {
	if email == "" {
		return "", fmt.Errorf("append expense %s: email is required", e.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, ports.Row(email, e))
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of every appended row.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}
