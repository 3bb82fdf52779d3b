package memory

import (
	"context"
	"testing"

	"viajjo/internal/core"
)

func TestStoreAppendExpense(t *testing.T) {
	s := New()
	ctx := context.Background()
	e := core.Expense{ID: "e1", Description: "Táxi", Amount: "32.9", Category: core.Transport, Date: core.NewDate(2025, 3, 4)}

	ref, err := s.AppendExpense(ctx, "ana@example.com", e)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "mem:1" {
		t.Errorf("ref = %q", ref)
	}
	if ref, _ = s.AppendExpense(ctx, "bia@example.com", e); ref != "mem:2" {
		t.Errorf("ref = %q", ref)
	}

	rows := s.Rows()
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "ana@example.com" || rows[0][2] != "Táxi" || rows[0][4] != 32.9 {
		t.Errorf("unexpected row %v", rows[0])
	}

	rows[0][0] = "changed"
	if s.Rows()[0][0] != "ana@example.com" {
		t.Error("Rows must return a copy")
	}
}

func TestStoreRequiresEmail(t *testing.T) {
	if _, err := New().AppendExpense(context.Background(), "", core.Expense{ID: "e1"}); err == nil {
		t.Fatal("expected error without email")
	}
}
