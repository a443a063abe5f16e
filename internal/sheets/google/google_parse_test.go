package google

import (
	"testing"
	"time"

	"expensetracker/internal/core"
)

func TestToRow(t *testing.T) {
	e := core.Expense{
		ID:       "exp-1",
		OwnerID:  "owner-1",
		Item:     "Bill Payment: Rent",
		Amount:   core.Money{Cents: 1500050},
		Category: core.Bills,
		Mode:     core.UPI,
		SpentAt:  time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Notes:    "Recurring bill payment for 2024-03",
	}

	row := toRow(e)
	want := []any{"exp-1", "2024-03-05", "Bill Payment: Rent", "15000.50", "Bills", "UPI", "Recurring bill payment for 2024-03", "owner-1"}
	if len(row) != len(header) {
		t.Fatalf("row has %d columns, header has %d", len(row), len(header))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %d = %v, want %v", i, row[i], want[i])
		}
	}
}

func TestFindRow(t *testing.T) {
	values := [][]any{
		{"ID"},
		{"exp-1"},
		{},
		{" exp-2 "},
	}

	tests := []struct {
		id   string
		want int
	}{
		{"exp-1", 2},
		{"exp-2", 4},
		{"exp-3", 0},
		{"ID", 1},
	}
	for _, tt := range tests {
		if got := findRow(values, tt.id); got != tt.want {
			t.Errorf("findRow(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}

func TestRanges(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{rowRange("Expenses", 3), "Expenses!A3:H3"},
		{rowRange("2024 Expenses", 1), "'2024 Expenses'!A1:H1"},
		{columnRange("Expenses", "A"), "Expenses!A:A"},
		{quoteSheet("Bob's"), "'Bob''s'"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
