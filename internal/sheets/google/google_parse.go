package google

import (
	"fmt"
	"strings"
	"time"

	"expensetracker/internal/core"
)

// Column layout of the expenses sheet, A through H.
var header = []any{"ID", "Date", "Item", "Amount", "Category", "Payment Mode", "Notes", "Owner"}

const lastColumn = "H"

func toRow(e core.Expense) []any {
	return []any{
		e.ID,
		e.SpentAt.UTC().Format(time.DateOnly),
		e.Item,
		e.Amount.String(),
		e.Category.Label(),
		strings.ToUpper(string(e.Mode)),
		e.Notes,
		e.OwnerID,
	}
}

// findRow returns the 1-based sheet row whose first column equals id, or 0.
func findRow(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", quoteSheet(sheet), row, lastColumn, row)
}

func columnRange(sheet, col string) string {
	return fmt.Sprintf("%s!%s:%s", quoteSheet(sheet), col, col)
}

// quoteSheet wraps names containing spaces or punctuation in single quotes
// as A1 notation requires.
func quoteSheet(name string) string {
	if strings.IndexFunc(name, func(r rune) bool {
		return !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	}) < 0 {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
