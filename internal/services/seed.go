package services

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"expensetracker/internal/core"
)

func rupees(n int64) core.Money { return core.Money{Cents: n * 100} }

// DefaultBills are the templates offered to a brand new owner.
func DefaultBills() []BillInput {
	return []BillInput{
		{Name: "Rent", Amount: rupees(15000), DueDay: 5, Category: core.Bills},
		{Name: "EB Bill", Amount: rupees(800), DueDay: 10, Category: core.Bills},
		{Name: "WiFi", Amount: rupees(599), DueDay: 15, Category: core.Bills},
		{Name: "Groceries", Amount: rupees(5000), DueDay: 30, Category: core.Groceries},
		{Name: "Home Loan EMI", Amount: rupees(12000), DueDay: 1, Category: core.Bills},
		{Name: "School Fees", Amount: rupees(8000), DueDay: 5, Category: core.Bills},
		{Name: "Netflix", Amount: rupees(649), DueDay: 20, Category: core.Personal},
		{Name: "Amazon Prime", Amount: rupees(299), DueDay: 12, Category: core.Personal},
	}
}

// LoadBillSeed reads bill templates, one per line as
// "name|amount|due_day[|category]". Blank lines and lines starting with '#'
// are skipped.
func LoadBillSeed(path string) ([]BillInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bill seed: %w", err)
	}
	defer f.Close()

	var out []BillInput
	sc := bufio.NewScanner(f)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		in, err := parseSeedLine(line)
		if err != nil {
			return nil, fmt.Errorf("bill seed line %d: %w", n, err)
		}
		out = append(out, in)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read bill seed: %w", err)
	}
	return out, nil
}

func parseSeedLine(line string) (BillInput, error) {
	parts := strings.Split(line, "|")
	if len(parts) < 3 || len(parts) > 4 {
		return BillInput{}, fmt.Errorf("expected name|amount|due_day[|category], got %q", line)
	}
	amount, err := core.ParseMoney(strings.TrimSpace(parts[1]))
	if err != nil {
		return BillInput{}, err
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return BillInput{}, core.ErrInvalidDueDay
	}
	in := BillInput{
		Name:     strings.TrimSpace(parts[0]),
		Amount:   amount,
		DueDay:   day,
		Category: core.Bills,
	}
	if len(parts) == 4 {
		if in.Category, err = core.ParseCategory(parts[3]); err != nil {
			return BillInput{}, err
		}
	}
	return in, nil
}
