package core

import (
	"strings"
	"time"
)

const (
	Food      Category = "food"
	Transport Category = "transport"
	Groceries Category = "groceries"
	Bills     Category = "bills"
	Personal  Category = "personal"
	Others    Category = "others"
)

const (
	Cash PaymentMode = "cash"
	UPI  PaymentMode = "upi"
	Card PaymentMode = "card"
)

const (
	StatusPaid    BillStatus = "paid"
	StatusPending BillStatus = "pending"
	StatusOverdue BillStatus = "overdue"
)

const (
	maxTextLength  = 200
	maxNotesLength = 500

	// MaxAmountCents bounds a single amount or budget so that month and
	// year totals stay far from int64 overflow.
	MaxAmountCents = 1_000_000_000_000
)

type (
	Category    string
	PaymentMode string
	BillStatus  string

	Money struct {
		Cents int64
	}

	// Bill is a recurring monthly obligation owned by a single user.
	Bill struct {
		ID        string    `json:"id"`
		OwnerID   string    `json:"-"`
		Name      string    `json:"name"`
		Amount    Money     `json:"amount"`
		DueDay    int       `json:"due_day"`
		Category  Category  `json:"category,omitempty"`
		Active    bool      `json:"is_active"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	// BillPayment records that a bill was settled for one period. Name and
	// amount are snapshots taken at payment time; BillID is empty once the
	// bill has been deleted.
	BillPayment struct {
		ID        string      `json:"id"`
		OwnerID   string      `json:"-"`
		BillID    string      `json:"bill_id,omitempty"`
		BillName  string      `json:"bill_name"`
		Amount    Money       `json:"amount"`
		Mode      PaymentMode `json:"payment_mode"`
		PaidAt    time.Time   `json:"paid_date"`
		Period    Period      `json:"month_year"`
		CreatedAt time.Time   `json:"created_at"`
	}

	Expense struct {
		ID        string      `json:"id"`
		OwnerID   string      `json:"-"`
		Item      string      `json:"item"`
		Amount    Money       `json:"amount"`
		Category  Category    `json:"category"`
		Mode      PaymentMode `json:"payment_mode"`
		SpentAt   time.Time   `json:"date"`
		Notes     string      `json:"notes,omitempty"`
		CreatedAt time.Time   `json:"created_at"`
		UpdatedAt time.Time   `json:"updated_at"`
	}

	UserSettings struct {
		OwnerID              string       `json:"-"`
		MonthlyBudget        Money        `json:"monthly_budget"`
		Currency             string       `json:"currency"`
		StartOfWeek          time.Weekday `json:"start_of_week"`
		NotificationsEnabled bool         `json:"notifications_enabled"`
		CreatedAt            time.Time    `json:"created_at"`
		UpdatedAt            time.Time    `json:"updated_at"`
	}

	// PeriodMarker remembers the last period an owner was seen in and the
	// closed period whose month-end report has not been acknowledged yet.
	PeriodMarker struct {
		OwnerID       string
		LastSeen      Period
		PendingReport *Period
	}
)

// Categories lists every category in canonical order.
var Categories = []Category{Food, Transport, Groceries, Bills, Personal, Others}

// PaymentModes lists every payment mode in canonical order.
var PaymentModes = []PaymentMode{Cash, UPI, Card}

var categoryLabels = map[Category]string{
	Food:      "Food",
	Transport: "Transport",
	Groceries: "Groceries",
	Bills:     "Bills",
	Personal:  "Personal",
	Others:    "Others",
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// Label is the human readable name, or the raw value for unknown categories.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// Rank is the canonical position of c, len(Categories) for unknown values.
func (c Category) Rank() int {
	for i, v := range Categories {
		if v == c {
			return i
		}
	}
	return len(Categories)
}

func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}

func (m PaymentMode) Valid() bool {
	return m.Rank() < len(PaymentModes)
}

func (m PaymentMode) Rank() int {
	for i, v := range PaymentModes {
		if v == m {
			return i
		}
	}
	return len(PaymentModes)
}

func ParsePaymentMode(s string) (PaymentMode, error) {
	m := PaymentMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", ErrInvalidPaymentMode
	}
	return m, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	if m.Cents > MaxAmountCents {
		return ErrAmountTooLarge
	}
	return nil
}

func validateText(field, v string, required bool, max int) error {
	if required && strings.TrimSpace(v) == "" {
		return Invalid(field, "cannot be empty")
	}
	if len(v) > max {
		return Invalid(field, "too long")
	}
	return nil
}

func (b Bill) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if err := validateText("name", b.Name, true, maxTextLength); err != nil {
		return err
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if b.DueDay < 1 || b.DueDay > 31 {
		return ErrInvalidDueDay
	}
	if b.Category != "" && !b.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Item) == "" {
		return ErrEmptyItem
	}
	if err := validateText("item", e.Item, true, maxTextLength); err != nil {
		return err
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if !e.Mode.Valid() {
		return ErrInvalidPaymentMode
	}
	if e.SpentAt.IsZero() {
		return Invalid("date", "cannot be zero")
	}
	return validateText("notes", e.Notes, false, maxNotesLength)
}

func (s UserSettings) Validate() error {
	if s.MonthlyBudget.Cents < 0 {
		return Invalid("monthly_budget", "cannot be negative")
	}
	if s.MonthlyBudget.Cents > MaxAmountCents {
		return Invalid("monthly_budget", "too large")
	}
	if strings.TrimSpace(s.Currency) == "" {
		return Invalid("currency", "cannot be empty")
	}
	if len(s.Currency) > 8 {
		return Invalid("currency", "too long")
	}
	if s.StartOfWeek < time.Sunday || s.StartOfWeek > time.Saturday {
		return Invalid("start_of_week", "must be between 0 and 6")
	}
	return nil
}

// EffectiveDueDay clamps the bill's due day to the length of p.
func (b Bill) EffectiveDueDay(p Period) int {
	if n := p.DaysIn(); b.DueDay > n {
		return n
	}
	return b.DueDay
}

// DueDate is midnight UTC of the bill's effective due day in p.
func (b Bill) DueDate(p Period) time.Time {
	return time.Date(p.Year, p.Month, b.EffectiveDueDay(p), 0, 0, 0, 0, time.UTC)
}
