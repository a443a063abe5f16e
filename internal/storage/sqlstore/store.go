// Package sqlstore implements storage.Store on database/sql. The SQL is
// portable between SQLite and Postgres; a Dialect covers the differences.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// Dialect describes what differs between the supported databases.
type Dialect struct {
	Name string
	// Numbered placeholders ($1, $2, ...) instead of '?'.
	Numbered bool
	// IsUniqueViolation reports whether err came from a unique index.
	IsUniqueViolation func(err error) bool
}

type Store struct {
	db      *sql.DB
	dialect Dialect
}

var _ storage.Store = (*Store)(nil)

func New(db *sql.DB, d Dialect) *Store {
	return &Store{db: db, dialect: d}
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// rebind rewrites '?' placeholders for dialects with numbered parameters.
func (s *Store) rebind(query string) string {
	if !s.dialect.Numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) exec(ctx context.Context, x execer, query string, args ...any) (sql.Result, error) {
	return x.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

// mustAffect turns "zero rows touched" into core.ErrNotFound.
func mustAffect(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func unix(t time.Time) int64 { return t.Unix() }

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func fromUnix(v int64) time.Time { return time.Unix(v, 0).UTC() }

type scanner interface {
	Scan(dest ...any) error
}

// Bills

const billColumns = `id, owner_id, name, amount_cents, due_day, category, is_active, created_at, updated_at`

func scanBill(sc scanner) (core.Bill, error) {
	var (
		b                core.Bill
		category         string
		created, updated int64
	)
	if err := sc.Scan(&b.ID, &b.OwnerID, &b.Name, &b.Amount.Cents, &b.DueDay, &category, &b.Active, &created, &updated); err != nil {
		return core.Bill{}, err
	}
	b.Category = core.Category(category)
	b.CreatedAt = fromUnix(created)
	b.UpdatedAt = fromUnix(updated)
	return b, nil
}

func (s *Store) CreateBill(ctx context.Context, b core.Bill) error {
	_, err := s.exec(ctx, s.db,
		`INSERT INTO bills (`+billColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.OwnerID, b.Name, b.Amount.Cents, b.DueDay, string(b.Category), b.Active, unix(b.CreatedAt), unix(b.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert bill: %w", err)
	}
	return nil
}

func (s *Store) GetBill(ctx context.Context, ownerID, id string) (core.Bill, error) {
	b, err := scanBill(s.queryRow(ctx,
		`SELECT `+billColumns+` FROM bills WHERE owner_id = ? AND id = ?`, ownerID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, core.ErrNotFound
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill: %w", err)
	}
	return b, nil
}

func (s *Store) ListBills(ctx context.Context, ownerID string, includeInactive bool) ([]core.Bill, error) {
	q := `SELECT ` + billColumns + ` FROM bills WHERE owner_id = ?`
	args := []any{ownerID}
	if !includeInactive {
		q += ` AND is_active = ?`
		args = append(args, true)
	}
	q += ` ORDER BY due_day, name, id`

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var out []core.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) UpdateBill(ctx context.Context, b core.Bill) error {
	err := mustAffect(s.exec(ctx, s.db,
		`UPDATE bills SET name = ?, amount_cents = ?, due_day = ?, category = ?, is_active = ?, updated_at = ?
		 WHERE owner_id = ? AND id = ?`,
		b.Name, b.Amount.Cents, b.DueDay, string(b.Category), b.Active, unix(b.UpdatedAt), b.OwnerID, b.ID))
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("update bill: %w", err)
	}
	return err
}

func (s *Store) DeleteBill(ctx context.Context, ownerID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.exec(ctx, tx,
		`UPDATE bill_payments SET bill_id = NULL WHERE owner_id = ? AND bill_id = ?`, ownerID, id); err != nil {
		return fmt.Errorf("detach bill payments: %w", err)
	}
	if err := mustAffect(s.exec(ctx, tx,
		`DELETE FROM bills WHERE owner_id = ? AND id = ?`, ownerID, id)); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete bill: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Bill payments

const paymentColumns = `id, owner_id, bill_id, bill_name, amount_cents, payment_mode, paid_at, period, created_at`

func scanPayment(sc scanner) (core.BillPayment, error) {
	var (
		p               core.BillPayment
		billID          sql.NullString
		mode, period    string
		paidAt, created int64
	)
	if err := sc.Scan(&p.ID, &p.OwnerID, &billID, &p.BillName, &p.Amount.Cents, &mode, &paidAt, &period, &created); err != nil {
		return core.BillPayment{}, err
	}
	pp, err := core.ParsePeriod(period)
	if err != nil {
		return core.BillPayment{}, fmt.Errorf("stored period %q: %w", period, err)
	}
	p.BillID = billID.String
	p.Mode = core.PaymentMode(mode)
	p.PaidAt = fromUnix(paidAt)
	p.Period = pp
	p.CreatedAt = fromUnix(created)
	return p, nil
}

func (s *Store) GetBillPayment(ctx context.Context, ownerID, billID string, p core.Period) (core.BillPayment, error) {
	bp, err := scanPayment(s.queryRow(ctx,
		`SELECT `+paymentColumns+` FROM bill_payments WHERE owner_id = ? AND bill_id = ? AND period = ?`,
		ownerID, billID, p.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return core.BillPayment{}, core.ErrNotFound
	}
	if err != nil {
		return core.BillPayment{}, fmt.Errorf("get bill payment: %w", err)
	}
	return bp, nil
}

func (s *Store) ListBillPayments(ctx context.Context, ownerID string, p core.Period) ([]core.BillPayment, error) {
	rows, err := s.query(ctx,
		`SELECT `+paymentColumns+` FROM bill_payments WHERE owner_id = ? AND period = ? ORDER BY paid_at, id`,
		ownerID, p.String())
	if err != nil {
		return nil, fmt.Errorf("list bill payments: %w", err)
	}
	defer rows.Close()

	var out []core.BillPayment
	for rows.Next() {
		bp, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill payment: %w", err)
		}
		out = append(out, bp)
	}
	return out, rows.Err()
}

func (s *Store) RecordBillPayment(ctx context.Context, p core.BillPayment, e core.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = s.exec(ctx, tx,
		`INSERT INTO bill_payments (`+paymentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, nullString(p.BillID), p.BillName, p.Amount.Cents, string(p.Mode), unix(p.PaidAt), p.Period.String(), unix(p.CreatedAt))
	if err != nil {
		if s.dialect.IsUniqueViolation != nil && s.dialect.IsUniqueViolation(err) {
			return core.ErrDuplicatePayment
		}
		return fmt.Errorf("insert bill payment: %w", err)
	}
	if err := s.insertExpense(ctx, tx, e); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.DebugContext(ctx, "Bill payment recorded",
		"dialect", s.dialect.Name,
		"payment_id", p.ID,
		"expense_id", e.ID,
		"period", p.Period.String())
	return nil
}

// Expenses

const expenseColumns = `id, owner_id, item, amount_cents, category, payment_mode, spent_at, notes, created_at, updated_at`

func scanExpense(sc scanner) (core.Expense, error) {
	var (
		e                       core.Expense
		category, mode          string
		spent, created, updated int64
	)
	if err := sc.Scan(&e.ID, &e.OwnerID, &e.Item, &e.Amount.Cents, &category, &mode, &spent, &e.Notes, &created, &updated); err != nil {
		return core.Expense{}, err
	}
	e.Category = core.Category(category)
	e.Mode = core.PaymentMode(mode)
	e.SpentAt = fromUnix(spent)
	e.CreatedAt = fromUnix(created)
	e.UpdatedAt = fromUnix(updated)
	return e, nil
}

func (s *Store) insertExpense(ctx context.Context, x execer, e core.Expense) error {
	_, err := s.exec(ctx, x,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.Item, e.Amount.Cents, string(e.Category), string(e.Mode), unix(e.SpentAt), e.Notes, unix(e.CreatedAt), unix(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) error {
	return s.insertExpense(ctx, s.db, e)
}

func (s *Store) GetExpense(ctx context.Context, ownerID, id string) (core.Expense, error) {
	e, err := scanExpense(s.queryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE owner_id = ? AND id = ?`, ownerID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

func (s *Store) UpdateExpense(ctx context.Context, e core.Expense) error {
	err := mustAffect(s.exec(ctx, s.db,
		`UPDATE expenses SET item = ?, amount_cents = ?, category = ?, payment_mode = ?, spent_at = ?, notes = ?, updated_at = ?
		 WHERE owner_id = ? AND id = ?`,
		e.Item, e.Amount.Cents, string(e.Category), string(e.Mode), unix(e.SpentAt), e.Notes, unix(e.UpdatedAt), e.OwnerID, e.ID))
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("update expense: %w", err)
	}
	return err
}

func (s *Store) DeleteExpense(ctx context.Context, ownerID, id string) error {
	err := mustAffect(s.exec(ctx, s.db, `DELETE FROM expenses WHERE owner_id = ? AND id = ?`, ownerID, id))
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("delete expense: %w", err)
	}
	return err
}

func (s *Store) ListExpenses(ctx context.Context, ownerID string, f storage.ExpenseFilter) ([]core.Expense, error) {
	q := `SELECT ` + expenseColumns + ` FROM expenses WHERE owner_id = ?`
	args := []any{ownerID}
	if !f.From.IsZero() {
		q += ` AND spent_at >= ?`
		args = append(args, unix(f.From))
	}
	if !f.To.IsZero() {
		q += ` AND spent_at <= ?`
		args = append(args, unix(f.To))
	}
	if f.Category != "" {
		q += ` AND category = ?`
		args = append(args, string(f.Category))
	}
	q += ` ORDER BY spent_at DESC, created_at DESC, id`
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Settings

const settingsColumns = `owner_id, monthly_budget_cents, currency, start_of_week, notifications_enabled, created_at, updated_at`

func scanSettings(sc scanner) (core.UserSettings, error) {
	var (
		st               core.UserSettings
		weekday          int
		created, updated int64
	)
	if err := sc.Scan(&st.OwnerID, &st.MonthlyBudget.Cents, &st.Currency, &weekday, &st.NotificationsEnabled, &created, &updated); err != nil {
		return core.UserSettings{}, err
	}
	st.StartOfWeek = time.Weekday(weekday)
	st.CreatedAt = fromUnix(created)
	st.UpdatedAt = fromUnix(updated)
	return st, nil
}

func (s *Store) GetSettings(ctx context.Context, ownerID string) (core.UserSettings, error) {
	st, err := scanSettings(s.queryRow(ctx,
		`SELECT `+settingsColumns+` FROM user_settings WHERE owner_id = ?`, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserSettings{}, core.ErrNotFound
	}
	if err != nil {
		return core.UserSettings{}, fmt.Errorf("get settings: %w", err)
	}
	return st, nil
}

func (s *Store) EnsureSettings(ctx context.Context, d core.UserSettings) (core.UserSettings, bool, error) {
	res, err := s.exec(ctx, s.db,
		`INSERT INTO user_settings (`+settingsColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (owner_id) DO NOTHING`,
		d.OwnerID, d.MonthlyBudget.Cents, d.Currency, int(d.StartOfWeek), d.NotificationsEnabled, unix(d.CreatedAt), unix(d.UpdatedAt))
	if err != nil {
		return core.UserSettings{}, false, fmt.Errorf("insert default settings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.UserSettings{}, false, fmt.Errorf("insert default settings: %w", err)
	}
	st, err := s.GetSettings(ctx, d.OwnerID)
	if err != nil {
		return core.UserSettings{}, false, err
	}
	return st, n == 1, nil
}

func (s *Store) UpdateSettings(ctx context.Context, st core.UserSettings) error {
	err := mustAffect(s.exec(ctx, s.db,
		`UPDATE user_settings SET monthly_budget_cents = ?, currency = ?, start_of_week = ?, notifications_enabled = ?, updated_at = ?
		 WHERE owner_id = ?`,
		st.MonthlyBudget.Cents, st.Currency, int(st.StartOfWeek), st.NotificationsEnabled, unix(st.UpdatedAt), st.OwnerID))
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("update settings: %w", err)
	}
	return err
}

// Period markers

func (s *Store) GetPeriodMarker(ctx context.Context, ownerID string) (core.PeriodMarker, error) {
	var (
		lastSeen string
		pending  sql.NullString
	)
	err := s.queryRow(ctx,
		`SELECT last_seen, pending_report FROM period_markers WHERE owner_id = ?`, ownerID).
		Scan(&lastSeen, &pending)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PeriodMarker{}, core.ErrNotFound
	}
	if err != nil {
		return core.PeriodMarker{}, fmt.Errorf("get period marker: %w", err)
	}

	m := core.PeriodMarker{OwnerID: ownerID}
	if m.LastSeen, err = core.ParsePeriod(lastSeen); err != nil {
		return core.PeriodMarker{}, fmt.Errorf("stored period %q: %w", lastSeen, err)
	}
	if pending.Valid {
		p, err := core.ParsePeriod(pending.String)
		if err != nil {
			return core.PeriodMarker{}, fmt.Errorf("stored period %q: %w", pending.String, err)
		}
		m.PendingReport = &p
	}
	return m, nil
}

func (s *Store) SavePeriodMarker(ctx context.Context, m core.PeriodMarker) error {
	var pending sql.NullString
	if m.PendingReport != nil {
		pending = sql.NullString{String: m.PendingReport.String(), Valid: true}
	}
	_, err := s.exec(ctx, s.db,
		`INSERT INTO period_markers (owner_id, last_seen, pending_report) VALUES (?, ?, ?)
		 ON CONFLICT (owner_id) DO UPDATE SET last_seen = excluded.last_seen, pending_report = excluded.pending_report`,
		m.OwnerID, m.LastSeen.String(), pending)
	if err != nil {
		return fmt.Errorf("save period marker: %w", err)
	}
	return nil
}

func (s *Store) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := s.query(ctx,
		`SELECT owner_id FROM user_settings
		 UNION SELECT owner_id FROM bills
		 UNION SELECT owner_id FROM expenses
		 ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
