// Package storage implements the persistence boundary over SQLite.
//
// Every invoice query is scoped by owner_id in the WHERE clause; no caller
// can reach another user's records through this layer. The only cross-owner
// query is ListDueRecurring, which the sweep job uses.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/CodeWithAnkan/kuber-ai-invoice-app/internal/core"

	_ "modernc.org/sqlite"
)

// ListQuery controls filtering and ordering of ListInvoices.
type ListQuery struct {
	Search string // case-insensitive vendor substring
	SortBy string // createdAt | dueDate | amount | vendor
	Order  string // asc | desc
}

var sortColumns = map[string]string{
	"createdAt": "created_at",
	"dueDate":   "due_date",
	"amount":    "amount_cents",
	"vendor":    "vendor",
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const invoiceColumns = "id, owner_id, vendor, amount_cents, due_date, category, is_recurring, recurrence_interval, created_at"

// CreateInvoice persists a new invoice. The caller assigns the ID.
func (r *SQLiteRepository) CreateInvoice(ctx context.Context, inv core.Invoice) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.OwnerID, inv.Vendor, inv.Amount.Cents,
		nullableDate(inv.DueDate), inv.Category,
		boolToInt(inv.IsRecurring), nullableInterval(inv.Recurrence),
		inv.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}

	slog.InfoContext(ctx, "Invoice saved",
		"invoice_id", inv.ID,
		"owner_id", inv.OwnerID,
		"vendor", inv.Vendor,
		"amount_cents", inv.Amount.Cents)
	return nil
}

// GetInvoice returns one invoice, or core.ErrNotFound when the id does not
// exist or belongs to a different owner.
func (r *SQLiteRepository) GetInvoice(ctx context.Context, ownerID, id string) (core.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE owner_id = ? AND id = ?`, ownerID, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Invoice{}, core.ErrNotFound
	}
	if err != nil {
		return core.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// ListInvoices returns the owner's invoices, filtered and ordered.
func (r *SQLiteRepository) ListInvoices(ctx context.Context, ownerID string, q ListQuery) ([]core.Invoice, error) {
	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if q.Order == "asc" {
		direction = "ASC"
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE owner_id = ?`
	args := []any{ownerID}
	if q.Search != "" {
		query += ` AND vendor LIKE '%' || ? || '%' COLLATE NOCASE`
		args = append(args, q.Search)
	}
	query += ` ORDER BY ` + column + ` ` + direction

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	return collectInvoices(rows)
}

// UpdateInvoice replaces the mutable fields of an invoice. Owner and
// creation time never change. Returns core.ErrNotFound when no row matched.
func (r *SQLiteRepository) UpdateInvoice(ctx context.Context, ownerID string, inv core.Invoice) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invoices
		SET vendor = ?, amount_cents = ?, due_date = ?, category = ?,
		    is_recurring = ?, recurrence_interval = ?
		WHERE owner_id = ? AND id = ?`,
		inv.Vendor, inv.Amount.Cents, nullableDate(inv.DueDate), inv.Category,
		boolToInt(inv.IsRecurring), nullableInterval(inv.Recurrence),
		ownerID, inv.ID,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update invoice rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteInvoice removes an invoice. Returns core.ErrNotFound when no row
// matched the owner+id pair.
func (r *SQLiteRepository) DeleteInvoice(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM invoices WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete invoice rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Invoice deleted", "invoice_id", id, "owner_id", ownerID)
	return nil
}

// ListDueRecurring returns every recurring invoice, across owners, whose due
// date is on or before asOf. Sweep use only.
func (r *SQLiteRepository) ListDueRecurring(ctx context.Context, asOf core.Date) ([]core.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE is_recurring = 1 AND due_date IS NOT NULL AND due_date <= ?`,
		asOf.String())
	if err != nil {
		return nil, fmt.Errorf("list due recurring invoices: %w", err)
	}
	defer rows.Close()

	return collectInvoices(rows)
}

// AdvanceDueDate moves an invoice's due date from one value to another. The
// write only lands when the stored due date still equals from, so two
// overlapping sweep runs cannot advance the same invoice twice. Reports
// whether the write landed.
func (r *SQLiteRepository) AdvanceDueDate(ctx context.Context, id string, from, to core.Date) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE invoices SET due_date = ?
		WHERE id = ? AND due_date = ?`,
		to.String(), id, from.String())
	if err != nil {
		return false, fmt.Errorf("advance due date: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("advance due date rows affected: %w", err)
	}
	return affected == 1, nil
}

// ListCreatedSince returns the owner's invoices created at or after since.
func (r *SQLiteRepository) ListCreatedSince(ctx context.Context, ownerID string, since time.Time) ([]core.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE owner_id = ? AND created_at >= ?
		ORDER BY created_at DESC`,
		ownerID, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("list invoices since: %w", err)
	}
	defer rows.Close()

	return collectInvoices(rows)
}

// SumSince returns the count and total amount of the owner's invoices
// created at or after since. This pair is the analysis fingerprint.
func (r *SQLiteRepository) SumSince(ctx context.Context, ownerID string, since time.Time) (int, int64, error) {
	var count int
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount_cents), 0) FROM invoices
		WHERE owner_id = ? AND created_at >= ?`,
		ownerID, since.UTC().Format(time.RFC3339)).Scan(&count, &total)
	if err != nil {
		return 0, 0, fmt.Errorf("sum invoices since: %w", err)
	}
	return count, total.Int64, nil
}

// SumBetween returns the total amount of the owner's invoices created in
// [start, end].
func (r *SQLiteRepository) SumBetween(ctx context.Context, ownerID string, start, end time.Time) (int64, error) {
	var total sql.NullInt64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0) FROM invoices
		WHERE owner_id = ? AND created_at >= ? AND created_at <= ?`,
		ownerID, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum invoices between: %w", err)
	}
	return total.Int64, nil
}

// Bucket selects how BucketTotals groups creation times.
type Bucket string

const (
	BucketDayOfMonth Bucket = "day"     // 1-31
	BucketWeekday    Bucket = "weekday" // 1-7, Sunday = 1
	BucketMonth      Bucket = "month"   // 1-12
)

var bucketExpr = map[Bucket]string{
	// strftime %w is 0-6 with Sunday = 0; chart rows are 1-based
	BucketDayOfMonth: "CAST(strftime('%d', created_at) AS INTEGER)",
	BucketWeekday:    "CAST(strftime('%w', created_at) AS INTEGER) + 1",
	BucketMonth:      "CAST(strftime('%m', created_at) AS INTEGER)",
}

// BucketTotals sums the owner's invoice amounts created in [start, end],
// grouped into 1-based calendar buckets.
func (r *SQLiteRepository) BucketTotals(ctx context.Context, ownerID string, start, end time.Time, bucket Bucket) (map[int]int64, error) {
	expr, ok := bucketExpr[bucket]
	if !ok {
		return nil, fmt.Errorf("unsupported bucket %q", bucket)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expr+` AS bucket, SUM(amount_cents)
		FROM invoices
		WHERE owner_id = ? AND created_at >= ? AND created_at <= ?
		GROUP BY bucket ORDER BY bucket`,
		ownerID, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("bucket totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[int]int64)
	for rows.Next() {
		var b int
		var cents int64
		if err := rows.Scan(&b, &cents); err != nil {
			return nil, fmt.Errorf("scan bucket total: %w", err)
		}
		totals[b] = cents
	}
	return totals, rows.Err()
}

// GetUser returns the user record, or core.ErrNotFound when none exists yet.
func (r *SQLiteRepository) GetUser(ctx context.Context, uid string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx, `
		SELECT uid, push_token, monthly_budget FROM users WHERE uid = ?`, uid).
		Scan(&u.ID, &u.PushToken, &u.MonthlyBudget.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpsertPushToken stores the last-registered device token for a user,
// creating the user record when needed.
func (r *SQLiteRepository) UpsertPushToken(ctx context.Context, uid, token string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (uid, push_token) VALUES (?, ?)
		ON CONFLICT(uid) DO UPDATE SET push_token = excluded.push_token`,
		uid, token)
	if err != nil {
		return fmt.Errorf("upsert push token: %w", err)
	}
	return nil
}

// UpsertMonthlyBudget stores the user's monthly budget, creating the user
// record when needed.
func (r *SQLiteRepository) UpsertMonthlyBudget(ctx context.Context, uid string, cents int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (uid, monthly_budget) VALUES (?, ?)
		ON CONFLICT(uid) DO UPDATE SET monthly_budget = excluded.monthly_budget`,
		uid, cents)
	if err != nil {
		return fmt.Errorf("upsert monthly budget: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (core.Invoice, error) {
	var (
		inv       core.Invoice
		dueDate   sql.NullString
		interval  sql.NullString
		recurring int64
		createdAt string
	)
	err := row.Scan(&inv.ID, &inv.OwnerID, &inv.Vendor, &inv.Amount.Cents,
		&dueDate, &inv.Category, &recurring, &interval, &createdAt)
	if err != nil {
		return core.Invoice{}, err
	}

	inv.IsRecurring = recurring != 0
	if dueDate.Valid && dueDate.String != "" {
		d, err := core.ParseDate(dueDate.String)
		if err != nil {
			return core.Invoice{}, fmt.Errorf("parse due date %q: %w", dueDate.String, err)
		}
		inv.DueDate = d
	}
	if interval.Valid && interval.String != "" {
		iv, err := core.ParseRecurrenceInterval(interval.String)
		if err != nil {
			// Surface malformed stored intervals to the caller instead of
			// dropping the row; the sweep skips these per item.
			inv.Recurrence = nil
		} else {
			inv.Recurrence = &iv
		}
	}
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		// CURRENT_TIMESTAMP default writes this layout
		t, err = time.Parse("2006-01-02 15:04:05", createdAt)
		if err != nil {
			return core.Invoice{}, fmt.Errorf("parse created_at %q: %w", createdAt, err)
		}
	}
	inv.CreatedAt = t.UTC()
	return inv, nil
}

func collectInvoices(rows *sql.Rows) ([]core.Invoice, error) {
	var invoices []core.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

func nullableDate(d core.Date) any {
	if d.IsEmpty() {
		return nil
	}
	return d.String()
}

func nullableInterval(iv *core.RecurrenceInterval) any {
	if iv == nil {
		return nil
	}
	return iv.String()
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
