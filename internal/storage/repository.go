package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// SQLiteRepository persists transactions, settings and categories.
// List ordering follows rowid, i.e. insertion order, which the
// partition contract relies on.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ledger.Store = (*SQLiteRepository)(nil)

const (
	settingPeriod      = "selected_period"
	settingMonthOffset = "month_offset"
	settingWelcomeSeen = "welcome_seen"
)

// occurredAtLayout is fixed width and always UTC, so comparing the
// stored text orders rows chronologically. RFC3339Nano would not:
// it drops trailing zeros and keeps client offsets, and range
// queries compare the column as text.
const occurredAtLayout = "2006-01-02T15:04:05.000000000Z"

func encodeOccurredAt(t time.Time) string {
	return t.UTC().Format(occurredAtLayout)
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

	if err := runMigrations(db); err != nil {
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

func (r *SQLiteRepository) Add(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, description, amount, category, occurred_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID.String(), t.Description, t.Amount.String(), t.Category, encodeOccurredAt(t.Date))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"amount", t.Amount.String(),
		"category", t.Category)
	return nil
}

func (r *SQLiteRepository) Update(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET description = ?, amount = ?, category = ?, occurred_at = ? WHERE id = ?`,
		t.Description, t.Amount.String(), t.Category, encodeOccurredAt(t.Date), t.ID.String())
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, description, amount, category, occurred_at FROM transactions WHERE id = ?`,
		id.String())
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount, category, occurred_at FROM transactions ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *SQLiteRepository) ListByRange(ctx context.Context, dr core.DateRange) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, amount, category, occurred_at FROM transactions
		 WHERE occurred_at >= ? AND occurred_at <= ? ORDER BY rowid`,
		encodeOccurredAt(dr.Start), encodeOccurredAt(dr.End))
	if err != nil {
		return nil, fmt.Errorf("list transactions by range: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// ReplaceAll swaps the whole collection inside one transaction, used
// by backup restore.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, transactions []core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin restore: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	for _, t := range transactions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, description, amount, category, occurred_at) VALUES (?, ?, ?, ?, ?)`,
			t.ID.String(), t.Description, t.Amount.String(), t.Category, encodeOccurredAt(t.Date)); err != nil {
			return fmt.Errorf("restore transaction %s: %w", t.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit restore: %w", err)
	}

	slog.InfoContext(ctx, "Transactions restored", "count", len(transactions))
	return nil
}

func (r *SQLiteRepository) LoadSettings(ctx context.Context) (ledger.Settings, error) {
	settings := ledger.DefaultSettings()

	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return settings, fmt.Errorf("load settings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return settings, fmt.Errorf("scan setting: %w", err)
		}
		switch key {
		case settingPeriod:
			if kind, err := core.ParsePeriodKind(value); err == nil {
				settings.Period = kind
			}
		case settingMonthOffset:
			if offset, err := strconv.Atoi(value); err == nil {
				settings.MonthOffset = offset
			}
		case settingWelcomeSeen:
			settings.WelcomeSeen = value == "1"
		}
	}
	return settings, rows.Err()
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, s ledger.Settings) error {
	welcome := "0"
	if s.WelcomeSeen {
		welcome = "1"
	}
	pairs := map[string]string{
		settingPeriod:      string(s.Period),
		settingMonthOffset: strconv.Itoa(s.MonthOffset),
		settingWelcomeSeen: welcome,
	}
	for key, value := range pairs {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return fmt.Errorf("save setting %s: %w", key, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, emoji, color_hex, is_expense FROM categories ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var (
			c       core.Category
			rawID   string
			expense int64
		)
		if err := rows.Scan(&rawID, &c.Name, &c.Emoji, &c.ColorHex, &expense); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		id, err := uuid.Parse(rawID)
		if err != nil {
			return nil, fmt.Errorf("parse category id %q: %w", rawID, err)
		}
		c.ID = id
		c.IsExpense = expense != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SaveCategory(ctx context.Context, c core.Category) error {
	expense := 0
	if c.IsExpense {
		expense = 1
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, emoji, color_hex, is_expense) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, emoji = excluded.emoji,
		 color_hex = excluded.color_hex, is_expense = excluded.is_expense`,
		c.ID.String(), c.Name, c.Emoji, c.ColorHex, expense)
	if err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t          core.Transaction
		rawID      string
		rawAmount  string
		occurredAt string
	)
	if err := row.Scan(&rawID, &t.Description, &rawAmount, &t.Category, &occurredAt); err != nil {
		return core.Transaction{}, err
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction id %q: %w", rawID, err)
	}
	t.ID = id

	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount %q: %w", rawAmount, err)
	}
	t.Amount = amount

	date, err := time.Parse(occurredAtLayout, occurredAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse occurred_at %q: %w", occurredAt, err)
	}
	t.Date = date

	return t, nil
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
