package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nuarka/FinTrackO/internal/domain"
)

// Transactions persists immutable income/expense records.
type Transactions struct {
	db *sqlx.DB
}

// NewTransactions builds the transactions repository.
func NewTransactions(db *sqlx.DB) *Transactions {
	return &Transactions{db: db}
}

// Add inserts one transaction. CreatedAt and MonthKey are assigned here so the
// month partition always matches the creation timestamp.
func (t *Transactions) Add(ctx context.Context, userID int64, kind domain.TxKind, amount float64, ccy, category, note string) error {
	now := time.Now().UTC()
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO transactions (user_id, type, amount, ccy, category, note, created_at, month_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		userID, kind, amount, ccy, category, note, now, domain.MonthKey(now),
	)
	if err != nil {
		return fmt.Errorf("add transaction for %d: %w", userID, err)
	}
	return nil
}

// ListMonth returns a slice of the user's transactions for a month, newest
// first. Callers own the page math and may request one extra row to detect
// whether more pages exist.
func (t *Transactions) ListMonth(ctx context.Context, userID int64, monthKey string, limit, offset int) ([]domain.Transaction, error) {
	if offset < 0 {
		offset = 0
	}
	var rows []domain.Transaction
	err := t.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, type, amount, ccy, category, note, created_at, month_key
		FROM transactions
		WHERE user_id = $1 AND month_key = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		userID, monthKey, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions for %d: %w", userID, err)
	}
	return rows, nil
}

// MonthSummary aggregates income and expense totals for a month key.
func (t *Transactions) MonthSummary(ctx context.Context, userID int64, monthKey string) (domain.Summary, error) {
	var row struct {
		Income  float64 `db:"income"`
		Expense float64 `db:"expense"`
	}
	err := t.db.GetContext(ctx, &row, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'income'), 0)  AS income,
			COALESCE(SUM(amount) FILTER (WHERE type = 'expense'), 0) AS expense
		FROM transactions
		WHERE user_id = $1 AND month_key = $2`,
		userID, monthKey,
	)
	if err != nil {
		return domain.Summary{}, fmt.Errorf("month summary for %d: %w", userID, err)
	}
	return domain.Summary{MonthKey: monthKey, Income: row.Income, Expense: row.Expense}, nil
}
