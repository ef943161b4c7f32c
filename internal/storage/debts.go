package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nuarka/FinTrackO/internal/domain"
)

// Debts persists debts and the one-way open -> closed transition.
type Debts struct {
	db *sqlx.DB
}

// NewDebts builds the debts repository.
func NewDebts(db *sqlx.DB) *Debts {
	return &Debts{db: db}
}

// Add inserts a new open debt.
func (d *Debts) Add(ctx context.Context, userID int64, direction domain.DebtDirection, counterparty string, amount float64, ccy, note string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO debts (user_id, direction, counterparty, amount, ccy, note, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'open', $7)`,
		userID, direction, counterparty, amount, ccy, note, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("add debt for %d: %w", userID, err)
	}
	return nil
}

// List returns the user's debts with the given status, newest first.
func (d *Debts) List(ctx context.Context, userID int64, status domain.DebtStatus) ([]domain.Debt, error) {
	var rows []domain.Debt
	err := d.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, direction, counterparty, amount, ccy, note, status, created_at, closed_at
		FROM debts
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC`,
		userID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("list debts for %d: %w", userID, err)
	}
	return rows, nil
}

// Close marks a debt closed. It reports false when the debt is missing, owned
// by someone else, or already closed; the guard lives in the WHERE clause so
// the operation stays idempotent under repeats.
func (d *Debts) Close(ctx context.Context, userID, debtID int64) (bool, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE debts SET status = 'closed', closed_at = $3
		WHERE user_id = $1 AND id = $2 AND status = 'open'`,
		userID, debtID, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("close debt %d for %d: %w", debtID, userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("close debt %d rows affected: %w", debtID, err)
	}
	return n > 0, nil
}
