package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// FXCache persists fetched currency rates with their fetch timestamps.
type FXCache struct {
	db *sqlx.DB
}

// NewFXCache builds the fx cache repository.
func NewFXCache(db *sqlx.DB) *FXCache {
	return &FXCache{db: db}
}

// Get returns the cached rate and fetch time for a pair. The second return is
// false when no entry exists; staleness is the caller's concern.
func (f *FXCache) Get(ctx context.Context, base, quote string) (float64, time.Time, bool, error) {
	var row struct {
		Rate      float64   `db:"rate"`
		FetchedAt time.Time `db:"fetched_at"`
	}
	err := f.db.GetContext(ctx, &row,
		`SELECT rate, fetched_at FROM fx_cache WHERE ccy_base = $1 AND ccy_quote = $2`,
		base, quote,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, time.Time{}, false, nil
	}
	if err != nil {
		return 0, time.Time{}, false, fmt.Errorf("fx cache get %s/%s: %w", base, quote, err)
	}
	return row.Rate, row.FetchedAt, true, nil
}

// Put upserts a rate for a pair.
func (f *FXCache) Put(ctx context.Context, base, quote string, rate float64, fetchedAt time.Time) error {
	_, err := f.db.ExecContext(ctx, `
		INSERT INTO fx_cache (ccy_base, ccy_quote, rate, fetched_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ccy_base, ccy_quote)
		DO UPDATE SET rate = EXCLUDED.rate, fetched_at = EXCLUDED.fetched_at`,
		base, quote, rate, fetchedAt,
	)
	if err != nil {
		return fmt.Errorf("fx cache put %s/%s: %w", base, quote, err)
	}
	return nil
}
