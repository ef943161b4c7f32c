package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Nuarka/FinTrackO/internal/domain"
)

// Users persists user profiles and the anchor message reference.
type Users struct {
	db       *sqlx.DB
	defaults Defaults
}

// NewUsers builds the users repository.
func NewUsers(db *sqlx.DB, defaults Defaults) *Users {
	return &Users{db: db, defaults: defaults}
}

type userRow struct {
	ID            int64          `db:"user_id"`
	BaseCurrency  string         `db:"base_ccy"`
	Tracked       pq.StringArray `db:"tracked_ccy"`
	MonthlyBudget float64        `db:"monthly_budget"`
	Timezone      string         `db:"tz"`
	AnchorID      *int           `db:"anchor_msg_id"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:            r.ID,
		BaseCurrency:  r.BaseCurrency,
		Tracked:       append([]string(nil), r.Tracked...),
		MonthlyBudget: r.MonthlyBudget,
		Timezone:      r.Timezone,
		AnchorID:      r.AnchorID,
	}
}

const selectUser = `
SELECT user_id, base_ccy, tracked_ccy, monthly_budget, tz, anchor_msg_id
FROM users WHERE user_id = $1`

// GetOrCreate returns the user profile, creating it with defaults on first contact.
func (u *Users) GetOrCreate(ctx context.Context, id int64) (domain.User, error) {
	_, err := u.db.ExecContext(ctx, `
		INSERT INTO users (user_id, base_ccy, tracked_ccy, tz)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING`,
		id, u.defaults.BaseCurrency, pq.StringArray(u.defaults.Tracked), u.defaults.Timezone,
	)
	if err != nil {
		return domain.User{}, fmt.Errorf("create user %d: %w", id, err)
	}

	var row userRow
	if err := u.db.GetContext(ctx, &row, selectUser, id); err != nil {
		return domain.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return row.toDomain(), nil
}

// SetBaseCurrency updates the user's base currency.
func (u *Users) SetBaseCurrency(ctx context.Context, id int64, ccy string) error {
	if _, err := u.db.ExecContext(ctx,
		`UPDATE users SET base_ccy = $2 WHERE user_id = $1`, id, ccy); err != nil {
		return fmt.Errorf("set base ccy for %d: %w", id, err)
	}
	return nil
}

// SetTracked replaces the user's tracked quote currency set. The write is one
// statement, so a concurrent toggle cannot observe a half-updated set.
func (u *Users) SetTracked(ctx context.Context, id int64, tracked []string) error {
	if len(tracked) > domain.MaxTracked {
		tracked = tracked[:domain.MaxTracked]
	}
	if _, err := u.db.ExecContext(ctx,
		`UPDATE users SET tracked_ccy = $2 WHERE user_id = $1`, id, pq.StringArray(tracked)); err != nil {
		return fmt.Errorf("set tracked for %d: %w", id, err)
	}
	return nil
}

// Anchor returns the stored anchor message id, or nil when none is known.
func (u *Users) Anchor(ctx context.Context, id int64) (*int, error) {
	var anchor *int
	err := u.db.GetContext(ctx, &anchor,
		`SELECT anchor_msg_id FROM users WHERE user_id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get anchor for %d: %w", id, err)
	}
	return anchor, nil
}

// SetAnchor records msgID as the user's live anchor message.
func (u *Users) SetAnchor(ctx context.Context, id int64, msgID int) error {
	if _, err := u.db.ExecContext(ctx,
		`UPDATE users SET anchor_msg_id = $2 WHERE user_id = $1`, id, msgID); err != nil {
		return fmt.Errorf("set anchor for %d: %w", id, err)
	}
	return nil
}
