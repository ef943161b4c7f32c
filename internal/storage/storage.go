// Package storage implements the persistence gateway over Postgres via sqlx.
// Each method is a single statement, so individual reads and writes are atomic
// without explicit transactions.
package storage

import "github.com/jmoiron/sqlx"

// Defaults are applied when a user profile is created on first interaction.
type Defaults struct {
	BaseCurrency string
	Tracked      []string
	Timezone     string
}

// Store bundles the per-entity repositories sharing one connection pool.
type Store struct {
	Users        *Users
	Transactions *Transactions
	Debts        *Debts
	FXCache      *FXCache
}

// New builds a Store over the provided pool.
func New(db *sqlx.DB, defaults Defaults) *Store {
	return &Store{
		Users:        NewUsers(db, defaults),
		Transactions: NewTransactions(db),
		Debts:        NewDebts(db),
		FXCache:      NewFXCache(db),
	}
}
