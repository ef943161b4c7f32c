package domain

import "time"

// TxKind distinguishes income from expense transactions.
type TxKind string

const (
	TxIncome  TxKind = "income"
	TxExpense TxKind = "expense"
)

// DebtDirection tells who owes whom.
type DebtDirection string

const (
	// DebtToMe means the counterparty owes the user.
	DebtToMe DebtDirection = "to_me"
	// DebtFromMe means the user owes the counterparty.
	DebtFromMe DebtDirection = "from_me"
)

// DebtStatus is the lifecycle state of a debt. Transitions only open -> closed.
type DebtStatus string

const (
	DebtOpen   DebtStatus = "open"
	DebtClosed DebtStatus = "closed"
)

// User is a bot user profile. Created on first interaction, never deleted.
type User struct {
	ID            int64    `db:"user_id"`
	BaseCurrency  string   `db:"base_ccy"`
	Tracked       []string `db:"-"`
	MonthlyBudget float64  `db:"monthly_budget"`
	Timezone      string   `db:"tz"`
	AnchorID      *int     `db:"anchor_msg_id"`
}

// MaxTracked caps the number of quote currencies a user may follow.
const MaxTracked = 5

// Tracks reports whether ccy is in the user's tracked set.
func (u User) Tracks(ccy string) bool {
	for _, c := range u.Tracked {
		if c == ccy {
			return true
		}
	}
	return false
}

// Transaction is an immutable income/expense record. The currency is a
// snapshot of the owner's base currency at creation time.
type Transaction struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Kind      TxKind    `db:"type"`
	Amount    float64   `db:"amount"`
	Currency  string    `db:"ccy"`
	Category  string    `db:"category"`
	Note      string    `db:"note"`
	CreatedAt time.Time `db:"created_at"`
	MonthKey  string    `db:"month_key"`
}

// Debt is money owed to or by the user. Closing is one-way and guarded.
type Debt struct {
	ID           int64         `db:"id"`
	UserID       int64         `db:"user_id"`
	Direction    DebtDirection `db:"direction"`
	Counterparty string        `db:"counterparty"`
	Amount       float64       `db:"amount"`
	Currency     string        `db:"ccy"`
	Note         string        `db:"note"`
	Status       DebtStatus    `db:"status"`
	CreatedAt    time.Time     `db:"created_at"`
	ClosedAt     *time.Time    `db:"closed_at"`
}

// Summary aggregates one month of transactions.
type Summary struct {
	MonthKey string
	Income   float64
	Expense  float64
}

// Free is the remainder of income after expenses. Derived, so the
// free == income - expense invariant holds by construction.
func (s Summary) Free() float64 {
	return s.Income - s.Expense
}

// MonthKey formats t as the YYYY-MM partition key.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// CurrentMonthKey is the month key for "now".
func CurrentMonthKey() string {
	return MonthKey(time.Now())
}
