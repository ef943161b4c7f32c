package bot

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Nuarka/FinTrackO/internal/domain"
)

// Step identifies where a user is inside a guided input flow.
type Step int

const (
	// StepIdle means no conversation is in progress.
	StepIdle Step = iota

	// Transaction flow: idle -> amount -> category -> note -> idle.
	StepTxAmount
	StepTxCategory
	StepTxNote

	// Debt flow: idle -> direction -> counterparty -> amount -> note -> idle.
	StepDebtDirection
	StepDebtCounterparty
	StepDebtAmount
	StepDebtNote
)

// String names the step for logs.
func (s Step) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepTxAmount:
		return "tx.waiting_amount"
	case StepTxCategory:
		return "tx.waiting_category"
	case StepTxNote:
		return "tx.waiting_note"
	case StepDebtDirection:
		return "debt.waiting_direction"
	case StepDebtCounterparty:
		return "debt.waiting_counterparty"
	case StepDebtAmount:
		return "debt.waiting_amount"
	case StepDebtNote:
		return "debt.waiting_note"
	default:
		return "unknown"
	}
}

// ExpectsText reports whether the step consumes free-text input. The
// remaining non-idle steps expect a button selection instead.
func (s Step) ExpectsText() bool {
	switch s {
	case StepTxAmount, StepTxNote, StepDebtCounterparty, StepDebtAmount, StepDebtNote:
		return true
	}
	return false
}

// Draft is the partial record accumulated across flow steps. The Step tag
// decides which fields are meaningful.
type Draft struct {
	Step         Step
	TxKind       domain.TxKind
	Direction    domain.DebtDirection
	Amount       float64
	Category     string
	Counterparty string
	UpdatedAt    time.Time
}

// StartTx begins a transaction flow for the given kind.
func StartTx(kind domain.TxKind) Draft {
	return Draft{Step: StepTxAmount, TxKind: kind}
}

// StartDebt begins a debt flow at the direction picker.
func StartDebt() Draft {
	return Draft{Step: StepDebtDirection}
}

// WithCategory records the chosen category and advances to the note step.
// Only valid while in StepTxCategory.
func (d Draft) WithCategory(category string) Draft {
	d.Category = category
	d.Step = StepTxNote
	return d
}

// WithDirection records who owes whom and advances to the counterparty step.
// Only valid while in StepDebtDirection.
func (d Draft) WithDirection(dir domain.DebtDirection) Draft {
	d.Direction = dir
	d.Step = StepDebtCounterparty
	return d
}

// TextResult classifies the outcome of feeding free text into a draft.
type TextResult int

const (
	// TextUnexpected: the current step does not take free text at all.
	TextUnexpected TextResult = iota
	// TextRejected: the step takes text but the input failed validation.
	TextRejected
	// TextAccepted: input stored, draft advanced to the next step.
	TextAccepted
	// TextTxDone: the transaction flow completed; persist and clear.
	TextTxDone
	// TextDebtDone: the debt flow completed; persist and clear.
	TextDebtDone
)

// ApplyText feeds one free-text message into the draft and returns the next
// draft plus what happened. It is pure: side effects (persistence, rendering,
// discarding the input message) are the caller's job.
func ApplyText(d Draft, text string) (Draft, TextResult) {
	switch d.Step {
	case StepTxAmount:
		amount, ok := ParseAmount(text)
		if !ok {
			return d, TextRejected
		}
		d.Amount = amount
		d.Step = StepTxCategory
		return d, TextAccepted

	case StepTxNote:
		d.Step = StepIdle
		return d, TextTxDone

	case StepDebtCounterparty:
		name := strings.TrimSpace(text)
		if name == "" {
			return d, TextRejected
		}
		d.Counterparty = name
		d.Step = StepDebtAmount
		return d, TextAccepted

	case StepDebtAmount:
		amount, ok := ParseAmount(text)
		if !ok {
			return d, TextRejected
		}
		d.Amount = amount
		d.Step = StepDebtNote
		return d, TextAccepted

	case StepDebtNote:
		d.Step = StepIdle
		return d, TextDebtDone

	default:
		return d, TextUnexpected
	}
}

// NormalizeNote maps the "-" skip sentinel to an empty note.
func NormalizeNote(text string) string {
	note := strings.TrimSpace(text)
	if note == "-" {
		return ""
	}
	return note
}

// ParseAmount parses a decimal amount with comma or dot as separator.
// Non-numeric and non-positive values are rejected.
func ParseAmount(text string) (float64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// DefaultDraftTTL bounds how long an abandoned draft survives.
const DefaultDraftTTL = time.Hour

// StateStore keeps per-user drafts in memory with lazy TTL eviction.
// Drafts are value copies: handlers read, transform, and Put back within one
// event-processing turn.
type StateStore struct {
	mu     sync.Mutex
	drafts map[int64]Draft
	ttl    time.Duration
	now    func() time.Time
}

// NewStateStore builds a store with the given draft TTL (<=0 means DefaultDraftTTL).
func NewStateStore(ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &StateStore{
		drafts: make(map[int64]Draft),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Get returns the user's draft, or an idle zero draft when absent or expired.
func (s *StateStore) Get(userID int64) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[userID]
	if !ok {
		return Draft{}
	}
	if s.now().Sub(d.UpdatedAt) > s.ttl {
		delete(s.drafts, userID)
		return Draft{}
	}
	return d
}

// Put stores the draft, stamping its last-touch time. Storing an idle draft
// clears the entry instead.
func (s *StateStore) Put(userID int64, d Draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.Step == StepIdle {
		delete(s.drafts, userID)
		return
	}
	d.UpdatedAt = s.now()
	s.drafts[userID] = d
}

// Clear removes the user's draft unconditionally.
func (s *StateStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, userID)
}

// InProgress reports whether the user has a live non-idle draft.
func (s *StateStore) InProgress(userID int64) bool {
	return s.Get(userID).Step != StepIdle
}

// Len counts live entries, expired ones included until their next touch.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}
