package bot

import (
	"context"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Callback action keys. Buttons carry one of these plus an optional payload
// after the telebot '|' delimiter.
const (
	actionHome        = "home"
	actionCancel      = "cancel"
	actionClear       = "clear"
	actionSummary     = "summary"
	actionRates       = "rates"
	actionHistory     = "history"
	actionExpenseAdd  = "expense_add"
	actionIncomeAdd   = "income_add"
	actionCategory    = "cat"
	actionDebts       = "debts"
	actionDebtAdd     = "debt_add"
	actionDirection   = "dir"
	actionDebtClose   = "debt_close"
	actionDebtsClosed = "debts_closed"
	actionSettings    = "settings"
	actionSetBase     = "set_base"
	actionBase        = "base"
	actionSetTracked  = "set_tracked"
	actionTrack       = "track"
	actionTrackSave   = "track_save"
)

// callbackHandler handles one callback action with its parsed payload.
// Every handler must acknowledge the callback exactly once.
type callbackHandler func(c tele.Context, payload string) error

// parseCallback splits telebot's \f<unique>|<payload> encoding.
func parseCallback(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	parts := strings.SplitN(raw, "|", 2)
	key := strings.TrimSpace(parts[0])
	payload := ""
	if len(parts) == 2 {
		payload = parts[1]
	}
	return key, payload
}

// routeCallback dispatches a button press. Cancel and home are global
// interrupts matched before anything else so no flow step can miss them.
func (b *Bot) routeCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}
	key, payload := parseCallback(cb)

	switch key {
	case actionCancel:
		return b.onCancel(c, payload)
	case actionHome:
		return b.onHome(c, payload)
	}

	if h, ok := b.actions[key]; ok {
		return h(c, payload)
	}
	return c.Respond(&tele.CallbackResponse{Text: "Неизвестное действие"})
}

// routeText dispatches free text according to the current conversation step.
// The inbound message itself is always discarded so chat history never grows.
func (b *Bot) routeText(c tele.Context) error {
	userID := c.Sender().ID
	chatID := c.Chat().ID
	ctx := reqContext(c)

	draft := b.states.Get(userID)
	next, result := ApplyText(draft, c.Text())
	b.anchor.Discard(c.Message())

	switch result {
	case TextAccepted:
		b.states.Put(userID, next)
		return b.renderStep(ctx, userID, chatID, next)

	case TextRejected:
		// State unchanged: re-render the prompt with an error notice.
		return b.renderRejection(ctx, userID, chatID, draft)

	case TextTxDone:
		return b.completeTx(ctx, userID, chatID, next, c.Text())

	case TextDebtDone:
		return b.completeDebt(ctx, userID, chatID, next, c.Text())

	default: // TextUnexpected: idle chatter or a selection-only step.
		return b.anchor.Render(ctx, userID, chatID, UnexpectedInputScreen(draft.Step != StepIdle))
	}
}

// renderStep shows the prompt for the step the draft just advanced to.
func (b *Bot) renderStep(ctx context.Context, userID, chatID int64, d Draft) error {
	switch d.Step {
	case StepTxCategory:
		return b.anchor.Render(ctx, userID, chatID, CategoryScreen(d.TxKind))
	case StepTxNote, StepDebtNote:
		return b.anchor.Render(ctx, userID, chatID, NotePromptScreen())
	case StepDebtAmount:
		return b.anchor.Render(ctx, userID, chatID, PromptScreen("Сумма долга?"))
	default:
		return b.anchor.Render(ctx, userID, chatID, MainMenuScreen())
	}
}

func (b *Bot) renderRejection(ctx context.Context, userID, chatID int64, d Draft) error {
	switch d.Step {
	case StepTxAmount, StepDebtAmount:
		return b.anchor.Render(ctx, userID, chatID, BadAmountScreen())
	case StepDebtCounterparty:
		return b.anchor.Render(ctx, userID, chatID, PromptScreen("Имя контрагента?"))
	default:
		return b.anchor.Render(ctx, userID, chatID, UnexpectedInputScreen(d.Step != StepIdle))
	}
}
