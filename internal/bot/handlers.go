package bot

import (
	"context"
	"log/slog"
	"strconv"

	tele "gopkg.in/telebot.v4"

	"github.com/Nuarka/FinTrackO/internal/domain"
	"github.com/Nuarka/FinTrackO/internal/logger"
)

// reqContext builds the request context for storage and rate calls made while
// handling one update.
func reqContext(_ tele.Context) context.Context {
	return context.Background()
}

// onStart handles /start: ensure the profile exists, drop any draft, greet.
func (b *Bot) onStart(c tele.Context) error {
	ctx := reqContext(c)
	userID := c.Sender().ID
	if _, err := b.store.Users.GetOrCreate(ctx, userID); err != nil {
		return err
	}
	b.states.Clear(userID)
	b.anchor.Discard(c.Message())
	return b.anchor.Render(ctx, userID, c.Chat().ID, GreetingScreen())
}

func (b *Bot) onHome(c tele.Context, _ string) error {
	userID := c.Sender().ID
	b.states.Clear(userID)
	if err := b.anchor.Render(reqContext(c), userID, c.Chat().ID, MainMenuScreen()); err != nil {
		return err
	}
	return c.Respond()
}

func (b *Bot) onCancel(c tele.Context, _ string) error {
	userID := c.Sender().ID
	b.states.Clear(userID)
	if err := b.anchor.Render(reqContext(c), userID, c.Chat().ID, CancelledScreen()); err != nil {
		return err
	}
	return c.Respond(&tele.CallbackResponse{Text: "Отменено"})
}

// onClear deletes the last stretch of chat best-effort, anchor included; the
// next render re-anchors automatically.
func (b *Bot) onClear(c tele.Context, _ string) error {
	chatID := c.Chat().ID
	last := c.Message().ID
	for id := last; id > last-20 && id > 0; id-- {
		b.anchor.Discard(tele.StoredMessage{MessageID: strconv.Itoa(id), ChatID: chatID})
	}
	return c.Respond(&tele.CallbackResponse{Text: "Чат очищен (по возможности)."})
}

func (b *Bot) onSummary(c tele.Context, _ string) error {
	ctx := reqContext(c)
	userID := c.Sender().ID
	sum, err := b.store.Transactions.MonthSummary(ctx, userID, domain.CurrentMonthKey())
	if err != nil {
		return err
	}
	if err := b.anchor.Render(ctx, userID, c.Chat().ID, SummaryScreen(sum)); err != nil {
		return err
	}
	return c.Respond()
}

// onRates shows tracked rates; when every quote is unavailable the screen is
// left untouched and the user gets an alert instead.
func (b *Bot) onRates(c tele.Context, _ string) error {
	ctx := reqContext(c)
	userID := c.Sender().ID
	user, err := b.store.Users.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	pairs, err := b.rates.RatesForUser(ctx, user)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return c.Respond(&tele.CallbackResponse{Text: "Не удалось получить курсы", ShowAlert: true})
	}
	if err := b.anchor.Render(ctx, userID, c.Chat().ID, RatesScreen(user.BaseCurrency, pairs)); err != nil {
		return err
	}
	return c.Respond()
}

func (b *Bot) onHistory(c tele.Context, payload string) error {
	ctx := reqContext(c)
	userID := c.Sender().ID
	page, err := strconv.Atoi(payload)
	if err != nil || page < 1 {
		page = 1
	}
	mk := domain.CurrentMonthKey()
	// Fetch one extra row to detect whether a next page exists.
	offset := (page - 1) * HistoryPageSize
	rows, err := b.store.Transactions.ListMonth(ctx, userID, mk, HistoryPageSize+1, offset)
	if err != nil {
		return err
	}
	hasMore := len(rows) > HistoryPageSize
	if hasMore {
		rows = rows[:HistoryPageSize]
	}
	sum, err := b.store.Transactions.MonthSummary(ctx, userID, mk)
	if err != nil {
		return err
	}
	if err := b.anchor.Render(ctx, userID, c.Chat().ID, HistoryScreen(rows, sum, page, hasMore)); err != nil {
		return err
	}
	return c.Respond()
}

func (b *Bot) onExpenseAdd(c tele.Context, _ string) error {
	return b.startTx(c, domain.TxExpense)
}

func (b *Bot) onIncomeAdd(c tele.Context, _ string) error {
	return b.startTx(c, domain.TxIncome)
}

func (b *Bot) startTx(c tele.Context, kind domain.TxKind) error {
	userID := c.Sender().ID
	b.states.Put(userID, StartTx(kind))
	if err := b.anchor.Render(reqContext(c), userID, c.Chat().ID, AmountPromptScreen(kind)); err != nil {
		return err
	}
	return c.Respond()
}

// onCategory accepts a pick only in the category step. A press while the
// amount is still awaited gets the distinct ordering guard, which prevents a
// race between two concurrently rendered prompts.
func (b *Bot) onCategory(c tele.Context, payload string) error {
	ctx := reqContext(c)
	userID := c.Sender().ID
	draft := b.states.Get(userID)

	switch draft.Step {
	case StepTxAmount:
		if err := b.anchor.Render(ctx, userID, c.Chat().ID, AmountFirstScreen()); err != nil {
			return err
		}
		return c.Respond()

	case StepTxCategory:
		category := payload
		if category == CategorySkip {
			category = DefaultCategory
		}
		b.states.Put(userID, draft.WithCategory(category))
		if err := b.anchor.Render(ctx, userID, c.Chat().ID, NotePromptScreen()); err != nil {
			return err
		}
		return c.Respond()

	default: // stale keyboard
		return c.Respond(&tele.CallbackResponse{Text: "Сейчас это действие недоступно"})
	}
}

func (b *Bot) onDebts(c tele.Context, _ string) error {
	return b.showDebts(c, true)
}

func (b *Bot) showDebts(c tele.Context, ack bool) error {
	ctx := reqContext(c)
	userID := c.Sender().ID
	open, err := b.store.Debts.List(ctx, userID, domain.DebtOpen)
	if err != nil {
		return err
	}
	if err := b.anchor.Render(ctx, userID, c.Chat().ID, DebtsScreen(open)); err != nil {
		return err
	}
	if ack {
		return c.Respond()
	}
	return nil
}

func (b *Bot) onDebtAdd(c tele.Context, _ string) error {
	userID := c.Sender().ID
	b.states.Put(userID, StartDebt())
	if err := b.anchor.Render(reqContext(c), userID, c.Chat().ID, DirectionScreen()); err != nil {
		return err
	}
	return c.Respond()
}

func (b *Bot) onDirection(c tele.Context, payload string) error {
	ctx := reqContext(c)
	userID := c.Sender().ID
	draft := b.states.Get(userID)
	if draft.Step != StepDebtDirection {
		return c.Respond(&tele.CallbackResponse{Text: "Сейчас это действие недоступно"})
	}
	dir := domain.DebtDirection(payload)
	if dir != domain.DebtToMe && dir != domain.DebtFromMe {
		return c.Respond(&tele.CallbackResponse{Text: "Неизвестное действие"})
	}
	b.states.Put(userID, draft.WithDirection(dir))
	if err := b.anchor.Render(ctx, userID, c.Chat().ID, PromptScreen("Имя контрагента?")); err != nil {
		return err
	}
	return c.Respond()
}

// onDebtClose closes an open debt. Closing a foreign or already-closed debt
// changes nothing and surfaces a transient notice, not an error.
func (b *Bot) onDebtClose(c tele.Context, payload string) error {
	ctx := reqContext(c)
	userID := c.Sender().ID
	debtID, err := strconv.ParseInt(payload, 10, 64)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "Не удалось закрыть долг", ShowAlert: true})
	}
	closed, err := b.store.Debts.Close(ctx, userID, debtID)
	if err != nil {
		return err
	}
	if !closed {
		return c.Respond(&tele.CallbackResponse{Text: "Не удалось закрыть долг", ShowAlert: true})
	}
	logger.BOT.Info("debt closed",
		slog.String("event", "debt.closed"),
		slog.Int64("user_id", userID),
		slog.Int64("debt_id", debtID),
	)
	if err := b.showDebts(c, false); err != nil {
		return err
	}
	return c.Respond(&tele.CallbackResponse{Text: "Долг закрыт"})
}

func (b *Bot) onDebtsClosed(c tele.Context, _ string) error {
	ctx := reqContext(c)
	userID := c.Sender().ID
	closed, err := b.store.Debts.List(ctx, userID, domain.DebtClosed)
	if err != nil {
		return err
	}
	if err := b.anchor.Render(ctx, userID, c.Chat().ID, ClosedDebtsScreen(closed)); err != nil {
		return err
	}
	return c.Respond()
}

func (b *Bot) onSettings(c tele.Context, _ string) error {
	return b.showSettings(c)
}

func (b *Bot) showSettings(c tele.Context) error {
	ctx := reqContext(c)
	userID := c.Sender().ID
	user, err := b.store.Users.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	if err := b.anchor.Render(ctx, userID, c.Chat().ID, SettingsScreen(user)); err != nil {
		return err
	}
	return c.Respond()
}

func (b *Bot) onSetBase(c tele.Context, _ string) error {
	if err := b.anchor.Render(reqContext(c), c.Sender().ID, c.Chat().ID, BaseChoicesScreen()); err != nil {
		return err
	}
	return c.Respond()
}

func (b *Bot) onBase(c tele.Context, payload string) error {
	ctx := reqContext(c)
	userID := c.Sender().ID
	valid := false
	for _, choice := range BaseCurrencyChoices {
		if choice == payload {
			valid = true
			break
		}
	}
	if !valid {
		return c.Respond(&tele.CallbackResponse{Text: "Неизвестное действие"})
	}
	if err := b.store.Users.SetBaseCurrency(ctx, userID, payload); err != nil {
		return err
	}
	return b.showSettings(c)
}

func (b *Bot) onSetTracked(c tele.Context, _ string) error {
	return b.showTracked(c)
}

func (b *Bot) showTracked(c tele.Context) error {
	ctx := reqContext(c)
	userID := c.Sender().ID
	user, err := b.store.Users.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	if err := b.anchor.Render(ctx, userID, c.Chat().ID, TrackedScreen(user)); err != nil {
		return err
	}
	return c.Respond()
}

// onTrack toggles one tracked currency. A sixth selection is rejected with a
// warning and mutates nothing; removal keeps the remaining order intact.
func (b *Bot) onTrack(c tele.Context, payload string) error {
	ctx := reqContext(c)
	userID := c.Sender().ID
	user, err := b.store.Users.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	next, ok := ToggleTracked(user.Tracked, payload)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "Не более 5 валют", ShowAlert: true})
	}
	if err := b.store.Users.SetTracked(ctx, userID, next); err != nil {
		return err
	}
	return b.showTracked(c)
}

func (b *Bot) onTrackSave(c tele.Context, _ string) error {
	return b.showSettings(c)
}

// ToggleTracked flips ccy membership in the ordered tracked set. It reports
// false, with the set unchanged, when adding would exceed the cap.
func ToggleTracked(tracked []string, ccy string) ([]string, bool) {
	for i, c := range tracked {
		if c == ccy {
			next := append(append([]string(nil), tracked[:i]...), tracked[i+1:]...)
			return next, true
		}
	}
	if len(tracked) >= domain.MaxTracked {
		return tracked, false
	}
	return append(append([]string(nil), tracked...), ccy), true
}

// completeTx persists the finished transaction draft and shows the fresh
// history table on the main menu.
func (b *Bot) completeTx(ctx context.Context, userID, chatID int64, d Draft, rawNote string) error {
	user, err := b.store.Users.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	note := NormalizeNote(rawNote)
	if err := b.store.Transactions.Add(ctx, userID, d.TxKind, d.Amount, user.BaseCurrency, d.Category, note); err != nil {
		return err
	}
	b.states.Clear(userID)
	logger.BOT.Info("transaction added",
		slog.String("event", "tx.added"),
		slog.Int64("user_id", userID),
		slog.String("kind", string(d.TxKind)),
		slog.String("category", d.Category),
	)

	mk := domain.CurrentMonthKey()
	sum, err := b.store.Transactions.MonthSummary(ctx, userID, mk)
	if err != nil {
		return err
	}
	rows, err := b.store.Transactions.ListMonth(ctx, userID, mk, HistoryPageSize, 0)
	if err != nil {
		return err
	}
	table := Monowrap(FormatTable(rows, sum))
	return b.anchor.Render(ctx, userID, chatID, Screen{Text: table, Markup: kbMain()})
}

// completeDebt persists the finished debt draft and shows the open debt list.
func (b *Bot) completeDebt(ctx context.Context, userID, chatID int64, d Draft, rawNote string) error {
	user, err := b.store.Users.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}
	note := NormalizeNote(rawNote)
	if err := b.store.Debts.Add(ctx, userID, d.Direction, d.Counterparty, d.Amount, user.BaseCurrency, note); err != nil {
		return err
	}
	b.states.Clear(userID)
	logger.BOT.Info("debt added",
		slog.String("event", "debt.added"),
		slog.Int64("user_id", userID),
		slog.String("direction", string(d.Direction)),
	)

	open, err := b.store.Debts.List(ctx, userID, domain.DebtOpen)
	if err != nil {
		return err
	}
	return b.anchor.Render(ctx, userID, chatID, DebtsScreen(open))
}
