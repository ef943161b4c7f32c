package bot

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/Nuarka/FinTrackO/internal/domain"
	"github.com/Nuarka/FinTrackO/internal/rates"
)

// Screen is one rendered bot view: the anchor message text plus its inline
// keyboard. Renderers are pure, delivery belongs to the anchor controller.
type Screen struct {
	Text   string
	Markup *tele.ReplyMarkup
}

// sendOptions converts the screen to telebot send/edit options. All screens
// use Markdown since tables rely on inline code spans.
func (s Screen) sendOptions() *tele.SendOptions {
	return &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: s.Markup}
}

// btn is a convenience descriptor for inline buttons.
type btn struct {
	Text    string
	Unique  string
	Payload string
}

// inlineRows builds an inline keyboard from rows of btn.
func inlineRows(rows ...[]btn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, b := range row {
			if b.Payload != "" {
				r[j] = *markup.Data(b.Text, b.Unique, b.Payload).Inline()
			} else {
				r[j] = *markup.Data(b.Text, b.Unique).Inline()
			}
		}
		inline[i] = r
	}
	markup.InlineKeyboard = inline
	return markup
}

// chunkRows splits a flat button list into rows with up to n buttons per row.
func chunkRows(buttons []btn, n int) [][]btn {
	if n <= 1 {
		out := make([][]btn, 0, len(buttons))
		for _, b := range buttons {
			out = append(out, []btn{b})
		}
		return out
	}
	var rows [][]btn
	for i := 0; i < len(buttons); i += n {
		end := i + n
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}
	return rows
}

var (
	cancelBtn = btn{Text: "❌ Отмена", Unique: actionCancel}
	backBtn   = btn{Text: "⬅️ Назад", Unique: actionHome}
)

func kbMain() *tele.ReplyMarkup {
	return inlineRows(
		[]btn{{Text: "➖ Расход", Unique: actionExpenseAdd}, {Text: "➕ Доход", Unique: actionIncomeAdd}},
		[]btn{{Text: "📊 Мои финансы", Unique: actionSummary}, {Text: "🗂 История", Unique: actionHistory, Payload: "1"}},
		[]btn{{Text: "💱 Курс", Unique: actionRates}, {Text: "🏦 Долги", Unique: actionDebts}},
		[]btn{{Text: "⚙️ Настройки", Unique: actionSettings}, {Text: "🧹 Очистить", Unique: actionClear}},
	)
}

func kbCancel() *tele.ReplyMarkup {
	return inlineRows([]btn{cancelBtn})
}

// GreetingScreen is shown on /start.
func GreetingScreen() Screen {
	return Screen{
		Text:   "Привет! Я *FinTrack*.\nВыбирай действие ниже.",
		Markup: kbMain(),
	}
}

// MainMenuScreen is the idle home screen.
func MainMenuScreen() Screen {
	return Screen{Text: "Главное меню:", Markup: kbMain()}
}

// CancelledScreen confirms a cancelled flow and returns home.
func CancelledScreen() Screen {
	return Screen{Text: "Действие отменено. Главное меню:", Markup: kbMain()}
}

// UnexpectedInputScreen answers stray input; the markup depends on whether a
// flow is in progress.
func UnexpectedInputScreen(inFlow bool) Screen {
	markup := kbMain()
	if inFlow {
		markup = kbCancel()
	}
	return Screen{Text: "Пожалуйста, выберите одну из предложенных опций.", Markup: markup}
}

// PromptScreen asks for free-text input with only a cancel escape.
func PromptScreen(text string) Screen {
	return Screen{Text: text, Markup: kbCancel()}
}

// AmountPromptScreen asks for the transaction amount.
func AmountPromptScreen(kind domain.TxKind) Screen {
	if kind == domain.TxIncome {
		return PromptScreen("Введи сумму дохода (число):")
	}
	return PromptScreen("Введи сумму расхода (число):")
}

// BadAmountScreen re-renders the amount prompt with an error notice.
func BadAmountScreen() Screen {
	return PromptScreen("Некорректная сумма. Введи положительное число.")
}

// AmountFirstScreen guards against category presses while the amount is awaited.
func AmountFirstScreen() Screen {
	return PromptScreen("Сначала введи сумму или нажми Отмена.")
}

// NotePromptScreen asks for an optional note.
func NotePromptScreen() Screen {
	return PromptScreen("Комментарий? (или напиши - для пропуска)")
}

// SummaryScreen renders month totals as three labeled lines, whole units.
func SummaryScreen(s domain.Summary) Screen {
	text := fmt.Sprintf("*Сводка %s*\nДоход: %.0f\nРасход: %.0f\nСвободно: %.0f",
		s.MonthKey, s.Income, s.Expense, s.Free())
	return Screen{Text: text, Markup: kbMain()}
}

// RatesScreen lists tracked quote rates against the base currency.
func RatesScreen(base string, pairs []rates.QuoteRate) Screen {
	lines := []string{fmt.Sprintf("*Курс к %s:*", base)}
	for _, p := range pairs {
		lines = append(lines, fmt.Sprintf("%s → %s: %.4f", base, p.Quote, p.Rate))
	}
	return Screen{Text: strings.Join(lines, "\n"), Markup: kbMain()}
}

// HistoryPageSize is the fixed page size of the history table.
const HistoryPageSize = 8

// HistoryScreen renders one page of the month's transactions as a monospaced
// table with nav buttons.
func HistoryScreen(rows []domain.Transaction, s domain.Summary, page int, hasMore bool) Screen {
	table := FormatTable(rows, s)
	return Screen{Text: Monowrap(table), Markup: kbHistory(page, hasMore)}
}

func kbHistory(page int, hasMore bool) *tele.ReplyMarkup {
	var nav []btn
	if page > 1 {
		nav = append(nav, btn{Text: "◀️", Unique: actionHistory, Payload: strconv.Itoa(page - 1)})
	}
	if hasMore {
		nav = append(nav, btn{Text: "▶️", Unique: actionHistory, Payload: strconv.Itoa(page + 1)})
	} else {
		nav = append(nav, btn{Text: "↻ Обновить", Unique: actionHistory, Payload: strconv.Itoa(page)})
	}
	return inlineRows(nav, []btn{backBtn})
}

// DebtListCap bounds how many open debts render as buttons. No further pages:
// documented behaviour, excess simply is not shown.
const DebtListCap = 10

// DebtsScreen lists open debts as close buttons.
func DebtsScreen(open []domain.Debt) Screen {
	if len(open) > DebtListCap {
		open = open[:DebtListCap]
	}
	var rows [][]btn
	for _, d := range open {
		who := "Я"
		if d.Direction == domain.DebtToMe {
			who = "Мне"
		}
		label := fmt.Sprintf("%s: %s • %.0f %s", who, d.Counterparty, d.Amount, d.Currency)
		rows = append(rows, []btn{{Text: label, Unique: actionDebtClose, Payload: strconv.FormatInt(d.ID, 10)}})
	}
	rows = append(rows, []btn{
		{Text: "➕ Добавить долг", Unique: actionDebtAdd},
		{Text: "📜 Закрытые", Unique: actionDebtsClosed},
	})
	rows = append(rows, []btn{backBtn})
	return Screen{Text: "*Текущие долги:*", Markup: inlineRows(rows...)}
}

// ClosedDebtsScreen lists closed debts as plain text.
func ClosedDebtsScreen(closed []domain.Debt) Screen {
	lines := []string{"*Закрытые долги:*"}
	if len(closed) == 0 {
		lines = append(lines, "Пока пусто.")
	}
	for _, d := range closed {
		who := "Я"
		if d.Direction == domain.DebtToMe {
			who = "Мне"
		}
		lines = append(lines, fmt.Sprintf("%s: %s • %.0f %s", who, d.Counterparty, d.Amount, d.Currency))
	}
	return Screen{
		Text:   strings.Join(lines, "\n"),
		Markup: inlineRows([]btn{{Text: "⬅️ Назад", Unique: actionDebts}}),
	}
}

// DirectionScreen asks who owes whom.
func DirectionScreen() Screen {
	return Screen{
		Text: "Кто кому должен?",
		Markup: inlineRows(
			[]btn{
				{Text: "Мне должны", Unique: actionDirection, Payload: string(domain.DebtToMe)},
				{Text: "Я должен", Unique: actionDirection, Payload: string(domain.DebtFromMe)},
			},
			[]btn{cancelBtn},
		),
	}
}

// CategoryScreen renders the picker for the kind, 3 per row, with skip and cancel.
func CategoryScreen(kind domain.TxKind) Screen {
	items := CategoriesFor(kind)
	buttons := make([]btn, 0, len(items))
	for _, c := range items {
		buttons = append(buttons, btn{Text: c, Unique: actionCategory, Payload: c})
	}
	rows := chunkRows(buttons, 3)
	rows = append(rows, []btn{{Text: "Пропустить", Unique: actionCategory, Payload: CategorySkip}})
	rows = append(rows, []btn{cancelBtn})
	return Screen{Text: "Выбери категорию:", Markup: inlineRows(rows...)}
}

// SettingsScreen shows the current profile settings.
func SettingsScreen(u domain.User) Screen {
	tracked := "—"
	if len(u.Tracked) > 0 {
		tracked = strings.Join(u.Tracked, ", ")
	}
	text := fmt.Sprintf("*Настройки*\nБазовая валюта: %s\nОтслеживаемые: %s", u.BaseCurrency, tracked)
	return Screen{
		Text: text,
		Markup: inlineRows(
			[]btn{{Text: "Базовая валюта", Unique: actionSetBase}},
			[]btn{{Text: "Отслеживаемые валюты (до 5)", Unique: actionSetTracked}},
			[]btn{backBtn},
		),
	}
}

// BaseChoicesScreen offers the base currency picker.
func BaseChoicesScreen() Screen {
	row := make([]btn, 0, len(BaseCurrencyChoices))
	for _, c := range BaseCurrencyChoices {
		row = append(row, btn{Text: c, Unique: actionBase, Payload: c})
	}
	return Screen{Text: "Выбери базовую валюту:", Markup: inlineRows(row, []btn{cancelBtn})}
}

// TrackedScreen renders the toggle grid with checkbox-style marks.
func TrackedScreen(u domain.User) Screen {
	buttons := make([]btn, 0, len(TrackableCurrencies))
	for _, c := range TrackableCurrencies {
		mark := "➕"
		if u.Tracks(c) {
			mark = "✅"
		}
		buttons = append(buttons, btn{Text: mark + " " + c, Unique: actionTrack, Payload: c})
	}
	rows := chunkRows(buttons, 3)
	rows = append(rows, []btn{{Text: "Сохранить", Unique: actionTrackSave}})
	rows = append(rows, []btn{cancelBtn})
	return Screen{Text: "Выбери до 5 валют для отображения курса:", Markup: inlineRows(rows...)}
}

// FormatTable renders transactions as fixed-width columns with a totals footer.
func FormatTable(rows []domain.Transaction, totals domain.Summary) string {
	lines := make([]string, 0, len(rows)+3)
	lines = append(lines, tableLine("Дата", "Категория", "Сумма", "Вал"))
	for _, r := range rows {
		date := truncRunes(r.CreatedAt.UTC().Format("2006-01-02"), 10)
		cat := truncRunes(r.Category, 12)
		lines = append(lines, tableLine(date, cat, GroupThousands(r.Amount), r.Currency))
	}
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("Итого: доход %s | расход %s | свободно %s",
		GroupThousands(totals.Income), GroupThousands(totals.Expense), GroupThousands(totals.Free())))
	return strings.Join(lines, "\n")
}

// tableLine pads by rune count, not bytes, so Cyrillic headers align.
func tableLine(date, cat, amount, ccy string) string {
	return padRight(date, 10) + " " + padRight(cat, 12) + " " + padLeft(amount, 10) + " " + padRight(ccy, 4)
}

// Monowrap wraps every line in an inline code span so clients render the block
// as literal fixed-width text without offering a per-cell copy button.
func Monowrap(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		safe := strings.ReplaceAll(line, "`", "´")
		out = append(out, "`"+safe+"`")
	}
	return strings.Join(out, "\n")
}

// GroupThousands renders a value with no decimals and space-separated
// thousands groups.
func GroupThousands(v float64) string {
	neg := v < 0
	s := strconv.FormatFloat(math.Abs(math.Round(v)), 'f', 0, 64)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
		if len(s) > lead {
			b.WriteByte(' ')
		}
	}
	for i := lead; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func truncRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func padRight(s string, width int) string {
	if pad := width - len([]rune(s)); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}

func padLeft(s string, width int) string {
	if pad := width - len([]rune(s)); pad > 0 {
		return strings.Repeat(" ", pad) + s
	}
	return s
}
