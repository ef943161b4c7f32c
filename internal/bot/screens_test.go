package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nuarka/FinTrackO/internal/domain"
	"github.com/Nuarka/FinTrackO/internal/rates"
)

func TestGroupThousands(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{950, "950"},
		{1000, "1 000"},
		{1234567, "1 234 567"},
		{-45000, "-45 000"},
		{999.6, "1 000"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GroupThousands(tt.in), "input %v", tt.in)
	}
}

func TestMonowrap(t *testing.T) {
	got := Monowrap("a\nb`c")
	assert.Equal(t, "`a`\n`b´c`", got)
}

func TestFormatTableAlignment(t *testing.T) {
	rows := []domain.Transaction{
		{
			Kind:      domain.TxExpense,
			Amount:    12500,
			Currency:  "KZT",
			Category:  "Очень длинная категория",
			CreatedAt: time.Date(2026, 8, 12, 10, 0, 0, 0, time.UTC),
		},
	}
	totals := domain.Summary{MonthKey: "2026-08", Income: 100000, Expense: 12500}

	out := FormatTable(rows, totals)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4)

	// Header and data lines share the same rune width.
	header := []rune(lines[0])
	data := []rune(lines[1])
	assert.Equal(t, len(header), len(data))

	assert.Contains(t, lines[1], "2026-08-12")
	assert.Contains(t, lines[1], "Очень длинн", "category truncated to 12 runes")
	assert.NotContains(t, lines[1], "категория")
	assert.Contains(t, lines[1], "12 500")
	assert.Equal(t, "Итого: доход 100 000 | расход 12 500 | свободно 87 500", lines[3])
}

func TestHistoryKeyboardNav(t *testing.T) {
	flatten := func(page int, hasMore bool) []string {
		kb := kbHistory(page, hasMore)
		var out []string
		for _, row := range kb.InlineKeyboard {
			for _, b := range row {
				out = append(out, b.Text)
			}
		}
		return out
	}

	assert.Equal(t, []string{"▶️", "⬅️ Назад"}, flatten(1, true))
	assert.Equal(t, []string{"◀️", "▶️", "⬅️ Назад"}, flatten(2, true))
	assert.Equal(t, []string{"◀️", "↻ Обновить", "⬅️ Назад"}, flatten(3, false),
		"a page past the data keeps back and refresh available")
	assert.Equal(t, []string{"↻ Обновить", "⬅️ Назад"}, flatten(1, false))
}

func TestDebtsScreenCapsButtons(t *testing.T) {
	open := make([]domain.Debt, 0, 12)
	for i := 0; i < 12; i++ {
		open = append(open, domain.Debt{
			ID:           int64(i + 1),
			Direction:    domain.DebtToMe,
			Counterparty: "К",
			Amount:       100,
			Currency:     "KZT",
			Status:       domain.DebtOpen,
		})
	}
	s := DebtsScreen(open)
	// 10 debt rows plus the add/closed row plus the back row.
	assert.Len(t, s.Markup.InlineKeyboard, DebtListCap+2)
}

func TestDebtsScreenLabels(t *testing.T) {
	s := DebtsScreen([]domain.Debt{
		{ID: 1, Direction: domain.DebtToMe, Counterparty: "Аскар", Amount: 5000, Currency: "KZT"},
		{ID: 2, Direction: domain.DebtFromMe, Counterparty: "Банк", Amount: 120000, Currency: "KZT"},
	})
	require.GreaterOrEqual(t, len(s.Markup.InlineKeyboard), 2)
	assert.Equal(t, "Мне: Аскар • 5000 KZT", s.Markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "Я: Банк • 120000 KZT", s.Markup.InlineKeyboard[1][0].Text)
}

func TestCategoryScreenLayout(t *testing.T) {
	s := CategoryScreen(domain.TxExpense)
	rows := s.Markup.InlineKeyboard

	// 9 categories in rows of 3, then skip, then cancel.
	require.Len(t, rows, 5)
	for _, row := range rows[:3] {
		assert.Len(t, row, 3)
	}
	assert.Equal(t, "Пропустить", rows[3][0].Text)
	assert.Equal(t, "❌ Отмена", rows[4][0].Text)
}

func TestTrackedScreenMarks(t *testing.T) {
	u := domain.User{Tracked: []string{"USD", "BTC"}}
	s := TrackedScreen(u)

	var marks []string
	for _, row := range s.Markup.InlineKeyboard {
		for _, b := range row {
			marks = append(marks, b.Text)
		}
	}
	assert.Contains(t, marks, "✅ USD")
	assert.Contains(t, marks, "✅ BTC")
	assert.Contains(t, marks, "➕ RUB")
}

func TestRatesScreenText(t *testing.T) {
	s := RatesScreen("KZT", []rates.QuoteRate{
		{Quote: "USD", Rate: 0.0021},
		{Quote: "RUB", Rate: 0.19},
	})
	assert.Equal(t, "*Курс к KZT:*\nKZT → USD: 0.0021\nKZT → RUB: 0.1900", s.Text)
}

func TestSummaryScreenText(t *testing.T) {
	s := SummaryScreen(domain.Summary{MonthKey: "2026-08", Income: 300000, Expense: 120000})
	assert.Equal(t, "*Сводка 2026-08*\nДоход: 300000\nРасход: 120000\nСвободно: 180000", s.Text)
}

func TestChunkRows(t *testing.T) {
	buttons := []btn{{Text: "a"}, {Text: "b"}, {Text: "c"}, {Text: "d"}}
	rows := chunkRows(buttons, 3)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 3)
	assert.Len(t, rows[1], 1)
}
