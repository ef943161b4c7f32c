package bot

import "github.com/Nuarka/FinTrackO/internal/domain"

// ExpenseCategories offered in the category picker for expenses.
var ExpenseCategories = []string{
	"Продукты", "Транспорт", "Коммуналка", "Связь", "Образование",
	"Здоровье", "Одежда", "Развлечения", "Прочее",
}

// IncomeCategories offered in the category picker for income.
var IncomeCategories = []string{
	"Работа", "Фриланс", "Подарок", "Прочее",
}

// DefaultCategory is the catch-all used when the user skips the picker.
const DefaultCategory = "Прочее"

// CategorySkip is the sentinel payload of the skip button.
const CategorySkip = "__skip__"

// CategoriesFor returns the picker list for a transaction kind.
func CategoriesFor(kind domain.TxKind) []string {
	if kind == domain.TxIncome {
		return IncomeCategories
	}
	return ExpenseCategories
}

// BaseCurrencyChoices offered in the base currency picker.
var BaseCurrencyChoices = []string{"KZT", "USD", "RUB", "EUR", "USDT"}

// TrackableCurrencies offered in the tracked-set toggle grid.
var TrackableCurrencies = []string{"USD", "RUB", "EUR", "CNY", "GBP", "USDT", "BTC"}
