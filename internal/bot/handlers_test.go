package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

func TestToggleTrackedAddsAndRemoves(t *testing.T) {
	next, ok := ToggleTracked([]string{"USD", "RUB"}, "EUR")
	assert.True(t, ok)
	assert.Equal(t, []string{"USD", "RUB", "EUR"}, next)

	next, ok = ToggleTracked(next, "RUB")
	assert.True(t, ok)
	assert.Equal(t, []string{"USD", "EUR"}, next, "removal keeps order of the rest")
}

func TestToggleTrackedRejectsSixth(t *testing.T) {
	full := []string{"USD", "RUB", "EUR", "CNY", "GBP"}
	next, ok := ToggleTracked(full, "BTC")
	assert.False(t, ok)
	assert.Equal(t, full, next, "rejected toggle must not mutate the set")
}

func TestToggleTrackedRemovalAtCap(t *testing.T) {
	full := []string{"USD", "RUB", "EUR", "CNY", "GBP"}
	next, ok := ToggleTracked(full, "CNY")
	assert.True(t, ok, "removing from a full set is always allowed")
	assert.Equal(t, []string{"USD", "RUB", "EUR", "GBP"}, next)
}

func TestToggleTrackedDoesNotShareBackingArray(t *testing.T) {
	orig := []string{"USD", "RUB"}
	next, ok := ToggleTracked(orig, "USD")
	assert.True(t, ok)
	next[0] = "XXX"
	assert.Equal(t, []string{"USD", "RUB"}, orig)
}

func TestParseCallback(t *testing.T) {
	key, payload := parseCallback(nil)
	assert.Empty(t, key)
	assert.Empty(t, payload)

	// Raw \f-encoded data as delivered by Telegram.
	key, payload = parseCallback(&tele.Callback{Data: "\fhistory|2"})
	assert.Equal(t, "history", key)
	assert.Equal(t, "2", payload)

	key, payload = parseCallback(&tele.Callback{Data: "\fhome"})
	assert.Equal(t, "home", key)
	assert.Empty(t, payload)

	// Unique pre-parsed by telebot wins over raw data.
	key, payload = parseCallback(&tele.Callback{Unique: "cat", Data: "Еда"})
	assert.Equal(t, "cat", key)
	assert.Equal(t, "Еда", payload)
}
