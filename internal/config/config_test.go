package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
database:
  host: localhost
  port: "5432"
  user: fintrack
  password: secret
  name: fintrack
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "KZT", cfg.Finance.BaseCurrency)
	assert.Equal(t, []string{"USD", "RUB"}, cfg.Finance.DefaultTracked)
	assert.Equal(t, "Asia/Almaty", cfg.Finance.Timezone)
	assert.Equal(t, "0.0.0.0", cfg.Health.Listen)
	assert.Equal(t, 10000, cfg.Health.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
}

func TestLoadMissingToken(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestNormalizeUppercasesCurrencies(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "t"
	cfg.Finance.BaseCurrency = " kzt "
	cfg.Finance.DefaultTracked = []string{"usd", " rub "}

	require.NoError(t, Normalize(cfg))
	assert.Equal(t, "KZT", cfg.Finance.BaseCurrency)
	assert.Equal(t, []string{"USD", "RUB"}, cfg.Finance.DefaultTracked)
}

func TestNormalizeRejectsBadCurrency(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "t"
	cfg.Finance.BaseCurrency = "K1"

	assert.Error(t, Normalize(cfg))
}

func TestNormalizeCapsTracked(t *testing.T) {
	cfg := &Config{}
	cfg.Telegram.Token = "t"
	cfg.Finance.DefaultTracked = []string{"USD", "RUB", "EUR", "CNY", "GBP", "BTC"}

	require.NoError(t, Normalize(cfg))
	assert.Len(t, cfg.Finance.DefaultTracked, 5)
}

func TestValidCurrency(t *testing.T) {
	assert.True(t, validCurrency("KZT"))
	assert.True(t, validCurrency("USDT"))
	assert.False(t, validCurrency("kz"))
	assert.False(t, validCurrency("TOOLONG"))
	assert.False(t, validCurrency("US1"))
}
