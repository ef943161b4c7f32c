package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/Nuarka/FinTrackO/internal/database"
)

// TelegramConfig holds bot transport settings.
type TelegramConfig struct {
	Token string `yaml:"token" envconfig:"BOT_TOKEN"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// HealthConfig configures the liveness HTTP endpoint.
type HealthConfig struct {
	Listen string `yaml:"listen" envconfig:"HEALTH_LISTEN"`
	Port   int    `yaml:"port" envconfig:"PORT"`
}

// FinanceConfig carries domain defaults applied to new users.
type FinanceConfig struct {
	BaseCurrency   string   `yaml:"base_ccy" envconfig:"BASE_CCY"`
	DefaultTracked []string `yaml:"default_tracked" envconfig:"SUPPORTED_CCY"`
	Timezone       string   `yaml:"timezone" envconfig:"FIN_TIMEZONE"`
}

// Config aggregates the whole application configuration.
type Config struct {
	Telegram TelegramConfig  `yaml:"telegram"`
	Database database.Config `yaml:"database"`
	Logging  LoggingConfig   `yaml:"logging"`
	Health   HealthConfig    `yaml:"health"`
	Finance  FinanceConfig   `yaml:"finance"`
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if cfg.Telegram.LongPollTimeoutSeconds < 0 {
		return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
	}

	if cfg.Health.Listen == "" {
		cfg.Health.Listen = "0.0.0.0"
	}
	if cfg.Health.Port <= 0 {
		cfg.Health.Port = 10000
	}

	if cfg.Finance.BaseCurrency == "" {
		cfg.Finance.BaseCurrency = "KZT"
	}
	cfg.Finance.BaseCurrency = strings.ToUpper(strings.TrimSpace(cfg.Finance.BaseCurrency))
	if !validCurrency(cfg.Finance.BaseCurrency) {
		return fmt.Errorf("invalid finance.base_ccy %q", cfg.Finance.BaseCurrency)
	}

	if len(cfg.Finance.DefaultTracked) == 0 {
		cfg.Finance.DefaultTracked = []string{"USD", "RUB"}
	}
	tracked := cfg.Finance.DefaultTracked[:0]
	for _, c := range cfg.Finance.DefaultTracked {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if !validCurrency(c) {
			return fmt.Errorf("invalid finance.default_tracked value %q", c)
		}
		tracked = append(tracked, c)
	}
	if len(tracked) > 5 {
		tracked = tracked[:5]
	}
	cfg.Finance.DefaultTracked = tracked

	if cfg.Finance.Timezone == "" {
		cfg.Finance.Timezone = "Asia/Almaty"
	}

	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConnections <= 0 {
		cfg.Database.MaxConnections = 4
	}

	return nil
}

// validCurrency accepts 3-5 letter uppercase currency codes.
func validCurrency(code string) bool {
	if len(code) < 3 || len(code) > 5 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
