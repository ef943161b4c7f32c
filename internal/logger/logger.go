package logger

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
)

// Component loggers default to slog.Default until Init rewires them, so code
// paths exercised before Init (tests included) never hit a nil logger.
var (
	initOnce sync.Once

	// L is the base application logger.
	L = slog.Default()

	// DB logs database events.
	DB = L.With("component", "db")
	// TG logs Telegram transport events.
	TG = L.With("component", "tg")
	// MIG logs database migration events.
	MIG = L.With("component", "db.migrate")
	// FX logs currency rate provider events.
	FX = L.With("component", "fx")
	// BOT logs conversation flow events.
	BOT = L.With("component", "bot")
)

// Options select output level and format for Init.
type Options struct {
	Level   string
	Format  string
	Profile string
}

// Init configures the global structured logger. It may be called only once;
// repeated calls are no-ops.
func Init(opts Options) {
	initOnce.Do(func() {
		handler := buildHandler(opts)
		L = slog.New(handler)
		slog.SetDefault(L)
		wireComponents()

		L.With("component", "app").Info("startup",
			slog.String("event", "startup"),
			slog.String("go_version", runtime.Version()),
			slog.String("profile", selectProfile(opts)),
		)
	})
}

func buildHandler(opts Options) slog.Handler {
	ho := &slog.HandlerOptions{Level: selectLevel(opts.Level)}
	switch selectFormat(opts) {
	case "text":
		return slog.NewTextHandler(os.Stdout, ho)
	default:
		return slog.NewJSONHandler(os.Stdout, ho)
	}
}

func wireComponents() {
	DB = L.With("component", "db")
	TG = L.With("component", "tg")
	MIG = L.With("component", "db.migrate")
	FX = L.With("component", "fx")
	BOT = L.With("component", "bot")
}

// Component constructs a logger scoped to the provided component attribute.
func Component(name string) *slog.Logger {
	base := L
	if base == nil {
		base = slog.Default()
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return base
	}
	return base.With("component", trimmed)
}

func selectLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func selectFormat(opts Options) string {
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "text", "kv", "pretty":
		return "text"
	case "json":
		return "json"
	}
	// Prefer human-friendly format when profile indicates debug/dev mode.
	if strings.EqualFold(opts.Profile, "debug") || strings.EqualFold(opts.Profile, "dev") {
		return "text"
	}
	return "json"
}

func selectProfile(opts Options) string {
	if p := strings.TrimSpace(opts.Profile); p != "" {
		return strings.ToLower(p)
	}
	return "prod"
}

// Background returns context.Background(), kept for symmetry at call sites.
func Background() context.Context {
	return context.Background()
}
