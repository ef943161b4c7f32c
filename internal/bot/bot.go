package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/Nuarka/FinTrackO/internal/config"
	"github.com/Nuarka/FinTrackO/internal/logger"
	"github.com/Nuarka/FinTrackO/internal/rates"
	"github.com/Nuarka/FinTrackO/internal/storage"
)

// Bot wires the Telegram transport, storage, and rate provider together and
// owns handler registration.
type Bot struct {
	tb      *tele.Bot
	store   *storage.Store
	rates   *rates.Provider
	states  *StateStore
	anchor  *Anchor
	actions map[string]callbackHandler
}

// New builds the bot and registers all routes.
func New(cfg *config.Config, store *storage.Store, provider *rates.Provider) (*Bot, error) {
	timeoutSec := cfg.Telegram.LongPollTimeoutSeconds
	if timeoutSec <= 0 {
		timeoutSec = 10
	}

	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tele.LongPoller{Timeout: time.Duration(timeoutSec) * time.Second},
		Client: buildHTTPClient(),
		OnError: func(err error, c tele.Context) {
			attrs := []slog.Attr{
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			}
			if c != nil && c.Sender() != nil {
				attrs = append(attrs, slog.Int64("user_id", c.Sender().ID))
			}
			logger.TG.LogAttrs(context.Background(), slog.LevelError, "handler error", attrs...)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram init: %w", err)
	}

	b := &Bot{
		tb:     tb,
		store:  store,
		rates:  provider,
		states: NewStateStore(DefaultDraftTTL),
	}
	b.anchor = NewAnchor(tb, store.Users)
	b.registerRoutes()
	return b, nil
}

func (b *Bot) registerRoutes() {
	b.actions = map[string]callbackHandler{
		actionClear:       b.onClear,
		actionSummary:     b.onSummary,
		actionRates:       b.onRates,
		actionHistory:     b.onHistory,
		actionExpenseAdd:  b.onExpenseAdd,
		actionIncomeAdd:   b.onIncomeAdd,
		actionCategory:    b.onCategory,
		actionDebts:       b.onDebts,
		actionDebtAdd:     b.onDebtAdd,
		actionDirection:   b.onDirection,
		actionDebtClose:   b.onDebtClose,
		actionDebtsClosed: b.onDebtsClosed,
		actionSettings:    b.onSettings,
		actionSetBase:     b.onSetBase,
		actionBase:        b.onBase,
		actionSetTracked:  b.onSetTracked,
		actionTrack:       b.onTrack,
		actionTrackSave:   b.onTrackSave,
	}

	b.tb.Use(recoverMiddleware, loggerMiddleware)
	b.tb.Handle("/start", b.onStart)
	b.tb.Handle(tele.OnCallback, b.routeCallback)
	b.tb.Handle(tele.OnText, b.routeText)
}

// Run starts long polling and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	logger.TG.Info("bot starting",
		slog.String("event", "tg.start"),
		slog.String("username", b.tb.Me.Username),
	)

	done := make(chan struct{})
	go func() {
		b.tb.Start()
		close(done)
	}()

	select {
	case <-ctx.Done():
		b.tb.Stop()
		<-done
	case <-done:
	}

	logger.TG.Info("bot stopped", slog.String("event", "tg.stop"))
	return nil
}
