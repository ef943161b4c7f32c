package bot

import (
	"log/slog"
	"runtime/debug"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/Nuarka/FinTrackO/internal/logger"
)

// recoverMiddleware catches panics in handlers and prevents the bot from crashing.
func recoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				logger.TG.Error("panic recovered",
					slog.Any("err", r),
					slog.String("event", "tg.panic"),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		return next(c)
	}
}

// loggerMiddleware logs one line per processed update with its outcome.
func loggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		err := next(c)

		attrs := []slog.Attr{
			slog.String("status", logger.Status(err)),
			slog.Int("update_id", c.Update().ID),
			slog.Duration("took", logger.RoundMS(time.Since(start))),
		}
		if u := c.Sender(); u != nil {
			attrs = append(attrs, slog.Int64("user_id", u.ID))
		}
		switch {
		case c.Callback() != nil:
			key, payload := parseCallback(c.Callback())
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 64)))
			if payload != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 128)))
			}
		case c.Message() != nil:
			if t := c.Text(); t != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 128)))
			}
		}
		if err != nil {
			attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
			logger.TG.LogAttrs(reqContext(c), slog.LevelError, "update failed", attrs...)
			return err
		}
		logger.TG.LogAttrs(reqContext(c), slog.LevelDebug, "update handled", attrs...)
		return nil
	}
}
