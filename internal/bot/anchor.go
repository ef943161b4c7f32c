package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/Nuarka/FinTrackO/internal/logger"
)

// transport is the slice of the chat API the anchor controller needs.
// *tele.Bot satisfies it.
type transport interface {
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
}

// AnchorStore persists the per-user anchor message reference.
// Implemented by storage.Users.
type AnchorStore interface {
	Anchor(ctx context.Context, userID int64) (*int, error)
	SetAnchor(ctx context.Context, userID int64, msgID int) error
}

// editOutcome classifies an anchor edit attempt. Anything except editOK and
// editNotModified triggers the send-new fallback.
type editOutcome int

const (
	editOK editOutcome = iota
	editNotModified
	editNotFound
	editForbidden
	editRateLimited
	editFailed
)

func classifyEdit(err error) editOutcome {
	if err == nil {
		return editOK
	}
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return editRateLimited
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		desc := strings.ToLower(apiErr.Description)
		switch {
		case strings.Contains(desc, "message is not modified"):
			return editNotModified
		case strings.Contains(desc, "message to edit not found"):
			return editNotFound
		case apiErr.Code == 403:
			return editForbidden
		}
	}
	return editFailed
}

func (o editOutcome) String() string {
	switch o {
	case editOK:
		return "ok"
	case editNotModified:
		return "not_modified"
	case editNotFound:
		return "not_found"
	case editForbidden:
		return "forbidden"
	case editRateLimited:
		return "rate_limited"
	default:
		return "failed"
	}
}

// Anchor owns the one-visible-message-per-user invariant: every screen change
// goes through Render, which edits the referenced message in place and falls
// back to sending a fresh one when the edit cannot succeed.
type Anchor struct {
	tp    transport
	store AnchorStore
}

// NewAnchor builds the controller.
func NewAnchor(tp transport, store AnchorStore) *Anchor {
	return &Anchor{tp: tp, store: store}
}

// Render delivers the screen to the user. Storage errors propagate; transport
// edit failures are recovered by re-anchoring and stay invisible to the user.
func (a *Anchor) Render(ctx context.Context, userID, chatID int64, screen Screen) error {
	anchorID, err := a.store.Anchor(ctx, userID)
	if err != nil {
		return err
	}

	if anchorID != nil {
		stored := tele.StoredMessage{MessageID: strconv.Itoa(*anchorID), ChatID: chatID}
		_, editErr := a.tp.Edit(stored, screen.Text, screen.sendOptions())
		outcome := classifyEdit(editErr)
		switch outcome {
		case editOK, editNotModified:
			return nil
		default:
			logger.TG.Debug("anchor edit fallback",
				slog.String("event", "anchor.fallback"),
				slog.Int64("user_id", userID),
				slog.Int("anchor_id", *anchorID),
				slog.String("outcome", outcome.String()),
			)
		}
	}

	msg, err := a.tp.Send(tele.ChatID(chatID), screen.Text, screen.sendOptions())
	if err != nil {
		return fmt.Errorf("anchor send: %w", err)
	}
	if err := a.store.SetAnchor(ctx, userID, msg.ID); err != nil {
		return err
	}
	return nil
}

// Discard deletes an input message best-effort. Failures are swallowed: the
// message may already be gone or the bot may lack delete permission.
func (a *Anchor) Discard(msg tele.Editable) {
	if msg == nil {
		return
	}
	if err := a.tp.Delete(msg); err != nil {
		logger.TG.Debug("discard failed",
			slog.String("event", "anchor.discard"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 128)),
		)
	}
}
