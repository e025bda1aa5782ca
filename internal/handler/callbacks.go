package handler

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"socialdl/internal/domain"
	"socialdl/internal/messages"
)

// legacyPlatformPrefix is the callback data of menus sent by older versions
const legacyPlatformPrefix = "download_"

// cleanCallbackData removes all non-printable characters from callback data
func cleanCallbackData(data string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, strings.TrimSpace(data))
}

// platformFromCallback reads the platform of a select_platform button,
// accepting the download_<platform> payload of older menus
func platformFromCallback(data string) (domain.Platform, bool) {
	data = strings.TrimPrefix(cleanCallbackData(data), legacyPlatformPrefix)
	return domain.ParsePlatform(data)
}

// gated runs next only for users that satisfy the mandatory subscriptions
func (h *Handler) gated(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ok, unmet := h.gate.Check(context.Background(), c.Sender().ID)
		if ok {
			return next(c)
		}
		h.logger.Info("Subscription required",
			zap.Int64("user_id", c.Sender().ID),
			zap.Int("channels", len(unmet)),
		)
		return h.showSubscribe(c, unmet)
	}
}

func (h *Handler) showSubscribe(c tele.Context, unmet []domain.LockedChannel) error {
	text := messages.Subscribe(unmet)
	markup := subscribeMarkup(unmet)

	if c.Callback() != nil {
		if err := c.Edit(text, markup, tele.ModeHTML, tele.NoPreview); err != nil {
			if handleErr := h.handleEditError(err, c, c.Sender().ID); handleErr == nil {
				return nil
			}
			return c.Send(text, markup, tele.ModeHTML, tele.NoPreview)
		}
		return c.Respond(&tele.CallbackResponse{Text: messages.NotSubscribedYet})
	}
	return c.Send(text, markup, tele.ModeHTML, tele.NoPreview)
}

// handleEditError handles errors from c.Edit() - if message is not modified, just acknowledge callback
// Otherwise, acknowledge callback and return error so caller can send new message
func (h *Handler) handleEditError(err error, c tele.Context, userID int64) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, tele.ErrMessageNotModified) {
		h.logger.Debug("Message already up to date, acknowledging",
			zap.Int64("user_id", userID),
		)
		_ = c.Respond()
		return nil
	}

	h.logger.Warn("Failed to edit message, sending new",
		zap.Error(err),
		zap.Int64("user_id", userID),
	)
	if ackErr := c.Respond(); ackErr != nil {
		h.logger.Warn("Failed to acknowledge callback", zap.Error(ackErr))
	}
	return err
}

// editOrSend replaces the button message, falling back to a new message
func (h *Handler) editOrSend(c tele.Context, text string, opts ...interface{}) error {
	if err := c.Edit(text, opts...); err != nil {
		if handleErr := h.handleEditError(err, c, c.Sender().ID); handleErr == nil {
			return nil
		}
		return c.Send(text, opts...)
	}
	return c.Respond()
}

// handleCallback handles callbacks without a registered unique, including
// buttons from menus sent before the current keyboard layout
func (h *Handler) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		h.logger.Warn("handleCallback: callback is nil")
		return nil
	}

	data := cleanCallbackData(callback.Data)
	h.logger.Debug("Processing callback",
		zap.String("data", data),
		zap.String("unique", callback.Unique),
		zap.Int64("user_id", c.Sender().ID),
	)

	switch {
	case callback.Unique == btnCheckSubscription.Unique, data == btnCheckSubscription.Unique:
		return h.handleCheckSubscription(c)
	case callback.Unique == btnSelectPlatform.Unique:
		return h.gated(h.handleSelectPlatform)(c)
	case strings.HasPrefix(data, legacyPlatformPrefix):
		return h.gated(h.handleSelectPlatform)(c)
	}

	h.logger.Warn("Unhandled callback",
		zap.String("data", data),
		zap.String("unique", callback.Unique),
	)
	return c.Respond()
}

// handleSelectPlatform moves the user to awaiting_link(p)
func (h *Handler) handleSelectPlatform(c tele.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	p, ok := platformFromCallback(c.Callback().Data)
	if !ok {
		h.logger.Warn("Unknown platform selected",
			zap.String("data", c.Callback().Data),
			zap.Int64("user_id", userID),
		)
		return c.Respond(&tele.CallbackResponse{Text: messages.GenericError})
	}

	if !h.settings.PlatformEnabled(ctx, p) {
		return c.Respond(&tele.CallbackResponse{Text: messages.PlatformDisabled(p), ShowAlert: true})
	}

	if err := h.users.SetState(ctx, userID, domain.AwaitingLink(p)); err != nil {
		h.logger.Error("Failed to set state",
			zap.Int64("user_id", userID),
			zap.String("platform", string(p)),
			zap.Error(err),
		)
		return c.Respond(&tele.CallbackResponse{Text: messages.GenericError})
	}

	return h.editOrSend(c, messages.LinkPrompt(p))
}

// handleCheckSubscription re-runs the gate after the user claims to have joined
func (h *Handler) handleCheckSubscription(c tele.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	ok, unmet := h.gate.Check(ctx, userID)
	if !ok {
		return h.showSubscribe(c, unmet)
	}

	h.resetState(ctx, userID)

	platforms := h.settings.EnabledPlatforms(ctx)
	if len(platforms) == 0 {
		return h.editOrSend(c, messages.NoPlatforms)
	}
	return h.editOrSend(c, messages.MenuPrompt, mainMenuMarkup(platforms), tele.ModeHTML)
}
