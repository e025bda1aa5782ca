package handler

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"socialdl/internal/domain"
	"socialdl/internal/messages"
)

// handleStart handles /start command
func (h *Handler) handleStart(c tele.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	h.logger.Info("User started bot",
		zap.Int64("user_id", userID),
		zap.String("username", c.Sender().Username),
	)

	h.resetState(ctx, userID)
	return h.sendMenu(ctx, c, messages.Welcome(c.Sender().FirstName))
}

// handleMenu handles /menu command
func (h *Handler) handleMenu(c tele.Context) error {
	ctx := context.Background()
	h.resetState(ctx, c.Sender().ID)
	return h.sendMenu(ctx, c, messages.MenuPrompt)
}

func (h *Handler) resetState(ctx context.Context, userID int64) {
	if err := h.users.ResetState(ctx, userID); err != nil {
		h.logger.Error("Failed to reset state", zap.Int64("user_id", userID), zap.Error(err))
	}
}

func (h *Handler) sendMenu(ctx context.Context, c tele.Context, text string) error {
	platforms := h.settings.EnabledPlatforms(ctx)
	if len(platforms) == 0 {
		return c.Send(messages.NoPlatforms)
	}
	return c.Send(text, mainMenuMarkup(platforms), tele.ModeHTML)
}

// mainMenuMarkup returns one button per enabled platform
func mainMenuMarkup(platforms []domain.Platform) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(platforms))
	for _, p := range platforms {
		rows = append(rows, menu.Row(menu.Data(messages.PlatformButton(p), btnSelectPlatform.Unique, string(p))))
	}
	menu.Inline(rows...)
	return menu
}

// subscribeMarkup returns join links plus the check button
func subscribeMarkup(channels []domain.LockedChannel) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	var rows []tele.Row
	for _, ch := range channels {
		link := messages.ChannelLink(ch)
		if link == "" {
			continue
		}
		rows = append(rows, menu.Row(menu.URL(
			fmt.Sprintf(messages.BtnJoinChannel, messages.ChannelName(ch)),
			link,
		)))
	}
	rows = append(rows, menu.Row(menu.Data(messages.BtnCheckSubscription, btnCheckSubscription.Unique)))
	menu.Inline(rows...)
	return menu
}
