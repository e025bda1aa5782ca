package handler

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"socialdl/internal/delivery"
	"socialdl/internal/domain"
	"socialdl/internal/messages"
	"socialdl/internal/middleware"
)

const tooLargeReason = "file exceeds Telegram's 2 GB limit"

// handleText handles free text: links start a download, anything else is re-prompted
func (h *Handler) handleText(c tele.Context) error {
	ctx := context.Background()
	userID := c.Sender().ID

	link := strings.TrimSpace(c.Text())
	if err := validateLink(link); err != nil {
		return c.Send(messages.InvalidURL)
	}

	state := h.users.TakeState(ctx, userID)
	platform := resolvePlatform(state, link)

	if !h.settings.PlatformEnabled(ctx, platform) {
		h.logger.Info("Link for disabled platform",
			zap.Int64("user_id", userID),
			zap.String("platform", string(platform)),
		)
		return c.Send(messages.PlatformDisabled(platform))
	}

	return h.download(ctx, c, platform, link)
}

// validateLink accepts absolute http(s) URLs only. The scheme must be lower case.
func validateLink(text string) error {
	if !strings.HasPrefix(text, "http://") && !strings.HasPrefix(text, "https://") {
		return domain.ErrInvalidURL
	}
	u, err := url.Parse(text)
	if err != nil || u.Host == "" {
		return domain.ErrInvalidURL
	}
	return nil
}

// resolvePlatform picks the awaited platform, sniffing the URL when idle or generic
func resolvePlatform(state domain.State, link string) domain.Platform {
	if p, ok := state.AwaitedPlatform(); ok && p != domain.PlatformGeneric {
		return p
	}
	return domain.DetectPlatform(link)
}

// download runs fetch and delivery for one link, logging every stage once
func (h *Handler) download(ctx context.Context, c tele.Context, platform domain.Platform, link string) error {
	userID := c.Sender().ID
	entry := domain.DownloadLogEntry{
		UserID:         internalUserID(c),
		TelegramUserID: userID,
		Platform:       platform,
		URL:            link,
	}

	processing, err := h.bot.Send(c.Recipient(), messages.Processing)
	if err != nil {
		if delivery.Classify(err).Kind == domain.DeliveryBlocked {
			h.users.MarkBlocked(ctx, userID)
			return nil
		}
		h.logger.Warn("Failed to send processing message", zap.Int64("user_id", userID), zap.Error(err))
	}

	h.logs.Record(ctx, withStatus(entry, domain.DownloadStatusPending))

	h.logger.Info("Download started",
		zap.Int64("user_id", userID),
		zap.String("platform", string(platform)),
		zap.String("url", link),
	)

	result := h.downloads.Fetch(ctx, link, h.policy)
	h.recordFetched(ctx, entry, result)

	switch r := result.(type) {
	case domain.FailureResult:
		return h.finish(c, processing, messages.Failure(r.Message))
	case domain.TooLargeResult:
		h.pipeline.Deliver(ctx, c.Chat().ID, result)
		return h.finish(c, processing, messages.TooLarge)
	}

	out := h.pipeline.Deliver(ctx, c.Chat().ID, result)
	h.recordDelivered(ctx, entry, result, out)

	h.logger.Info("Download finished",
		zap.Int64("user_id", userID),
		zap.String("url", link),
		zap.String("status", out.Status().String()),
		zap.Int("sent", len(out.Sent)),
		zap.Int("failed", len(out.Failed)),
		zap.Int("skipped", len(out.Skipped)),
	)

	if out.Blocked() {
		h.users.MarkBlocked(ctx, userID)
		return nil
	}

	switch out.Status() {
	case delivery.StatusDelivered:
		if processing != nil {
			if err := h.bot.Delete(processing); err != nil {
				h.logger.Debug("Failed to delete processing message", zap.Error(err))
			}
		}
		return nil
	case delivery.StatusPartial:
		return h.finish(c, processing, messages.AlbumPartial(len(out.Sent), len(result.Files())))
	default:
		if len(out.Failed) == 0 && len(out.Skipped) > 0 {
			return h.finish(c, processing, messages.TooLarge)
		}
		return h.finish(c, processing, messages.DeliveryFailure(out.FirstError()))
	}
}

// finish replaces the processing message with text, or sends text when there is none
func (h *Handler) finish(c tele.Context, processing *tele.Message, text string) error {
	if processing != nil {
		_, err := h.bot.Edit(processing, text, tele.ModeHTML)
		if err == nil {
			return nil
		}
		h.logger.Debug("Failed to edit processing message", zap.Error(err))
	}
	return c.Send(text, tele.ModeHTML)
}

// recordFetched logs the outcome of extraction
func (h *Handler) recordFetched(ctx context.Context, entry domain.DownloadLogEntry, result domain.DownloadResult) {
	switch r := result.(type) {
	case domain.SingleResult:
		h.logs.Record(ctx, withFile(withStatus(entry, domain.DownloadStatusCompleted), r.File))
	case domain.AlbumResult:
		e := withStatus(entry, domain.DownloadStatusAlbum)
		size := domain.TotalSize(r)
		e.FileSize = &size
		h.logs.Record(ctx, e)
	case domain.TooLargeResult:
		e := withStatus(entry, domain.DownloadStatusTooLarge)
		size := domain.TotalSize(r)
		e.FileSize = &size
		h.logs.Record(ctx, withError(e, tooLargeReason))
	case domain.FailureResult:
		h.logs.Record(ctx, withError(withStatus(entry, domain.DownloadStatusFailed), r.Message))
	}
}

// recordDelivered logs one row for the delivered files and one per file left behind
func (h *Handler) recordDelivered(ctx context.Context, entry domain.DownloadLogEntry, result domain.DownloadResult, out delivery.Outcome) {
	if len(out.Sent) > 0 {
		e := withStatus(entry, domain.DownloadStatusFileSent)
		if single, ok := result.(domain.SingleResult); ok {
			e = withFile(e, single.File)
		} else {
			var size int64
			for _, f := range out.Sent {
				size += f.Size
			}
			e.FileSize = &size
		}
		h.logs.Record(ctx, e)
	}

	for _, f := range out.Failed {
		status := domain.DownloadStatusFailed
		if _, single := result.(domain.SingleResult); single && f.Err != nil && f.Err.Kind == domain.DeliveryTooLarge {
			status = domain.DownloadStatusTooLarge
		}
		e := withFile(withStatus(entry, status), f.File)
		if f.Err != nil {
			e = withError(e, f.Err.Error())
		}
		h.logs.Record(ctx, e)
	}

	for _, f := range out.Skipped {
		h.logs.Record(ctx, withError(withFile(withStatus(entry, domain.DownloadStatusTooLarge), f), tooLargeReason))
	}
}

func withStatus(e domain.DownloadLogEntry, status domain.DownloadStatus) domain.DownloadLogEntry {
	e.Status = status
	return e
}

func withFile(e domain.DownloadLogEntry, f domain.MediaFile) domain.DownloadLogEntry {
	path, size := f.Path, f.Size
	e.FilePath = &path
	e.FileSize = &size
	return e
}

func withError(e domain.DownloadLogEntry, msg string) domain.DownloadLogEntry {
	e.ErrorMessage = &msg
	return e
}

// internalUserID returns the row id stored by the tracking middleware, 0 if unknown
func internalUserID(c tele.Context) int64 {
	if id, ok := c.Get(middleware.UserIDKey).(int64); ok {
		return id
	}
	return 0
}
