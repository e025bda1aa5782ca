package delivery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"socialdl/internal/domain"
)

const (
	// MaxPhotoSize is the largest image sent inline as a photo
	MaxPhotoSize int64 = 20 * 1024 * 1024
	// MaxVideoAudioSize is the largest video or audio sent inline
	MaxVideoAudioSize int64 = 50 * 1024 * 1024
	// MaxGroupSize is Telegram's media group limit
	MaxGroupSize = 10
	// maxCaptionRunes is Telegram's caption limit
	maxCaptionRunes = 1024
)

// Status summarises a delivery attempt
type Status int

const (
	StatusDelivered Status = iota
	StatusPartial
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusDelivered:
		return "delivered"
	case StatusPartial:
		return "partial"
	default:
		return "failed"
	}
}

// FailedItem is a file that could not be delivered
type FailedItem struct {
	File domain.MediaFile
	Err  *domain.DeliveryError
}

// Outcome reports what happened to every file of a DownloadResult
type Outcome struct {
	Sent   []domain.MediaFile
	Failed []FailedItem
	// Skipped holds files above the document ceiling that were never sent
	Skipped []domain.MediaFile
}

// Status returns delivered only when every file reached the chat
func (o Outcome) Status() Status {
	switch {
	case len(o.Sent) > 0 && len(o.Failed) == 0 && len(o.Skipped) == 0:
		return StatusDelivered
	case len(o.Sent) > 0:
		return StatusPartial
	default:
		return StatusFailed
	}
}

// Blocked reports whether any send failed because the user blocked the bot
func (o Outcome) Blocked() bool {
	for _, f := range o.Failed {
		if f.Err != nil && f.Err.Kind == domain.DeliveryBlocked {
			return true
		}
	}
	return false
}

// FirstError returns the first delivery error, if any
func (o Outcome) FirstError() *domain.DeliveryError {
	for _, f := range o.Failed {
		if f.Err != nil {
			return f.Err
		}
	}
	return nil
}

// Pipeline routes downloaded files to the right Telegram call and removes
// them from local storage afterwards.
type Pipeline struct {
	sender Sender
	logger *zap.Logger
}

// NewPipeline creates a new delivery pipeline
func NewPipeline(sender Sender, logger *zap.Logger) *Pipeline {
	return &Pipeline{sender: sender, logger: logger}
}

// Route picks the send method for one file
func Route(f domain.MediaFile) Method {
	switch f.Kind {
	case domain.MediaImage:
		if f.Size <= MaxPhotoSize {
			return MethodPhoto
		}
	case domain.MediaVideo:
		if f.Size <= MaxVideoAudioSize {
			return MethodVideo
		}
	case domain.MediaAudio:
		if f.Size <= MaxVideoAudioSize {
			return MethodAudio
		}
	}
	return MethodDocument
}

// Deliver sends result to chatID. Every local file referenced by result is
// removed exactly once before Deliver returns, including when a send panics.
func (p *Pipeline) Deliver(ctx context.Context, chatID int64, result domain.DownloadResult) (out Outcome) {
	c := newCleaner(p.logger)
	pending := result.Files()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Delivery panicked", zap.Int64("chat_id", chatID), zap.Any("panic", r))
			out = p.failUnsettled(out, pending, &domain.DeliveryError{
				Kind: domain.DeliveryUnknown,
				Err:  fmt.Errorf("panic: %v", r),
			})
		}
		c.remove(domain.Paths(result)...)
	}()

	switch r := result.(type) {
	case domain.SingleResult:
		p.deliverSingle(ctx, chatID, r.File, c, &out)
	case domain.AlbumResult:
		p.deliverAlbum(ctx, chatID, r, c, &out)
	case domain.TooLargeResult:
		out.Skipped = append(out.Skipped, r.Items...)
	case domain.FailureResult:
	default:
		p.logger.Error("Unknown download result", zap.String("type", fmt.Sprintf("%T", result)))
	}

	return out
}

// Cleanup removes every path once, ignoring files that are already gone
func (p *Pipeline) Cleanup(paths ...string) {
	newCleaner(p.logger).remove(paths...)
}

func (p *Pipeline) deliverSingle(ctx context.Context, chatID int64, f domain.MediaFile, c *cleaner, out *Outcome) {
	item := Item{File: f, Method: Route(f), Caption: caption(f.Title)}
	if err := p.send(ctx, chatID, item, c); err != nil {
		out.Failed = append(out.Failed, FailedItem{File: f, Err: err})
	} else {
		out.Sent = append(out.Sent, f)
	}
}

func (p *Pipeline) deliverAlbum(ctx context.Context, chatID int64, album domain.AlbumResult, c *cleaner, out *Outcome) {
	out.Skipped = append(out.Skipped, album.Oversized...)

	var blocked *domain.DeliveryError
	var inline []Item
	for _, f := range album.Items {
		method := Route(f)
		if method == MethodPhoto || method == MethodVideo {
			inline = append(inline, Item{File: f, Method: method})
			continue
		}

		if blocked != nil {
			out.Failed = append(out.Failed, FailedItem{File: f, Err: blocked})
			continue
		}
		item := Item{File: f, Method: MethodDocument, Caption: caption(f.Title)}
		if err := p.send(ctx, chatID, item, c); err != nil {
			out.Failed = append(out.Failed, FailedItem{File: f, Err: err})
			if err.Kind == domain.DeliveryBlocked {
				blocked = err
			}
			continue
		}
		out.Sent = append(out.Sent, f)
	}

	for _, batch := range Batch(inline, MaxGroupSize) {
		if blocked != nil {
			for _, it := range batch {
				out.Failed = append(out.Failed, FailedItem{File: it.File, Err: blocked})
			}
			continue
		}

		batch[0].Caption = caption(batch[0].File.Title)

		var err *domain.DeliveryError
		if len(batch) == 1 {
			err = p.send(ctx, chatID, batch[0], c)
		} else {
			err = p.sendGroup(ctx, chatID, batch, c)
		}

		for _, it := range batch {
			if err != nil {
				out.Failed = append(out.Failed, FailedItem{File: it.File, Err: err})
			} else {
				out.Sent = append(out.Sent, it.File)
			}
		}
		if err != nil && err.Kind == domain.DeliveryBlocked {
			blocked = err
		}
	}
}

// send transmits one item and removes its file whatever the result
func (p *Pipeline) send(ctx context.Context, chatID int64, item Item, c *cleaner) *domain.DeliveryError {
	defer c.remove(item.File.Path)

	if err := p.sender.Send(ctx, chatID, item); err != nil {
		de := Classify(err)
		p.logger.Warn("Send failed",
			zap.Int64("chat_id", chatID),
			zap.String("path", item.File.Path),
			zap.String("method", item.Method.String()),
			zap.String("kind", de.Kind.String()),
			zap.Error(err),
		)
		return de
	}
	return nil
}

func (p *Pipeline) sendGroup(ctx context.Context, chatID int64, items []Item, c *cleaner) *domain.DeliveryError {
	defer func() {
		for _, it := range items {
			c.remove(it.File.Path)
		}
	}()

	if err := p.sender.SendGroup(ctx, chatID, items); err != nil {
		de := Classify(err)
		p.logger.Warn("Group send failed",
			zap.Int64("chat_id", chatID),
			zap.Int("items", len(items)),
			zap.String("kind", de.Kind.String()),
			zap.Error(err),
		)
		return de
	}
	return nil
}

// failUnsettled marks every file not yet reported as failed
func (p *Pipeline) failUnsettled(out Outcome, files []domain.MediaFile, err *domain.DeliveryError) Outcome {
	settled := make(map[string]bool)
	for _, f := range out.Sent {
		settled[f.Path] = true
	}
	for _, f := range out.Failed {
		settled[f.File.Path] = true
	}
	for _, f := range out.Skipped {
		settled[f.Path] = true
	}
	for _, f := range files {
		if !settled[f.Path] {
			out.Failed = append(out.Failed, FailedItem{File: f, Err: err})
		}
	}
	return out
}

// Batch splits items into consecutive groups of at most size elements
func Batch(items []Item, size int) [][]Item {
	var batches [][]Item
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}

func caption(title string) string {
	r := []rune(title)
	if len(r) <= maxCaptionRunes {
		return title
	}
	return string(r[:maxCaptionRunes-1]) + "…"
}

// cleaner removes each path at most once
type cleaner struct {
	mu      sync.Mutex
	removed map[string]bool
	logger  *zap.Logger
}

func newCleaner(logger *zap.Logger) *cleaner {
	return &cleaner{removed: make(map[string]bool), logger: logger}
}

func (c *cleaner) remove(paths ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, path := range paths {
		if path == "" || c.removed[path] {
			continue
		}
		c.removed[path] = true
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("Failed to remove file", zap.String("path", path), zap.Error(err))
		}
	}
}
