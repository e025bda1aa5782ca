package delivery

import (
	"context"

	"socialdl/internal/domain"
)

// Method is the Telegram call used to transmit one file
type Method int

const (
	MethodDocument Method = iota
	MethodPhoto
	MethodVideo
	MethodAudio
)

func (m Method) String() string {
	switch m {
	case MethodPhoto:
		return "photo"
	case MethodVideo:
		return "video"
	case MethodAudio:
		return "audio"
	default:
		return "document"
	}
}

// Item is one file with the method and caption it is sent with
type Item struct {
	File    domain.MediaFile
	Method  Method
	Caption string
}

// Sender transmits files to a chat. Implementations open each file right
// before the call and close it when the call returns.
type Sender interface {
	Send(ctx context.Context, chatID int64, item Item) error
	// SendGroup sends 2..10 photo/video items as one media group
	SendGroup(ctx context.Context, chatID int64, items []Item) error
}
