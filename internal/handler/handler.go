package handler

import (
	"context"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"socialdl/internal/delivery"
	"socialdl/internal/domain"
	"socialdl/internal/service"
)

// Router registers handlers; *tele.Bot satisfies it
type Router interface {
	Handle(endpoint interface{}, h tele.HandlerFunc, m ...tele.MiddlewareFunc)
}

// Messenger posts, edits and deletes messages outside of a context reply
type Messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
}

// Downloader fetches a link into local files
type Downloader interface {
	Fetch(ctx context.Context, url string, policy domain.QualityPolicy) domain.DownloadResult
}

// Deliverer sends downloaded files to a chat
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, result domain.DownloadResult) delivery.Outcome
}

// Handler manages all bot interactions
type Handler struct {
	bot       Messenger
	users     *service.UserService
	settings  *service.SettingsService
	gate      *service.SubscriptionGate
	logs      *service.DownloadLogService
	downloads Downloader
	pipeline  Deliverer
	policy    domain.QualityPolicy
	logger    *zap.Logger
}

// NewHandler creates a new handler instance
func NewHandler(
	bot Messenger,
	users *service.UserService,
	settings *service.SettingsService,
	gate *service.SubscriptionGate,
	logs *service.DownloadLogService,
	downloads Downloader,
	pipeline Deliverer,
	policy domain.QualityPolicy,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		bot:       bot,
		users:     users,
		settings:  settings,
		gate:      gate,
		logs:      logs,
		downloads: downloads,
		pipeline:  pipeline,
		policy:    policy,
		logger:    logger,
	}
}

// RegisterHandlers registers all bot handlers
func (h *Handler) RegisterHandlers(r Router) {
	// Commands
	r.Handle("/start", h.gated(h.handleStart))
	r.Handle("/menu", h.gated(h.handleMenu))

	// Callback queries (inline buttons)
	r.Handle(&btnSelectPlatform, h.gated(h.handleSelectPlatform))
	r.Handle(&btnCheckSubscription, h.handleCheckSubscription)
	r.Handle(tele.OnCallback, h.handleCallback)

	// Links
	r.Handle(tele.OnText, h.gated(h.handleText))
}

// Inline keyboard buttons
var (
	btnSelectPlatform = tele.Btn{
		Unique: "select_platform",
	}
	btnCheckSubscription = tele.Btn{
		Unique: "check_subscription",
	}
)
