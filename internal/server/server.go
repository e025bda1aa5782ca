package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"socialdl/internal/middleware"
	"socialdl/internal/service"
)

const (
	sessionName       = "socialdl_admin"
	secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"
)

// UpdateProcessor dispatches one Telegram update to the bot handlers
type UpdateProcessor interface {
	ProcessUpdate(u tele.Update)
}

// Options configures the HTTP server
type Options struct {
	ListenAddr    string
	WebhookPath   string
	WebhookSecret string
	SessionSecret string
	SecureCookies bool
}

// Server serves the Telegram webhook and the admin API
type Server struct {
	opts     Options
	admins   *service.AdminService
	settings *service.SettingsService
	channels *service.ChannelService
	logs     *service.DownloadLogService
	logger   *zap.Logger

	mu      sync.RWMutex
	updates UpdateProcessor

	router *gin.Engine
	http   *http.Server
}

// New creates the server and its routes. Webhook requests are answered with
// 503 until ServeUpdates attaches the bot.
func New(
	opts Options,
	admins *service.AdminService,
	settings *service.SettingsService,
	channels *service.ChannelService,
	logs *service.DownloadLogService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		opts:     opts,
		admins:   admins,
		settings: settings,
		channels: channels,
		logs:     logs,
		logger:   logger,
	}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:              opts.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// ServeUpdates starts dispatching webhook updates to p
func (s *Server) ServeUpdates(p UpdateProcessor) {
	s.mu.Lock()
	s.updates = p
	s.mu.Unlock()
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until Shutdown is called
func (s *Server) Run() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.opts.ListenAddr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST(s.opts.WebhookPath, s.handleWebhook)

	store := cookie.NewStore([]byte(s.opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/admin",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	admin := router.Group("/admin")
	admin.Use(sessions.Sessions(sessionName, store))
	{
		admin.POST("/login", s.handleLogin)
		admin.POST("/logout", s.handleLogout)
	}

	protected := admin.Group("")
	protected.Use(middleware.AuthRequired(s.logger))
	{
		protected.GET("/settings", s.handleListSettings)
		protected.PUT("/settings/:key", s.handleSetSetting)

		protected.GET("/channels", s.handleListChannels)
		protected.POST("/channels", s.handleAddChannel)
		protected.PATCH("/channels/:id", s.handleSetChannelActive)
		protected.DELETE("/channels/:id", s.handleRemoveChannel)

		protected.GET("/downloads", s.handleRecentDownloads)
		protected.GET("/stats", s.handleStats)
	}

	superOnly := protected.Group("")
	superOnly.Use(middleware.SuperAdminRequired())
	{
		superOnly.GET("/admins", s.handleListAdmins)
		superOnly.POST("/admins", s.handleCreateAdmin)
		superOnly.DELETE("/admins/:id", s.handleDeleteAdmin)
	}

	return router
}

// handleWebhook decodes one update and hands it to the bot. Processing runs
// asynchronously, so the request never waits on a download.
func (s *Server) handleWebhook(c *gin.Context) {
	if s.opts.WebhookSecret != "" && c.GetHeader(secretTokenHeader) != s.opts.WebhookSecret {
		s.logger.Warn("Webhook request with invalid secret token", zap.String("ip", c.ClientIP()))
		c.Status(http.StatusUnauthorized)
		return
	}

	s.mu.RLock()
	updates := s.updates
	s.mu.RUnlock()
	if updates == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}

	var update tele.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		s.logger.Warn("Cannot decode webhook update", zap.Error(err))
		c.Status(http.StatusBadRequest)
		return
	}

	updates.ProcessUpdate(update)
	c.Status(http.StatusOK)
}

// requestLogger logs each request at debug level without the secret webhook path
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.Request.URL.Path
		if path == s.opts.WebhookPath {
			path = "/webhook"
		}
		s.logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
