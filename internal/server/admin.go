package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"socialdl/internal/domain"
	"socialdl/internal/middleware"
	"socialdl/internal/service"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type settingRequest struct {
	Value string `json:"value" binding:"required"`
}

type channelRequest struct {
	ChannelID string `json:"channel_id"`
	Name      string `json:"name"`
	Link      string `json:"link"`
}

type channelPatch struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

type adminRequest struct {
	Username       string `json:"username" binding:"required"`
	Password       string `json:"password" binding:"required"`
	SuperAdmin     bool   `json:"super_admin"`
	TelegramUserID *int64 `json:"telegram_user_id"`
}

type settingView struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type channelView struct {
	ID        int64  `json:"id"`
	ChannelID string `json:"channel_id"`
	Name      string `json:"name"`
	Link      string `json:"link"`
	IsActive  bool   `json:"is_active"`
}

type adminView struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	SuperAdmin     bool      `json:"super_admin"`
	TelegramUserID *int64    `json:"telegram_user_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type downloadView struct {
	ID             int64     `json:"id"`
	TelegramUserID int64     `json:"telegram_user_id"`
	Platform       string    `json:"platform"`
	URL            string    `json:"url"`
	Status         string    `json:"status"`
	FilePath       *string   `json:"file_path,omitempty"`
	FileSize       *int64    `json:"file_size,omitempty"`
	ErrorMessage   *string   `json:"error_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	admin, err := s.admins.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			s.logger.Info("Failed admin login", zap.String("username", req.Username), zap.String("ip", c.ClientIP()))
		}
		s.fail(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionAdminID, admin.ID)
	session.Set(middleware.SessionUsername, admin.Username)
	session.Set(middleware.SessionSuperAdmin, admin.IsSuperAdmin)
	if err := session.Save(); err != nil {
		s.logger.Error("Failed to save session", zap.String("username", admin.Username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}

	s.logger.Info("Admin logged in", zap.String("username", admin.Username))
	c.JSON(http.StatusOK, toAdminView(*admin))
}

func (s *Server) handleLogout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/admin", MaxAge: -1})
	if err := session.Save(); err != nil {
		s.logger.Warn("Failed to clear session", zap.Error(err))
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListSettings(c *gin.Context) {
	settings, err := s.settings.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	views := make([]settingView, 0, len(settings))
	for _, st := range settings {
		views = append(views, settingView{Key: st.Key, Value: st.Value})
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) handleSetSetting(c *gin.Context) {
	var req settingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
		return
	}

	key := c.Param("key")
	if err := s.settings.Set(c.Request.Context(), key, req.Value); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, settingView{Key: key, Value: req.Value})
}

func (s *Server) handleListChannels(c *gin.Context) {
	channels, err := s.channels.List(c.Request.Context(), false)
	if err != nil {
		s.fail(c, err)
		return
	}
	views := make([]channelView, 0, len(channels))
	for _, ch := range channels {
		views = append(views, toChannelView(ch))
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) handleAddChannel(c *gin.Context) {
	var req channelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	ch, err := s.channels.Add(c.Request.Context(), domain.LockedChannel{
		ChannelID: req.ChannelID,
		Name:      req.Name,
		Link:      req.Link,
		IsActive:  true,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toChannelView(ch))
}

func (s *Server) handleSetChannelActive(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req channelPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
		return
	}

	if err := s.channels.SetActive(c.Request.Context(), id, *req.IsActive); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRemoveChannel(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := s.channels.Remove(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRecentDownloads(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := s.logs.Recent(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	views := make([]downloadView, 0, len(entries))
	for _, e := range entries {
		views = append(views, downloadView{
			ID:             e.ID,
			TelegramUserID: e.TelegramUserID,
			Platform:       string(e.Platform),
			URL:            e.URL,
			Status:         string(e.Status),
			FilePath:       e.FilePath,
			FileSize:       e.FileSize,
			ErrorMessage:   e.ErrorMessage,
			CreatedAt:      e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.logs.Stats(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleListAdmins(c *gin.Context) {
	admins, err := s.admins.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	views := make([]adminView, 0, len(admins))
	for _, a := range admins {
		views = append(views, toAdminView(a))
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) handleCreateAdmin(c *gin.Context) {
	var req adminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	admin, err := s.admins.Create(c.Request.Context(), req.Username, req.Password, req.SuperAdmin, req.TelegramUserID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAdminView(*admin))
}

func (s *Server) handleDeleteAdmin(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if id == c.GetInt64(middleware.SessionAdminID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		return
	}
	if err := s.admins.Delete(c.Request.Context(), id); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// fail maps service errors onto HTTP statuses
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, service.ErrUnknownSetting):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrInvalidSettingValue),
		errors.Is(err, service.ErrInvalidChannel),
		errors.Is(err, service.ErrWeakPassword):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrAdminExists):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, err.Error()
	default:
		s.logger.Error("Admin API request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}

	c.JSON(status, gin.H{"error": msg})
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func toChannelView(ch domain.LockedChannel) channelView {
	return channelView{
		ID:        ch.ID,
		ChannelID: ch.ChannelID,
		Name:      ch.Name,
		Link:      ch.Link,
		IsActive:  ch.IsActive,
	}
}

func toAdminView(a domain.AdminUser) adminView {
	return adminView{
		ID:             a.ID,
		Username:       a.Username,
		SuperAdmin:     a.IsSuperAdmin,
		TelegramUserID: a.TelegramUserID,
		CreatedAt:      a.CreatedAt,
	}
}
