package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Session and gin context keys of the logged-in admin
const (
	SessionAdminID    = "admin_id"
	SessionUsername   = "admin_username"
	SessionSuperAdmin = "super_admin"
)

// AuthRequired rejects admin API requests without a valid session
func AuthRequired(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		raw := session.Get(SessionAdminID)
		if raw == nil {
			logger.Debug("Unauthenticated admin request",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		adminID, ok := raw.(int64)
		if !ok {
			logger.Warn("Corrupt admin session, clearing",
				zap.String("type", fmt.Sprintf("%T", raw)),
				zap.String("ip", c.ClientIP()),
			)
			session.Clear()
			session.Options(sessions.Options{MaxAge: -1})
			if err := session.Save(); err != nil {
				logger.Error("Failed to clear session", zap.Error(err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		super, _ := session.Get(SessionSuperAdmin).(bool)
		c.Set(SessionAdminID, adminID)
		c.Set(SessionSuperAdmin, super)
		c.Next()
	}
}

// SuperAdminRequired must run after AuthRequired
func SuperAdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(SessionSuperAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "super admin only"})
			return
		}
		c.Next()
	}
}
