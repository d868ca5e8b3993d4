package middleware

import (
	"crypto/subtle"
	"net/http"

	"docqueue/config"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware guards management endpoints with the shared
// admin key. When no key is configured, admin access is disabled.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := config.AppConfig.AdminKey
		if key == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access is not configured"})
			return
		}
		provided := c.GetHeader("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized admin access"})
			return
		}
		c.Set("isAdmin", true)
		c.Next()
	}
}
