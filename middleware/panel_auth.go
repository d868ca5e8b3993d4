package middleware

import (
	"net/http"
	"strings"

	"docqueue/utils"

	"github.com/gin-gonic/gin"
)

// PanelAuthMiddleware guards doctor-panel operations. The bearer token
// is an opaque session id issued when the queue's secret code was
// verified; the session must belong to the queue in the URL.
func PanelAuthMiddleware(sessions utils.PanelSessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		session, err := sessions.Get(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired panel session"})
			return
		}
		if session.QueueID != c.Param("id") {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Session does not belong to this queue"})
			return
		}

		c.Set("panelQueueID", session.QueueID)
		c.Next()
	}
}
