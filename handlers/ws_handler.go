package handlers

import (
	"net/http"

	"docqueue/realtime"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// QueueWebSocketHandler upgrades the connection and registers it as an
// observer of the queue in the URL.
func QueueWebSocketHandler(hub *realtime.Hub, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		queueID := c.Param("id")
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.String("queueId", queueID), zap.Error(err))
			return
		}
		client := hub.NewClient(conn, queueID)
		go client.WritePump()
		client.ReadPump()
	}
}
