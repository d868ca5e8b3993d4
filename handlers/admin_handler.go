package handlers

import (
	"net/http"

	"docqueue/services/queue"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminHandler exposes the management surface behind the admin key.
type AdminHandler struct {
	Service queue.QueueService
	Logger  *zap.Logger
}

// NewAdminHandler returns an AdminHandler backed by the given service.
func NewAdminHandler(svc queue.QueueService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{Service: svc, Logger: logger}
}

// ListQueuesHandler returns every stored queue, secret codes included —
// the admin needs them to hand codes back to doctors.
func (h *AdminHandler) ListQueuesHandler(c *gin.Context) {
	queues, err := h.Service.ListQueues(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"queues": queues})
}

// DoctorNamesHandler returns the distinct doctor names.
func (h *AdminHandler) DoctorNamesHandler(c *gin.Context) {
	names, err := h.Service.DoctorNames(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctors": names})
}

// DeleteQueueHandler removes a queue record entirely.
func (h *AdminHandler) DeleteQueueHandler(c *gin.Context) {
	id := c.Param("id")
	if err := h.Service.DeleteQueue(c.Request.Context(), id); err != nil {
		writeDomainError(c, err)
		return
	}
	h.Logger.Info("queue deleted", zap.String("queueId", id))
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
