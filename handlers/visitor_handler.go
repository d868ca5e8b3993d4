package handlers

import (
	"net/http"
	"strconv"

	"docqueue/services/queue"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// VisitorHandler exposes the visitor-facing surface: taking a serial
// and checking its status and wait time.
type VisitorHandler struct {
	Service queue.QueueService
	Logger  *zap.Logger
}

// NewVisitorHandler returns a VisitorHandler backed by the given service.
func NewVisitorHandler(svc queue.QueueService, logger *zap.Logger) *VisitorHandler {
	return &VisitorHandler{Service: svc, Logger: logger}
}

// serialParam parses the :serial path segment, writing the error
// response itself on failure.
func serialParam(c *gin.Context) (int, bool) {
	serial, err := strconv.Atoi(c.Param("serial"))
	if err != nil || serial < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid serial number"})
		return 0, false
	}
	return serial, true
}

// JoinQueueHandler issues the next serial of the day to a visitor.
func (h *VisitorHandler) JoinQueueHandler(c *gin.Context) {
	var input queue.JoinInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if input.PatientName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "patientName is required"})
		return
	}
	result, err := h.Service.Join(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	h.Logger.Info("visitor joined queue",
		zap.String("queueId", c.Param("id")),
		zap.Int("serial", result.SerialNumber))
	c.JSON(http.StatusOK, result)
}

// PatientStatusHandler returns one serial's entry plus its live wait time.
func (h *VisitorHandler) PatientStatusHandler(c *gin.Context) {
	serial, ok := serialParam(c)
	if !ok {
		return
	}
	status, err := h.Service.GetPatientStatus(c.Request.Context(), c.Param("id"), serial)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// WaitTimeHandler returns just the estimated wait in minutes.
func (h *VisitorHandler) WaitTimeHandler(c *gin.Context) {
	serial, ok := serialParam(c)
	if !ok {
		return
	}
	minutes, err := h.Service.WaitTime(c.Request.Context(), c.Param("id"), serial)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"serialNumber": serial, "waitMinutes": minutes})
}
