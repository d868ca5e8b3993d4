package handlers

import (
	"net/http"
	"strings"
	"time"

	"docqueue/config"
	"docqueue/models"
	"docqueue/services/queue"
	"docqueue/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QueueHandler exposes queue lifecycle and panel operations.
type QueueHandler struct {
	Service  queue.QueueService
	Sessions utils.PanelSessionStore
	Logger   *zap.Logger
}

// NewQueueHandler returns a QueueHandler backed by the given service
// and panel session store.
func NewQueueHandler(svc queue.QueueService, sessions utils.PanelSessionStore, logger *zap.Logger) *QueueHandler {
	return &QueueHandler{Service: svc, Sessions: sessions, Logger: logger}
}

// writeDomainError maps domain errors onto HTTP statuses; anything
// unrecognized is a 500.
func writeDomainError(c *gin.Context, err error) {
	if qe, ok := err.(*queue.QueueError); ok {
		status := http.StatusInternalServerError
		switch qe {
		case queue.ErrQueueNotFound, queue.ErrPatientNotFound:
			status = http.StatusNotFound
		case queue.ErrQueueEnded, queue.ErrLimitReached:
			status = http.StatusConflict
		case queue.ErrBadSecretCode:
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": qe.Message, "code": qe.Code})
		return
	}
	utils.JSONError(c, http.StatusInternalServerError, "internal error", err.Error())
}

// CreateQueueHandler opens a new queue for a doctor session.
func (h *QueueHandler) CreateQueueHandler(c *gin.Context) {
	var input queue.CreateQueueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	if input.DoctorName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "doctorName is required"})
		return
	}
	q, err := h.Service.CreateQueue(c.Request.Context(), input)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

// GetQueueHandler returns the public view of a queue: the secret code
// is stripped so visitor views cannot operate the panel.
func (h *QueueHandler) GetQueueHandler(c *gin.Context) {
	q, err := h.Service.GetQueue(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	public := *q
	public.SecretCode = ""
	c.JSON(http.StatusOK, public)
}

// AuthenticateHandler exchanges the queue's secret code for a panel
// session token.
func (h *QueueHandler) AuthenticateHandler(c *gin.Context) {
	var input struct {
		SecretCode string `json:"secretCode"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	queueID := c.Param("id")
	if err := h.Service.VerifySecret(c.Request.Context(), queueID, input.SecretCode); err != nil {
		writeDomainError(c, err)
		return
	}

	token := uuid.New().String()
	ttl := time.Duration(config.AppConfig.SessionTTLMinutes) * time.Minute
	session := utils.PanelSession{QueueID: queueID, CreatedAt: time.Now()}
	if err := h.Sessions.Save(token, session, ttl); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to create panel session", err.Error())
		return
	}
	h.Logger.Info("panel session issued", zap.String("queueId", queueID))
	c.JSON(http.StatusOK, gin.H{"token": token, "queueId": queueID})
}

// LogoutHandler revokes the caller's panel session.
func (h *QueueHandler) LogoutHandler(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if err := h.Sessions.Delete(token); err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "failed to revoke panel session", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"loggedOut": true})
}

// transitionHandler wraps the no-argument panel operations.
func (h *QueueHandler) transitionHandler(op func(c *gin.Context, id string) (*models.Queue, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, err := op(c, c.Param("id"))
		if err != nil {
			writeDomainError(c, err)
			return
		}
		c.JSON(http.StatusOK, q)
	}
}

func (h *QueueHandler) StartHandler() gin.HandlerFunc {
	return h.transitionHandler(func(c *gin.Context, id string) (*models.Queue, error) {
		return h.Service.Start(c.Request.Context(), id)
	})
}

func (h *QueueHandler) PauseHandler() gin.HandlerFunc {
	return h.transitionHandler(func(c *gin.Context, id string) (*models.Queue, error) {
		return h.Service.Pause(c.Request.Context(), id)
	})
}

func (h *QueueHandler) ResumeHandler() gin.HandlerFunc {
	return h.transitionHandler(func(c *gin.Context, id string) (*models.Queue, error) {
		return h.Service.Resume(c.Request.Context(), id)
	})
}

func (h *QueueHandler) EndHandler() gin.HandlerFunc {
	return h.transitionHandler(func(c *gin.Context, id string) (*models.Queue, error) {
		return h.Service.End(c.Request.Context(), id)
	})
}

func (h *QueueHandler) ResumeAfterEndHandler() gin.HandlerFunc {
	return h.transitionHandler(func(c *gin.Context, id string) (*models.Queue, error) {
		return h.Service.ResumeAfterEnd(c.Request.Context(), id)
	})
}

func (h *QueueHandler) ArchiveHandler() gin.HandlerFunc {
	return h.transitionHandler(func(c *gin.Context, id string) (*models.Queue, error) {
		return h.Service.Archive(c.Request.Context(), id)
	})
}

func (h *QueueHandler) CallNextHandler() gin.HandlerFunc {
	return h.transitionHandler(func(c *gin.Context, id string) (*models.Queue, error) {
		return h.Service.CallNext(c.Request.Context(), id)
	})
}

// ResetHandler wipes the queue. The caller must send {"confirm": true};
// reset is irreversible and must never happen on a stray click.
func (h *QueueHandler) ResetHandler(c *gin.Context) {
	var input struct {
		Confirm bool `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || !input.Confirm {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reset requires explicit confirmation"})
		return
	}
	q, err := h.Service.Reset(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// MarkAbsentHandler flags a serial as absent.
func (h *QueueHandler) MarkAbsentHandler(c *gin.Context) {
	serial, ok := serialParam(c)
	if !ok {
		return
	}
	q, err := h.Service.MarkAbsent(c.Request.Context(), c.Param("id"), serial)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// ReAddAbsentHandler restores an absent serial to the live line.
func (h *QueueHandler) ReAddAbsentHandler(c *gin.Context) {
	serial, ok := serialParam(c)
	if !ok {
		return
	}
	q, err := h.Service.ReAddAbsent(c.Request.Context(), c.Param("id"), serial)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}
