package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	queueRepo "docqueue/database/repository/queue"
	"docqueue/middleware"
	"docqueue/models"
	"docqueue/services/queue"
	"docqueue/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var handlerNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func newTestRouter() (*gin.Engine, queue.QueueService) {
	gin.SetMode(gin.TestMode)
	svc := &queue.DefaultQueueService{
		Repo:   queueRepo.NewMemoryQueueRepo(),
		Now:    func() time.Time { return handlerNow },
		Logger: zap.NewNop(),
	}
	logger := zap.NewNop()
	qh := NewQueueHandler(svc, utils.NewMemoryPanelSessionStore(), logger)
	vh := NewVisitorHandler(svc, logger)
	ah := NewAdminHandler(svc, logger)

	r := gin.New()
	api := r.Group("/api/queues")
	api.POST("", qh.CreateQueueHandler)
	api.GET("/:id", qh.GetQueueHandler)
	api.POST("/:id/join", vh.JoinQueueHandler)
	api.GET("/:id/patients/:serial", vh.PatientStatusHandler)
	api.GET("/:id/wait/:serial", vh.WaitTimeHandler)
	api.POST("/:id/start", qh.StartHandler())
	api.POST("/:id/next", qh.CallNextHandler())
	api.POST("/:id/reset", qh.ResetHandler)
	r.GET("/api/admin/queues", ah.ListQueuesHandler)
	r.GET("/api/admin/doctors", ah.DoctorNamesHandler)
	return r, svc
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createQueue(t *testing.T, r *gin.Engine) models.Queue {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/api/queues", gin.H{"doctorName": "Dr. Rahman"})
	require.Equal(t, http.StatusCreated, w.Code)
	var q models.Queue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &q))
	return q
}

func TestCreateQueueValidation(t *testing.T) {
	r, _ := newTestRouter()
	w := doJSON(r, http.MethodPost, "/api/queues", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAndFetchQueue(t *testing.T) {
	r, _ := newTestRouter()
	q := createQueue(t, r)
	assert.NotEmpty(t, q.SecretCode)

	w := doJSON(r, http.MethodGet, "/api/queues/"+q.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var public models.Queue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &public))
	assert.Empty(t, public.SecretCode, "public view must not leak the secret code")
	assert.Equal(t, models.StatusIdle, public.Status)
}

func TestGetQueueNotFound(t *testing.T) {
	r, _ := newTestRouter()
	w := doJSON(r, http.MethodGet, "/api/queues/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJoinQueue(t *testing.T) {
	r, _ := newTestRouter()
	q := createQueue(t, r)

	w := doJSON(r, http.MethodPost, "/api/queues/"+q.ID+"/join", gin.H{"patientName": "Amina"})
	require.Equal(t, http.StatusOK, w.Code)
	var result queue.JoinResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.SerialNumber)

	// Missing name is rejected before the service runs.
	w = doJSON(r, http.MethodPost, "/api/queues/"+q.ID+"/join", gin.H{"mobile": "017"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJoinEndedQueueConflict(t *testing.T) {
	r, svc := newTestRouter()
	q := createQueue(t, r)
	_, err := svc.End(context.Background(), q.ID)
	require.NoError(t, err)

	w := doJSON(r, http.MethodPost, "/api/queues/"+q.ID+"/join", gin.H{"patientName": "Amina"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "queueEnded")
}

func TestPatientStatusRoutes(t *testing.T) {
	r, _ := newTestRouter()
	q := createQueue(t, r)
	w := doJSON(r, http.MethodPost, "/api/queues/"+q.ID+"/join", gin.H{"patientName": "Amina"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/api/queues/"+q.ID+"/patients/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status queue.PatientStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "Amina", status.Entry.PatientName)

	w = doJSON(r, http.MethodGet, "/api/queues/"+q.ID+"/patients/9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodGet, "/api/queues/"+q.ID+"/patients/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartAndCallNext(t *testing.T) {
	r, _ := newTestRouter()
	q := createQueue(t, r)
	doJSON(r, http.MethodPost, "/api/queues/"+q.ID+"/join", gin.H{"patientName": "Amina"})
	doJSON(r, http.MethodPost, "/api/queues/"+q.ID+"/join", gin.H{"patientName": "Belal"})

	w := doJSON(r, http.MethodPost, "/api/queues/"+q.ID+"/start", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got models.Queue
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Equal(t, 1, got.CurrentNumber)

	w = doJSON(r, http.MethodPost, "/api/queues/"+q.ID+"/next", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 2, got.CurrentNumber)
}

func TestResetRequiresConfirmation(t *testing.T) {
	r, _ := newTestRouter()
	q := createQueue(t, r)

	w := doJSON(r, http.MethodPost, "/api/queues/"+q.ID+"/reset", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/queues/"+q.ID+"/reset", gin.H{"confirm": true})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSecretCodeAuthPassesPanelMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sessions := utils.NewMemoryPanelSessionStore()
	svc := &queue.DefaultQueueService{
		Repo:   queueRepo.NewMemoryQueueRepo(),
		Now:    func() time.Time { return handlerNow },
		Logger: zap.NewNop(),
	}
	qh := NewQueueHandler(svc, sessions, zap.NewNop())

	r := gin.New()
	r.POST("/api/queues", qh.CreateQueueHandler)
	r.POST("/api/queues/:id/auth", qh.AuthenticateHandler)
	panel := r.Group("/api/queues/:id")
	panel.Use(middleware.PanelAuthMiddleware(sessions))
	panel.POST("/start", qh.StartHandler())

	q := createQueue(t, r)

	// Wrong code is rejected before any session is issued.
	w := doJSON(r, http.MethodPost, "/api/queues/"+q.ID+"/auth", gin.H{"secretCode": "WRONG"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodPost, "/api/queues/"+q.ID+"/auth", gin.H{"secretCode": q.SecretCode})
	require.Equal(t, http.StatusOK, w.Code)
	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &auth))
	require.NotEmpty(t, auth.Token)

	// No token: the panel stays shut.
	w = doJSON(r, http.MethodPost, "/api/queues/"+q.ID+"/start", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The issued token opens it.
	req := httptest.NewRequest(http.MethodPost, "/api/queues/"+q.ID+"/start", nil)
	req.Header.Set("Authorization", "Bearer "+auth.Token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// A token bound to one queue cannot operate another.
	other := createQueue(t, r)
	req = httptest.NewRequest(http.MethodPost, "/api/queues/"+other.ID+"/start", nil)
	req.Header.Set("Authorization", "Bearer "+auth.Token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminListings(t *testing.T) {
	r, _ := newTestRouter()
	createQueue(t, r)

	w := doJSON(r, http.MethodGet, "/api/admin/queues", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Queues []models.Queue `json:"queues"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Len(t, listing.Queues, 1)

	w = doJSON(r, http.MethodGet, "/api/admin/doctors", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Dr. Rahman")
}
