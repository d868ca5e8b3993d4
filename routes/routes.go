package routes

import (
	"net/http"
	"time"

	"docqueue/handlers"
	"docqueue/middleware"
	"docqueue/realtime"
	"docqueue/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandlerBundle groups everything route registration needs.
type HandlerBundle struct {
	Queue    *handlers.QueueHandler
	Visitor  *handlers.VisitorHandler
	Admin    *handlers.AdminHandler
	Sessions utils.PanelSessionStore
	Hub      *realtime.Hub
	Logger   *zap.Logger
}

// RegisterQueueRoutes registers the public queue endpoints.
func RegisterQueueRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/queues")
	{
		api.POST("", hb.Queue.CreateQueueHandler)
		api.GET("/:id", hb.Queue.GetQueueHandler)
		api.POST("/:id/auth", hb.Queue.AuthenticateHandler)
		api.POST("/:id/join", hb.Visitor.JoinQueueHandler)
		api.GET("/:id/patients/:serial", hb.Visitor.PatientStatusHandler)
		api.GET("/:id/wait/:serial", hb.Visitor.WaitTimeHandler)
		api.GET("/:id/ws", handlers.QueueWebSocketHandler(hb.Hub, hb.Logger))
	}
}

// RegisterPanelRoutes registers the doctor-panel endpoints. Every route
// requires a panel session token bound to the queue in the URL.
func RegisterPanelRoutes(r *gin.Engine, hb *HandlerBundle) {
	panel := r.Group("/api/queues/:id")
	panel.Use(middleware.PanelAuthMiddleware(hb.Sessions))
	{
		panel.POST("/start", hb.Queue.StartHandler())
		panel.POST("/pause", hb.Queue.PauseHandler())
		panel.POST("/resume", hb.Queue.ResumeHandler())
		panel.POST("/end", hb.Queue.EndHandler())
		panel.POST("/resume-after-end", hb.Queue.ResumeAfterEndHandler())
		panel.POST("/next", hb.Queue.CallNextHandler())
		panel.POST("/archive", hb.Queue.ArchiveHandler())
		panel.POST("/reset", hb.Queue.ResetHandler)
		panel.POST("/logout", hb.Queue.LogoutHandler)
		panel.POST("/patients/:serial/absent", hb.Queue.MarkAbsentHandler)
		panel.POST("/patients/:serial/re-add", hb.Queue.ReAddAbsentHandler)
	}
}

// RegisterAdminRoutes registers the admin-key guarded endpoints.
func RegisterAdminRoutes(r *gin.Engine, hb *HandlerBundle) {
	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuthMiddleware())
	{
		admin.GET("/queues", hb.Admin.ListQueuesHandler)
		admin.GET("/doctors", hb.Admin.DoctorNamesHandler)
		admin.DELETE("/queues/:id", hb.Admin.DeleteQueueHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Admin-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterQueueRoutes(r, hb)
	RegisterPanelRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r)
}
