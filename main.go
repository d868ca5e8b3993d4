// File: docqueue/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docqueue/config"
	"docqueue/database"
	queueRepoPkg "docqueue/database/repository/queue"
	"docqueue/handlers"
	"docqueue/middleware"
	"docqueue/notify"
	"docqueue/realtime"
	"docqueue/routes"
	queueService "docqueue/services/queue"
	"docqueue/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitSessionClient()
	utils.InitNotifyClient()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	// repositories.
	repo := queueRepoPkg.NewMongoQueueRepo()

	// change notification fan-out across nodes.
	notifier := notify.NewRedisNotifier(utils.GetNotifyClient(), logger)
	defer notifier.Close()

	// services.
	svc := &queueService.DefaultQueueService{
		Repo:     repo,
		Notifier: notifier,
		Now:      time.Now,
		Logger:   logger,
	}

	sessions := utils.NewRedisPanelSessionStore(utils.GetSessionClient())

	// realtime hub: WebSocket observers plus the interval re-broadcast.
	pollInterval := time.Duration(config.AppConfig.PollIntervalSeconds) * time.Second
	hub := realtime.NewHub(pollInterval, logger)
	unsubscribe := notifier.Subscribe(hub.Notify)
	defer unsubscribe()
	go hub.Run()

	handlerBundle := &routes.HandlerBundle{
		Queue:    handlers.NewQueueHandler(svc, sessions, logger),
		Visitor:  handlers.NewVisitorHandler(svc, logger),
		Admin:    handlers.NewAdminHandler(svc, logger),
		Sessions: sessions,
		Hub:      hub,
		Logger:   logger,
	}

	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
