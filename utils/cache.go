package utils

import (
	"context"
	"log"
	"time"

	"docqueue/config"

	"github.com/go-redis/redis/v8"
)

var (
	// NotifyClient carries queue-change pub/sub traffic.
	NotifyClient *redis.Client
	// SessionClient is the dedicated client for panel session storage.
	SessionClient *redis.Client
)

// InitNotifyClient initializes the Redis client used for queue-change notifications.
func InitNotifyClient() {
	NotifyClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisNotifyDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NotifyClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Notify): %v", err)
	}
}

// GetNotifyClient returns the notification client.
func GetNotifyClient() *redis.Client {
	if NotifyClient == nil {
		InitNotifyClient()
	}
	return NotifyClient
}

// InitSessionClient initializes the Redis client for panel sessions.
func InitSessionClient() {
	SessionClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSessionDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := SessionClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Sessions): %v", err)
	}
}

// GetSessionClient returns the Redis client for panel sessions.
func GetSessionClient() *redis.Client {
	if SessionClient == nil {
		InitSessionClient()
	}
	return SessionClient
}
