// File: utils/cache.go
package utils

import (
	"circl/config"
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionClient holds the device session hashes read by the root gate.
var SessionClient *redis.Client

func newRedisClient(db int, name string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", name, err)
	}
	return client
}

// InitSessionStore initializes the Redis client backing persisted device sessions.
func InitSessionStore() {
	SessionClient = newRedisClient(config.AppConfig.RedisSessionDB, "Session")
}

// GetSessionClient returns the Redis client for device sessions.
func GetSessionClient() *redis.Client {
	if SessionClient == nil {
		InitSessionStore()
	}
	return SessionClient
}
