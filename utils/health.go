package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Mongo     *bool     `json:"mongo,omitempty"`
	Redis     []bool    `json:"redis"`
	CheckedAt time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

func checkHealth(ctx context.Context, redisClients []*redis.Client, mongoClient *mongo.Client) HealthStatus {
	status := HealthStatus{Redis: []bool{}, CheckedAt: time.Now()}
	for _, client := range redisClients {
		err := client.Ping(ctx).Err()
		status.Redis = append(status.Redis, err == nil)
	}
	if mongoClient != nil {
		ok := mongoClient.Ping(ctx, nil) == nil
		status.Mongo = &ok
	}
	return status
}

// StartHealthMonitor performs periodic health checks and updates in-memory state until ctx is done.
// Either dependency may be absent when the configured backends do not use it.
func StartHealthMonitor(ctx context.Context, interval time.Duration, redisClients []*redis.Client, mongoClient *mongo.Client) {
	run := func() {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		status := checkHealth(pingCtx, redisClients, mongoClient)
		mu.Lock()
		currentHealth = status
		mu.Unlock()
	}

	go func() {
		run()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				run()
			}
		}
	}()
}
