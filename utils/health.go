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
	Status    string    `json:"status"`
	Backend   string    `json:"backend"`
	Mongo     bool      `json:"mongo"`
	Redis     []bool    `json:"redis"`
	CheckedAt time.Time `json:"checkedAt"`
}

var (
	currentHealth = HealthStatus{Status: "ok"}
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

// SetHealthStatus replaces the stored snapshot.
func SetHealthStatus(status HealthStatus) {
	mu.Lock()
	currentHealth = status
	mu.Unlock()
}

// CheckHealth pings every configured dependency once. A nil mongo client is reported healthy,
// as in memory mode.
func CheckHealth(ctx context.Context, backend string, redisClients []*redis.Client, mongoClient *mongo.Client) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	redisHealth := make([]bool, 0, len(redisClients))
	healthy := true
	for _, client := range redisClients {
		ok := client.Ping(ctx).Err() == nil
		redisHealth = append(redisHealth, ok)
		healthy = healthy && ok
	}

	mongoHealthy := true
	if mongoClient != nil {
		mongoHealthy = mongoClient.Ping(ctx, nil) == nil
	}
	healthy = healthy && mongoHealthy

	status := "ok"
	if !healthy {
		status = "degraded"
	}
	return HealthStatus{
		Status:    status,
		Backend:   backend,
		Mongo:     mongoHealthy,
		Redis:     redisHealth,
		CheckedAt: time.Now().UTC(),
	}
}

// StartHealthMonitor performs periodic health checks and updates in-memory state until ctx is done.
func StartHealthMonitor(ctx context.Context, backend string, interval time.Duration, redisClients []*redis.Client, mongoClient *mongo.Client) {
	SetHealthStatus(CheckHealth(ctx, backend, redisClients, mongoClient))
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				SetHealthStatus(CheckHealth(ctx, backend, redisClients, mongoClient))
			}
		}
	}()
}
