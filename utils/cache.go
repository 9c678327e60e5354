// File: utils/cache.go
package utils

import (
	"context"
	"fmt"
	"time"

	"tutordesk/config"

	"github.com/go-redis/redis/v8"
)

// CacheClient backs the availability read-through cache.
var CacheClient *redis.Client

// InitCache connects the cache client to the configured cache DB.
func InitCache() error {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := CacheClient.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis (Cache): %w", err)
	}
	return nil
}

// GetCacheClient returns the cache client, connecting on first use. A failed ping still returns
// the client; cache calls fall through to storage until Redis comes back.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		if err := InitCache(); err != nil {
			GetLogger().Warn(err.Error())
		}
	}
	return CacheClient
}
