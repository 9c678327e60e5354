package cron

import (
	"context"
	"fmt"
	"time"

	"tutordesk/config"
	auditRepo "tutordesk/database/repository/audit"
	"tutordesk/services/tasks"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// QueueRedisOpt is the asynq connection shared by the audit client and worker.
func QueueRedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitAuditWorker runs the audit worker in background and returns it for shutdown. The queue
// connection monitor stops when ctx is cancelled.
func InitAuditWorker(ctx context.Context, repo auditRepo.AuditRepository, logger *zap.Logger) *asynq.Server {
	concurrency := config.AppConfig.AuditWorkers
	if concurrency <= 0 {
		concurrency = 1
	}
	srv := asynq.NewServer(
		QueueRedisOpt(),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				tasks.QueueAudit: 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeAuditRecord, HandleAuditTask(repo, logger))

	go monitorRedisConnection(ctx, logger)

	go func() {
		logger.Info("Starting audit worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := srv.Run(mux)
			if err == nil {
				break
			}
			logger.Error("Audit worker failed to start",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err))
			if attempts == maxAttempts {
				logger.Error("Audit worker gave up; audit events stay queued")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
	return srv
}

// HandleAuditTask persists one audit event. Malformed payloads are skipped instead of retried.
func HandleAuditTask(repo auditRepo.AuditRepository, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		event, err := tasks.ParseAuditTask(task)
		if err != nil {
			logger.Warn("Dropping malformed audit task", zap.Error(err))
			return fmt.Errorf("invalid audit payload: %v: %w", err, asynq.SkipRetry)
		}
		if err := repo.Insert(ctx, event); err != nil {
			logger.Error("Failed to persist audit event", zap.String("id", event.ID), zap.Error(err))
			return err
		}
		logger.Debug("Audit event stored", zap.String("kind", event.Kind), zap.String("actorId", event.ActorID))
		return nil
	}
}

const redisMonitorInterval = 30 * time.Second

type pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// monitorRedisConnection pings the queue database periodically to detect failures at runtime.
func monitorRedisConnection(ctx context.Context, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer client.Close()

	watchConnection(ctx, client, redisMonitorInterval, logger)
}

func watchConnection(ctx context.Context, client pinger, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := client.Ping(ctx).Err(); err != nil && ctx.Err() == nil {
			logger.Warn("Audit queue Redis connection lost", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			logger.Debug("Audit queue monitor stopped")
			return
		case <-ticker.C:
		}
	}
}
