package audit

import (
	"context"
	"time"

	auditRepo "tutordesk/database/repository/audit"
	"tutordesk/models"
	"tutordesk/services/tasks"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Recorder is the fire-and-forget activity sink. Record never fails the caller; delivery
// problems are logged and dropped.
type Recorder interface {
	Record(ctx context.Context, kind, description, actorID string)
}

func newEvent(kind, description, actorID string) models.AuditEvent {
	return models.AuditEvent{
		ID:          uuid.New().String(),
		Kind:        kind,
		Description: description,
		ActorID:     actorID,
		OccurredAt:  time.Now().UTC(),
	}
}

// Enqueuer is the part of *asynq.Client the queue recorder uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// enqueueTimeout bounds a single enqueue. Events outlive the request that produced them.
const enqueueTimeout = 2 * time.Second

// QueueRecorder hands events to the audit worker through asynq.
type QueueRecorder struct {
	client  Enqueuer
	logger  *zap.Logger
	timeout time.Duration
}

func NewQueueRecorder(client Enqueuer, logger *zap.Logger) *QueueRecorder {
	return &QueueRecorder{client: client, logger: logger, timeout: enqueueTimeout}
}

func (r *QueueRecorder) Record(ctx context.Context, kind, description, actorID string) {
	event := newEvent(kind, description, actorID)
	task, opts, err := tasks.NewAuditTask(event)
	if err != nil {
		r.logger.Error("Failed to build audit task", zap.String("kind", kind), zap.Error(err))
		return
	}
	enqueueCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if _, err := r.client.EnqueueContext(enqueueCtx, task, opts...); err != nil {
		r.logger.Warn("Failed to enqueue audit event",
			zap.String("kind", kind),
			zap.String("actorId", actorID),
			zap.Error(err))
	}
}

// StoreRecorder writes events straight to the audit store. Used when no queue is configured.
type StoreRecorder struct {
	repo   auditRepo.AuditRepository
	logger *zap.Logger
}

func NewStoreRecorder(repo auditRepo.AuditRepository, logger *zap.Logger) *StoreRecorder {
	return &StoreRecorder{repo: repo, logger: logger}
}

func (r *StoreRecorder) Record(ctx context.Context, kind, description, actorID string) {
	if err := r.repo.Insert(ctx, newEvent(kind, description, actorID)); err != nil {
		r.logger.Warn("Failed to store audit event", zap.String("kind", kind), zap.Error(err))
	}
}

// LogRecorder only logs events.
type LogRecorder struct {
	logger *zap.Logger
}

func NewLogRecorder(logger *zap.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) Record(_ context.Context, kind, description, actorID string) {
	r.logger.Info("Audit",
		zap.String("kind", kind),
		zap.String("description", description),
		zap.String("actorId", actorID))
}
