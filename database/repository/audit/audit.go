package auditRepo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"tutordesk/database/repository"
	"tutordesk/models"
	"tutordesk/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// AuditRepository stores the activity log.
type AuditRepository interface {
	// Insert is idempotent on event id so redelivered tasks do not duplicate entries.
	Insert(ctx context.Context, event models.AuditEvent) error
	ListRecent(ctx context.Context, limit int) ([]models.AuditEvent, error)
}

// MongoAuditRepo implements AuditRepository using MongoDB.
type MongoAuditRepo struct {
	coll *mongo.Collection
}

func NewMongoAuditRepo(db *mongo.Database) AuditRepository {
	repo := &MongoAuditRepo{coll: db.Collection("audit_events")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("Failed to create audit indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoAuditRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "occurredAt", Value: -1}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create audit indexes: %w", err)
	}
	return nil
}

func (r *MongoAuditRepo) Insert(ctx context.Context, event models.AuditEvent) error {
	ctx, cancel := context.WithTimeout(ctx, repository.OpTimeout)
	defer cancel()

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"id": event.ID},
		bson.M{"$setOnInsert": event},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("error recording audit event %s: %w", event.ID, err)
	}
	return nil
}

func (r *MongoAuditRepo) ListRecent(ctx context.Context, limit int) ([]models.AuditEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, repository.OpTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "occurredAt", Value: -1}}).SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing audit events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []models.AuditEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("error decoding audit events: %w", err)
	}
	return events, nil
}

// MemoryAuditRepo keeps the activity log in process.
type MemoryAuditRepo struct {
	mu     sync.RWMutex
	events []models.AuditEvent
	seen   map[string]bool
}

func NewMemoryAuditRepo() *MemoryAuditRepo {
	return &MemoryAuditRepo{seen: make(map[string]bool)}
}

func (r *MemoryAuditRepo) Insert(_ context.Context, event models.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[event.ID] {
		return nil
	}
	r.seen[event.ID] = true
	r.events = append(r.events, event)
	return nil
}

func (r *MemoryAuditRepo) ListRecent(_ context.Context, limit int) ([]models.AuditEvent, error) {
	r.mu.RLock()
	out := make([]models.AuditEvent, len(r.events))
	copy(out, r.events)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
