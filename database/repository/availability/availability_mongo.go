package availabilityRepo

import (
	"context"
	"fmt"
	"time"

	"tutordesk/database/repository"
	"tutordesk/models"
	"tutordesk/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoAvailabilityRepo implements AvailabilityRepository using MongoDB.
type MongoAvailabilityRepo struct {
	coll *mongo.Collection
}

func NewMongoAvailabilityRepo(db *mongo.Database) AvailabilityRepository {
	repo := &MongoAvailabilityRepo{coll: db.Collection("availability_windows")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("Failed to create availability indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoAvailabilityRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		{
			Keys:    bson.D{{Key: "teacherId", Value: 1}, {Key: "dayOfWeek", Value: 1}, {Key: "start", Value: 1}},
			Options: options.Index().SetName("teacher_day_start_idx"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create availability indexes: %w", err)
	}
	return nil
}

func (r *MongoAvailabilityRepo) find(ctx context.Context, filter bson.M) ([]models.AvailabilityWindow, error) {
	ctx, cancel := context.WithTimeout(ctx, repository.OpTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "teacherId", Value: 1},
		{Key: "dayOfWeek", Value: 1},
		{Key: "start", Value: 1},
	})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding availability windows: %w", err)
	}
	defer cursor.Close(ctx)

	windows := []models.AvailabilityWindow{}
	if err := cursor.All(ctx, &windows); err != nil {
		return nil, fmt.Errorf("error decoding availability windows: %w", err)
	}
	return windows, nil
}

func (r *MongoAvailabilityRepo) ListWindows(ctx context.Context, teacherID string) ([]models.AvailabilityWindow, error) {
	return r.find(ctx, bson.M{"teacherId": teacherID})
}

func (r *MongoAvailabilityRepo) ListWindowsForTeachers(ctx context.Context, teacherIDs []string) ([]models.AvailabilityWindow, error) {
	if len(teacherIDs) == 0 {
		return []models.AvailabilityWindow{}, nil
	}
	return r.find(ctx, bson.M{"teacherId": bson.M{"$in": teacherIDs}})
}

// ReplaceAll deletes the teacher's windows and inserts the new set in one transaction.
func (r *MongoAvailabilityRepo) ReplaceAll(ctx context.Context, teacherID string, windows []models.AvailabilityWindow) error {
	client := r.coll.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		opCtx, cancel := context.WithTimeout(sc, repository.OpTimeout)
		defer cancel()

		if _, err := r.coll.DeleteMany(opCtx, bson.M{"teacherId": teacherID}); err != nil {
			return nil, fmt.Errorf("error clearing windows: %w", err)
		}
		if len(windows) == 0 {
			return nil, nil
		}
		docs := make([]interface{}, len(windows))
		for i, w := range windows {
			docs[i] = w
		}
		if _, err := r.coll.InsertMany(opCtx, docs); err != nil {
			return nil, fmt.Errorf("error inserting windows: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("replace availability for teacher %s failed: %w", teacherID, err)
	}
	return nil
}
