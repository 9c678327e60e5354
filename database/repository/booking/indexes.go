package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates the indexes backing the scope and calendar queries.
func (repo *MongoBookingRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Conflict checks read active bookings per teacher or class.
		{
			Keys:    bson.D{{Key: "scope.teacherId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index().SetName("teacher_active_idx"),
		},
		{
			Keys:    bson.D{{Key: "scope.classId", Value: 1}, {Key: "isActive", Value: 1}},
			Options: options.Index().SetName("class_active_idx"),
		},
		{
			Keys:    bson.D{{Key: "base.start", Value: 1}, {Key: "spanEnd", Value: 1}},
			Options: options.Index().SetName("span_idx"),
		},
	}

	if _, err := repo.bookingColl.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
