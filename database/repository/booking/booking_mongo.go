package bookingRepo

import (
	"context"
	"errors"
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

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	bookingColl *mongo.Collection
	lockColl    *mongo.Collection
}

// NewMongoBookingRepo constructs a new instance of MongoBookingRepo.
func NewMongoBookingRepo(db *mongo.Database) BookingRepository {
	repo := &MongoBookingRepo{
		bookingColl: db.Collection("bookings"),
		lockColl:    db.Collection("scope_locks"),
	}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("Failed to create booking indexes", zap.Error(err))
	}
	return repo
}

// scopeFilter matches bookings sharing a teacher or a class with scope.
func scopeFilter(teacherID, classID string) bson.A {
	var or bson.A
	if teacherID != "" {
		or = append(or, bson.M{"scope.teacherId": teacherID})
	}
	if classID != "" {
		or = append(or, bson.M{"scope.classId": classID})
	}
	return or
}

func decodeBookings(ctx context.Context, cursor *mongo.Cursor) ([]models.Booking, error) {
	defer cursor.Close(ctx)

	var bookings []models.Booking
	for cursor.Next(ctx) {
		var b models.Booking
		if err := cursor.Decode(&b); err != nil {
			return nil, fmt.Errorf("error decoding booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return bookings, nil
}

// ListActive returns the active bookings of the scope's teacher or class.
func (repo *MongoBookingRepo) ListActive(ctx context.Context, scope models.Scope) ([]models.Booking, error) {
	or := scopeFilter(scope.TeacherID, scope.ClassID)
	if len(or) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, repository.OpTimeout)
	defer cancel()

	filter := bson.M{"isActive": true, "$or": or}
	cursor, err := repo.bookingColl.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error finding active bookings: %w", err)
	}
	return decodeBookings(ctx, cursor)
}

// ListForWindow returns bookings whose [base start, span end) range touches the window.
func (repo *MongoBookingRepo) ListForWindow(ctx context.Context, q models.CalendarQuery) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, repository.OpTimeout)
	defer cancel()

	filter := bson.M{
		"base.start": bson.M{"$lt": q.Window.End},
		"spanEnd":    bson.M{"$gt": q.Window.Start},
	}
	if !q.IncludeInactive {
		filter["isActive"] = true
	}
	if or := scopeFilter(q.TeacherID, q.ClassID); len(or) > 0 {
		filter["$or"] = or
	}

	opts := options.Find().SetSort(bson.D{{Key: "base.start", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := repo.bookingColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding bookings for window: %w", err)
	}
	return decodeBookings(ctx, cursor)
}

// GetByID retrieves a booking by its ID.
func (repo *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, repository.OpTimeout)
	defer cancel()

	var booking models.Booking
	err := repo.bookingColl.FindOne(ctx, bson.M{"id": id}).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching booking %s: %w", id, err)
	}
	return &booking, nil
}

// Insert stores a new booking document.
func (repo *MongoBookingRepo) Insert(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, repository.OpTimeout)
	defer cancel()

	if _, err := repo.bookingColl.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

// UpdateByID replaces the stored fields of an active booking. Removed bookings stay removed.
func (repo *MongoBookingRepo) UpdateByID(ctx context.Context, id string, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, repository.OpTimeout)
	defer cancel()

	res, err := repo.bookingColl.ReplaceOne(ctx, bson.M{"id": id, "isActive": true}, booking)
	if err != nil {
		return fmt.Errorf("error updating booking %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SoftDeactivate clears isActive on an active booking and stamps the removal time.
func (repo *MongoBookingRepo) SoftDeactivate(ctx context.Context, id string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, repository.OpTimeout)
	defer cancel()

	filter := bson.M{"id": id, "isActive": true}
	update := bson.M{"$set": bson.M{"isActive": false, "deactivatedAt": at, "updatedAt": at}}
	res, err := repo.bookingColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error deactivating booking %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}
