package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"tutordesk/database/repository"
	"tutordesk/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RunInScope runs fn inside a multi-document transaction that first bumps one lock document
// per scope key. Two units on the same teacher or class write the same lock document, so the
// later one hits a write conflict and WithTransaction retries it against the committed state.
func (repo *MongoBookingRepo) RunInScope(ctx context.Context, fn func(ctx context.Context) error, scopes ...models.Scope) error {
	keys := lockKeys(scopes)
	if err := repo.ensureLocks(ctx, keys); err != nil {
		return err
	}

	client := repo.bookingColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		now := time.Now().UTC()
		for _, key := range keys {
			update := bson.M{"$inc": bson.M{"version": 1}, "$set": bson.M{"touchedAt": now}}
			if _, err := repo.lockColl.UpdateOne(sc, bson.M{"_id": key}, update); err != nil {
				return nil, fmt.Errorf("failed to lock %s: %w", key, err)
			}
		}
		return nil, fn(sc)
	})
	if err != nil {
		return fmt.Errorf("scoped transaction failed: %w", err)
	}
	return nil
}

// ensureLocks creates missing lock documents outside any transaction, so concurrent first
// bookings on a scope race on an update instead of on an insert.
func (repo *MongoBookingRepo) ensureLocks(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, repository.OpTimeout)
	defer cancel()

	for _, key := range keys {
		_, err := repo.lockColl.UpdateOne(ctx,
			bson.M{"_id": key},
			bson.M{"$setOnInsert": bson.M{"version": 0}},
			options.Update().SetUpsert(true))
		if err != nil && !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to create lock %s: %w", key, err)
		}
	}
	return nil
}
