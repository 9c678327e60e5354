package assignmentRepo

import (
	"context"
	"fmt"
	"slices"
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

// AssignmentRepository links teachers to the subjects they teach.
type AssignmentRepository interface {
	TeachersForSubject(ctx context.Context, subjectID string) ([]string, error)
	SubjectsTaughtBy(ctx context.Context, teacherID string) ([]string, error)
	ReplaceSubjects(ctx context.Context, teacherID string, subjectIDs []string) error
}

// MongoAssignmentRepo implements AssignmentRepository using MongoDB.
type MongoAssignmentRepo struct {
	coll *mongo.Collection
}

func NewMongoAssignmentRepo(db *mongo.Database) AssignmentRepository {
	repo := &MongoAssignmentRepo{coll: db.Collection("teaching_assignments")}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Warn("Failed to create assignment indexes", zap.Error(err))
	}
	return repo
}

func (r *MongoAssignmentRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "teacherId", Value: 1}, {Key: "subjectId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("teacher_subject_idx"),
		},
		{
			Keys:    bson.D{{Key: "subjectId", Value: 1}},
			Options: options.Index().SetName("subject_idx"),
		},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create assignment indexes: %w", err)
	}
	return nil
}

func (r *MongoAssignmentRepo) distinct(ctx context.Context, field string, filter bson.M) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, repository.OpTimeout)
	defer cancel()

	values, err := r.coll.Distinct(ctx, field, filter)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", field, err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *MongoAssignmentRepo) TeachersForSubject(ctx context.Context, subjectID string) ([]string, error) {
	return r.distinct(ctx, "teacherId", bson.M{"subjectId": subjectID})
}

func (r *MongoAssignmentRepo) SubjectsTaughtBy(ctx context.Context, teacherID string) ([]string, error) {
	return r.distinct(ctx, "subjectId", bson.M{"teacherId": teacherID})
}

// ReplaceSubjects swaps the teacher's subject list in one transaction.
func (r *MongoAssignmentRepo) ReplaceSubjects(ctx context.Context, teacherID string, subjectIDs []string) error {
	sess, err := r.coll.Database().Client().StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		opCtx, cancel := context.WithTimeout(sc, repository.OpTimeout)
		defer cancel()

		if _, err := r.coll.DeleteMany(opCtx, bson.M{"teacherId": teacherID}); err != nil {
			return nil, fmt.Errorf("error clearing assignments: %w", err)
		}
		if len(subjectIDs) == 0 {
			return nil, nil
		}
		docs := make([]interface{}, len(subjectIDs))
		for i, s := range subjectIDs {
			docs[i] = models.TeachingAssignment{TeacherID: teacherID, SubjectID: s}
		}
		if _, err := r.coll.InsertMany(opCtx, docs); err != nil {
			return nil, fmt.Errorf("error inserting assignments: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("replace subjects for teacher %s failed: %w", teacherID, err)
	}
	return nil
}

// MemoryAssignmentRepo keeps assignments in process.
type MemoryAssignmentRepo struct {
	mu       sync.RWMutex
	subjects map[string][]string // teacherID -> sorted subject ids
}

func NewMemoryAssignmentRepo() *MemoryAssignmentRepo {
	return &MemoryAssignmentRepo{subjects: make(map[string][]string)}
}

func (r *MemoryAssignmentRepo) TeachersForSubject(_ context.Context, subjectID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []string{}
	for teacherID, subjects := range r.subjects {
		if slices.Contains(subjects, subjectID) {
			out = append(out, teacherID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *MemoryAssignmentRepo) SubjectsTaughtBy(_ context.Context, teacherID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := slices.Clone(r.subjects[teacherID])
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (r *MemoryAssignmentRepo) ReplaceSubjects(_ context.Context, teacherID string, subjectIDs []string) error {
	next := slices.Clone(subjectIDs)
	sort.Strings(next)

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(next) == 0 {
		delete(r.subjects, teacherID)
		return nil
	}
	r.subjects[teacherID] = next
	return nil
}
