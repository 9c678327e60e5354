package scheduling

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tutordesk/models"
)

// AssignmentLookup resolves which teachers teach a subject.
type AssignmentLookup interface {
	TeachersForSubject(ctx context.Context, subjectID string) ([]string, error)
}

// WindowLister loads availability windows for a set of teachers.
type WindowLister interface {
	ListWindowsForTeachers(ctx context.Context, teacherIDs []string) ([]models.AvailabilityWindow, error)
}

// Matcher finds teachers who teach a subject, are available at a weekly time point and are not
// already booked then.
type Matcher struct {
	assignments AssignmentLookup
	windows     WindowLister
	bookings    ActiveBookingLister
	expander    *Expander
	concurrency int
	logger      *zap.Logger
}

func NewMatcher(assignments AssignmentLookup, windows WindowLister, bookings ActiveBookingLister, expander *Expander, concurrency int, logger *zap.Logger) *Matcher {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		assignments: assignments,
		windows:     windows,
		bookings:    bookings,
		expander:    expander,
		concurrency: concurrency,
		logger:      logger,
	}
}

// FindAvailableTeachers returns the free teachers ordered by teacher id, each with its windows
// for the queried day.
func (m *Matcher) FindAvailableTeachers(ctx context.Context, q models.AvailabilityQuery) ([]models.AvailableTeacher, error) {
	if q.SubjectID == "" {
		return nil, NewValidationError("subjectId", "is required")
	}
	if q.DayOfWeek < 0 || q.DayOfWeek > 6 {
		return nil, NewValidationError("dayOfWeek", "must be between 0 and 6, got %d", q.DayOfWeek)
	}
	if q.Minute < 0 || q.Minute >= models.MinutesPerDay {
		return nil, NewValidationError("time", "must be within the day, got minute %d", q.Minute)
	}

	teacherIDs, err := m.assignments.TeachersForSubject(ctx, q.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to load teachers for subject %s: %w", q.SubjectID, err)
	}
	teacherIDs = dedupe(teacherIDs)
	if len(teacherIDs) == 0 {
		return []models.AvailableTeacher{}, nil
	}

	windows, err := m.windows.ListWindowsForTeachers(ctx, teacherIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load availability windows: %w", err)
	}
	idx := NewAvailabilityIndex(windows)

	var covered []string
	for _, id := range teacherIDs {
		if idx.Covers(id, q.DayOfWeek, q.Minute) {
			covered = append(covered, id)
		}
	}
	m.logger.Debug("Availability candidates",
		zap.String("subjectId", q.SubjectID),
		zap.Int("assigned", len(teacherIDs)),
		zap.Int("covered", len(covered)))

	busy := make([]bool, len(covered))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, id := range covered {
		g.Go(func() error {
			occupied, err := m.isOccupied(gctx, id, q)
			if err != nil {
				return err
			}
			busy[i] = occupied
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]models.AvailableTeacher, 0, len(covered))
	for i, id := range covered {
		if busy[i] {
			continue
		}
		result = append(result, models.AvailableTeacher{
			TeacherID: id,
			Windows:   idx.WindowsFor(id, q.DayOfWeek),
		})
	}
	return result, nil
}

func (m *Matcher) isOccupied(ctx context.Context, teacherID string, q models.AvailabilityQuery) (bool, error) {
	bookings, err := m.bookings.ListActive(ctx, models.TeacherScope(teacherID))
	if err != nil {
		return false, fmt.Errorf("failed to list bookings for teacher %s: %w", teacherID, err)
	}
	for _, b := range bookings {
		if !b.IsActive || b.Scope.TeacherID != teacherID {
			continue
		}
		if !q.AsOf.IsZero() && m.expander.LastOccurrenceEnd(b).Before(q.AsOf) {
			continue
		}
		if m.expander.OccursOnWeekday(b, q.DayOfWeek, q.Minute) {
			return true, nil
		}
	}
	return false, nil
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return slices.Compact(out)
}
