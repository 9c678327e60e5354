package availability

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	assignmentRepo "tutordesk/database/repository/assignment"
	availabilityRepo "tutordesk/database/repository/availability"
	"tutordesk/models"
	"tutordesk/services/audit"
	"tutordesk/services/scheduling"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailabilityService manages teachers' weekly windows and subject assignments and answers
// free-teacher searches.
type AvailabilityService interface {
	ReplaceWindows(ctx context.Context, actor models.Actor, teacherID string, inputs []models.AvailabilityWindowInput) ([]models.AvailabilityWindow, error)
	ListWindows(ctx context.Context, teacherID string) ([]models.AvailabilityWindow, error)
	ReplaceSubjects(ctx context.Context, actor models.Actor, teacherID string, subjectIDs []string) ([]string, error)
	Search(ctx context.Context, q models.AvailabilityQuery) ([]models.AvailableTeacher, error)
}

// DefaultAvailabilityService implements AvailabilityService.
type DefaultAvailabilityService struct {
	Windows     availabilityRepo.AvailabilityRepository
	Assignments assignmentRepo.AssignmentRepository
	Matcher     *scheduling.Matcher
	Audit       audit.Recorder
	Logger      *zap.Logger
}

func NewAvailabilityService(
	windows availabilityRepo.AvailabilityRepository,
	assignments assignmentRepo.AssignmentRepository,
	matcher *scheduling.Matcher,
	recorder audit.Recorder,
	logger *zap.Logger,
) *DefaultAvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = audit.NewLogRecorder(logger)
	}
	return &DefaultAvailabilityService{
		Windows:     windows,
		Assignments: assignments,
		Matcher:     matcher,
		Audit:       recorder,
		Logger:      logger,
	}
}

// ReplaceWindows validates the full weekly set and swaps it in atomically. Overlapping windows
// are accepted; Covers treats them as a union.
func (s *DefaultAvailabilityService) ReplaceWindows(ctx context.Context, actor models.Actor, teacherID string, inputs []models.AvailabilityWindowInput) ([]models.AvailabilityWindow, error) {
	teacherID = strings.TrimSpace(teacherID)
	if teacherID == "" {
		return nil, scheduling.NewValidationError("teacherId", "is required")
	}
	windows, err := buildWindows(teacherID, inputs)
	if err != nil {
		return nil, err
	}
	if err := s.Windows.ReplaceAll(ctx, teacherID, windows); err != nil {
		s.Logger.Error("Failed to replace availability", zap.String("teacherId", teacherID), zap.Error(err))
		return nil, fmt.Errorf("failed to replace availability: %w", err)
	}

	s.Logger.Info("Availability replaced", zap.String("teacherId", teacherID), zap.Int("windows", len(windows)))
	s.Audit.Record(ctx, models.AuditAvailabilityReplaced,
		fmt.Sprintf("Replaced availability of teacher %s with %d windows", teacherID, len(windows)), actor.ID)
	return windows, nil
}

func (s *DefaultAvailabilityService) ListWindows(ctx context.Context, teacherID string) ([]models.AvailabilityWindow, error) {
	windows, err := s.Windows.ListWindows(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	sortWindows(windows)
	return windows, nil
}

// ReplaceSubjects sets the complete list of subjects a teacher teaches.
func (s *DefaultAvailabilityService) ReplaceSubjects(ctx context.Context, actor models.Actor, teacherID string, subjectIDs []string) ([]string, error) {
	teacherID = strings.TrimSpace(teacherID)
	if teacherID == "" {
		return nil, scheduling.NewValidationError("teacherId", "is required")
	}
	seen := make(map[string]bool, len(subjectIDs))
	cleaned := make([]string, 0, len(subjectIDs))
	for _, id := range subjectIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, scheduling.NewValidationError("subjectIds", "must not contain empty ids")
		}
		if !seen[id] {
			seen[id] = true
			cleaned = append(cleaned, id)
		}
	}
	sort.Strings(cleaned)

	if err := s.Assignments.ReplaceSubjects(ctx, teacherID, cleaned); err != nil {
		return nil, fmt.Errorf("failed to replace subjects: %w", err)
	}
	s.Audit.Record(ctx, models.AuditSubjectsReplaced,
		fmt.Sprintf("Teacher %s now teaches %s", teacherID, strings.Join(cleaned, ", ")), actor.ID)
	return cleaned, nil
}

// Search lists the teachers free for a subject at a weekly time point.
func (s *DefaultAvailabilityService) Search(ctx context.Context, q models.AvailabilityQuery) ([]models.AvailableTeacher, error) {
	q.SubjectID = strings.TrimSpace(q.SubjectID)
	return s.Matcher.FindAvailableTeachers(ctx, q)
}

func buildWindows(teacherID string, inputs []models.AvailabilityWindowInput) ([]models.AvailabilityWindow, error) {
	windows := make([]models.AvailabilityWindow, 0, len(inputs))
	for i, in := range inputs {
		field := fmt.Sprintf("windows[%d]", i)
		if in.DayOfWeek < 0 || in.DayOfWeek > 6 {
			return nil, scheduling.NewValidationError(field, "dayOfWeek must be between 0 and 6, got %d", in.DayOfWeek)
		}
		start, err := models.ParseClock(in.Start)
		if err != nil {
			return nil, scheduling.NewValidationError(field, "%v", err)
		}
		end, err := models.ParseClock(in.End)
		if err != nil {
			return nil, scheduling.NewValidationError(field, "%v", err)
		}
		if start >= models.MinutesPerDay || start >= end {
			return nil, scheduling.NewValidationError(field, "start %s must be before end %s", in.Start, in.End)
		}
		available := true
		if in.IsAvailable != nil {
			available = *in.IsAvailable
		}
		windows = append(windows, models.AvailabilityWindow{
			ID:          uuid.New().String(),
			TeacherID:   teacherID,
			DayOfWeek:   time.Weekday(in.DayOfWeek),
			Start:       start,
			End:         end,
			IsAvailable: available,
		})
	}
	sortWindows(windows)
	return windows, nil
}

func sortWindows(windows []models.AvailabilityWindow) {
	sort.SliceStable(windows, func(i, j int) bool {
		if windows[i].DayOfWeek != windows[j].DayOfWeek {
			return windows[i].DayOfWeek < windows[j].DayOfWeek
		}
		return windows[i].Start < windows[j].Start
	})
}
