package availabilityRepo

import (
	"context"

	"tutordesk/models"
)

// AvailabilityRepository stores teachers' weekly windows. ReplaceAll swaps a teacher's whole
// set at once; readers see either the old or the new set, never a mix.
type AvailabilityRepository interface {
	ListWindows(ctx context.Context, teacherID string) ([]models.AvailabilityWindow, error)
	ListWindowsForTeachers(ctx context.Context, teacherIDs []string) ([]models.AvailabilityWindow, error)
	ReplaceAll(ctx context.Context, teacherID string, windows []models.AvailabilityWindow) error
}
