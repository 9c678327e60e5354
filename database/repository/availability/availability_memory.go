package availabilityRepo

import (
	"context"
	"slices"
	"sort"
	"sync"

	"tutordesk/models"
)

// MemoryAvailabilityRepo swaps each teacher's slice under a lock, so readers see a complete set.
type MemoryAvailabilityRepo struct {
	mu      sync.RWMutex
	windows map[string][]models.AvailabilityWindow
}

func NewMemoryAvailabilityRepo() *MemoryAvailabilityRepo {
	return &MemoryAvailabilityRepo{windows: make(map[string][]models.AvailabilityWindow)}
}

func (r *MemoryAvailabilityRepo) ListWindows(_ context.Context, teacherID string) ([]models.AvailabilityWindow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := slices.Clone(r.windows[teacherID])
	if out == nil {
		out = []models.AvailabilityWindow{}
	}
	return out, nil
}

func (r *MemoryAvailabilityRepo) ListWindowsForTeachers(_ context.Context, teacherIDs []string) ([]models.AvailabilityWindow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.AvailabilityWindow{}
	for _, id := range teacherIDs {
		out = append(out, r.windows[id]...)
	}
	return out, nil
}

func (r *MemoryAvailabilityRepo) ReplaceAll(_ context.Context, teacherID string, windows []models.AvailabilityWindow) error {
	next := slices.Clone(windows)
	sort.SliceStable(next, func(i, j int) bool {
		if next[i].DayOfWeek != next[j].DayOfWeek {
			return next[i].DayOfWeek < next[j].DayOfWeek
		}
		return next[i].Start < next[j].Start
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(next) == 0 {
		delete(r.windows, teacherID)
		return nil
	}
	r.windows[teacherID] = next
	return nil
}
