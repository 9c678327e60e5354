package scheduling

import (
	"slices"
	"sort"
	"time"

	"tutordesk/models"
)

// AvailabilityIndex groups weekly windows by teacher and weekday. It is immutable once built,
// so readers never observe a partially replaced window set.
type AvailabilityIndex struct {
	windows map[string]map[time.Weekday][]models.AvailabilityWindow
}

// NewAvailabilityIndex builds an index over windows, each day's windows ordered by start.
func NewAvailabilityIndex(windows []models.AvailabilityWindow) *AvailabilityIndex {
	idx := &AvailabilityIndex{windows: make(map[string]map[time.Weekday][]models.AvailabilityWindow)}
	for _, w := range windows {
		days, ok := idx.windows[w.TeacherID]
		if !ok {
			days = make(map[time.Weekday][]models.AvailabilityWindow)
			idx.windows[w.TeacherID] = days
		}
		days[w.DayOfWeek] = append(days[w.DayOfWeek], w)
	}
	for _, days := range idx.windows {
		for _, list := range days {
			sort.SliceStable(list, func(i, j int) bool {
				if list[i].Start != list[j].Start {
					return list[i].Start < list[j].Start
				}
				return list[i].End < list[j].End
			})
		}
	}
	return idx
}

// WindowsFor returns a copy of the teacher's windows on day.
func (x *AvailabilityIndex) WindowsFor(teacherID string, day time.Weekday) []models.AvailabilityWindow {
	return slices.Clone(x.windows[teacherID][day])
}

// Covers reports whether some available window of the teacher on day contains minute.
func (x *AvailabilityIndex) Covers(teacherID string, day time.Weekday, minute int) bool {
	for _, w := range x.windows[teacherID][day] {
		if w.Covers(minute) {
			return true
		}
	}
	return false
}

// Teachers lists the indexed teacher ids in ascending order.
func (x *AvailabilityIndex) Teachers() []string {
	ids := make([]string, 0, len(x.windows))
	for id := range x.windows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
