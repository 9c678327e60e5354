package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MinutesPerDay bounds a time-of-day value.
const MinutesPerDay = 24 * 60

// AvailabilityWindow is a weekly recurring range in which a teacher can be booked.
type AvailabilityWindow struct {
	ID          string       `bson:"id" json:"id"`
	TeacherID   string       `bson:"teacherId" json:"teacherId"`
	DayOfWeek   time.Weekday `bson:"dayOfWeek" json:"dayOfWeek"` // 0 = Sunday
	Start       int          `bson:"start" json:"start"`         // minutes from midnight
	End         int          `bson:"end" json:"end"`             // minutes from midnight, exclusive
	IsAvailable bool         `bson:"isAvailable" json:"isAvailable"`
}

// Covers reports whether the window is open at the given minute of its day.
func (w AvailabilityWindow) Covers(minute int) bool {
	return w.IsAvailable && w.Start <= minute && minute < w.End
}

// Label renders the window as "09:00-17:00".
func (w AvailabilityWindow) Label() string {
	return FormatClock(w.Start) + "-" + FormatClock(w.End)
}

// AvailabilityWindowInput is one entry of a PUT availability body.
type AvailabilityWindowInput struct {
	DayOfWeek   int    `json:"dayOfWeek"`
	Start       string `json:"start" binding:"required"` // "HH:MM"
	End         string `json:"end" binding:"required"`   // "HH:MM", "24:00" allowed
	IsAvailable *bool  `json:"isAvailable"`
}

// ReplaceAvailabilityRequest carries a teacher's full weekly window set.
type ReplaceAvailabilityRequest struct {
	Windows []AvailabilityWindowInput `json:"windows"`
}

// TeachingAssignment links a teacher to a subject they teach.
type TeachingAssignment struct {
	TeacherID string `bson:"teacherId" json:"teacherId"`
	SubjectID string `bson:"subjectId" json:"subjectId"`
}

// ReplaceSubjectsRequest carries the complete subject list for one teacher.
type ReplaceSubjectsRequest struct {
	SubjectIDs []string `json:"subjectIds"`
}

// AvailabilityQuery is the input of a free-teacher search.
// AsOf, when set, ignores bookings whose last occurrence ended before it.
type AvailabilityQuery struct {
	SubjectID string
	DayOfWeek time.Weekday
	Minute    int
	AsOf      time.Time
}

// AvailableTeacher is one row of a free-teacher search.
type AvailableTeacher struct {
	TeacherID string               `json:"teacherId"`
	Windows   []AvailabilityWindow `json:"windows"`
}

// ParseClock converts "HH:MM" into minutes from midnight. "24:00" is accepted as end of day.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes from midnight as "HH:MM".
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// MinuteOfDay returns t's minutes from midnight in its own location.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
