package models

import (
	"fmt"
	"strings"
	"time"
)

// BookingKind classifies a calendar entry.
type BookingKind string

const (
	KindClass             BookingKind = "CLASS"
	KindHoliday           BookingKind = "HOLIDAY"
	KindBreak             BookingKind = "BREAK"
	KindAvailabilityBlock BookingKind = "AVAILABILITY_BLOCK"
	KindOther             BookingKind = "OTHER"
)

// ParseBookingKind normalizes and validates a kind string.
func ParseBookingKind(s string) (BookingKind, error) {
	switch k := BookingKind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindClass, KindHoliday, KindBreak, KindAvailabilityBlock, KindOther:
		return k, nil
	}
	return "", fmt.Errorf("unknown booking kind %q", s)
}

// RecurrenceType is the closed set of repetition patterns a booking can follow.
type RecurrenceType string

const (
	RecurNone     RecurrenceType = "NONE"
	RecurDaily    RecurrenceType = "DAILY"
	RecurWeekly   RecurrenceType = "WEEKLY"
	RecurBiweekly RecurrenceType = "BIWEEKLY"
	RecurMonthly  RecurrenceType = "MONTHLY"
)

// ParseRecurrenceType accepts the rule names case-insensitively; empty means NONE.
func ParseRecurrenceType(s string) (RecurrenceType, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return RecurNone, nil
	}
	switch t := RecurrenceType(s); t {
	case RecurNone, RecurDaily, RecurWeekly, RecurBiweekly, RecurMonthly:
		return t, nil
	}
	return "", fmt.Errorf("unknown recurrence rule %q", s)
}

// RecurrenceRule pairs a repetition pattern with its inclusive end bound.
// Until is required whenever Type is not RecurNone.
type RecurrenceRule struct {
	Type  RecurrenceType `bson:"type" json:"type"`
	Until *time.Time     `bson:"until,omitempty" json:"until,omitempty"`
}

// IsRecurring reports whether the rule produces more than the base occurrence.
func (r RecurrenceRule) IsRecurring() bool {
	return r.Type != "" && r.Type != RecurNone
}

// Booking unifies calendar events and class bookings.
type Booking struct {
	ID            string         `bson:"id" json:"id"`
	Kind          BookingKind    `bson:"kind" json:"kind"`
	Title         string         `bson:"title,omitempty" json:"title,omitempty"`
	SubjectID     string         `bson:"subjectId,omitempty" json:"subjectId,omitempty"`
	Notes         string         `bson:"notes,omitempty" json:"notes,omitempty"`
	Base          Interval       `bson:"base" json:"base"`
	Recurrence    RecurrenceRule `bson:"recurrence" json:"recurrence"`
	Scope         Scope          `bson:"scope" json:"scope"`
	SpanEnd       time.Time      `bson:"spanEnd" json:"spanEnd"` // end of the last occurrence
	IsActive      bool           `bson:"isActive" json:"isActive"`
	CreatedBy     string         `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	CreatedAt     time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time      `bson:"updatedAt" json:"updatedAt"`
	DeactivatedAt *time.Time     `bson:"deactivatedAt,omitempty" json:"deactivatedAt,omitempty"`
}

// BookingInput is the payload of a create request.
type BookingInput struct {
	Kind          string     `json:"kind" binding:"required"`
	Title         string     `json:"title"`
	SubjectID     string     `json:"subjectId"`
	Notes         string     `json:"notes"`
	Start         time.Time  `json:"start" binding:"required"`
	End           time.Time  `json:"end" binding:"required"`
	Recurrence    string     `json:"recurrence"`
	RecurrenceEnd *time.Time `json:"recurrenceEnd"`
	TeacherID     string     `json:"teacherId"`
	ClassID       string     `json:"classId"`
}

// BookingChanges is the payload of a partial update; nil fields are left untouched.
type BookingChanges struct {
	Kind          *string    `json:"kind"`
	Title         *string    `json:"title"`
	SubjectID     *string    `json:"subjectId"`
	Notes         *string    `json:"notes"`
	Start         *time.Time `json:"start"`
	End           *time.Time `json:"end"`
	Recurrence    *string    `json:"recurrence"`
	RecurrenceEnd *time.Time `json:"recurrenceEnd"`
	TeacherID     *string    `json:"teacherId"`
	ClassID       *string    `json:"classId"`
}

// BookingWithOccurrences is a calendar view row: a booking plus its occurrences inside the queried window.
type BookingWithOccurrences struct {
	Booking     Booking    `json:"booking"`
	Occurrences []Interval `json:"occurrences"`
}

// CalendarQuery selects the bookings shown on a calendar window.
type CalendarQuery struct {
	Window          Interval
	TeacherID       string
	ClassID         string
	IncludeInactive bool
}
