package scheduling

import (
	"context"
	"fmt"
	"sort"

	"tutordesk/models"
)

// ActiveBookingLister returns active bookings sharing a teacher or a class with scope.
// Implementations called with a transaction context read inside that transaction.
type ActiveBookingLister interface {
	ListActive(ctx context.Context, scope models.Scope) ([]models.Booking, error)
}

// Conflict describes the first overlap found for a candidate.
type Conflict struct {
	BookingID  string             `json:"bookingId"`
	Kind       models.BookingKind `json:"kind"`
	Title      string             `json:"title,omitempty"`
	Scope      models.Scope       `json:"scope"`
	Occurrence models.Interval    `json:"occurrence"`
	Candidate  models.Interval    `json:"candidate"`
}

// Reason renders the conflict for API responses and logs.
func (c Conflict) Reason() string {
	return fmt.Sprintf("overlaps %s booking %s for %s from %s to %s",
		c.Kind, c.BookingID, c.Scope,
		c.Occurrence.Start.Format("2006-01-02 15:04"),
		c.Occurrence.End.Format("2006-01-02 15:04"))
}

// ConflictDetector checks candidates against active bookings. Recurring bookings are always
// expanded; a booking's base interval alone is never trusted.
type ConflictDetector struct {
	bookings ActiveBookingLister
	expander *Expander
}

func NewConflictDetector(bookings ActiveBookingLister, expander *Expander) *ConflictDetector {
	return &ConflictDetector{bookings: bookings, expander: expander}
}

// HasConflict reports whether candidate overlaps any occurrence of an active booking in scope,
// ignoring the booking with id excludeID.
func (d *ConflictDetector) HasConflict(ctx context.Context, candidate models.Interval, scope models.Scope, excludeID string) (bool, error) {
	c, err := d.FindConflict(ctx, candidate, scope, excludeID)
	return c != nil, err
}

// FindConflict is HasConflict returning the conflicting occurrence.
func (d *ConflictDetector) FindConflict(ctx context.Context, candidate models.Interval, scope models.Scope, excludeID string) (*Conflict, error) {
	return d.FindBookingConflict(ctx, models.Booking{
		ID:         excludeID,
		Base:       candidate,
		Recurrence: models.RecurrenceRule{Type: models.RecurNone},
		Scope:      scope,
		IsActive:   true,
	})
}

// FindBookingConflict checks every occurrence of candidate against the active bookings in its
// scope. The booking with candidate.ID is skipped so an edit never conflicts with itself.
// It returns nil when nothing overlaps or the candidate has the empty scope.
func (d *ConflictDetector) FindBookingConflict(ctx context.Context, candidate models.Booking) (*Conflict, error) {
	if candidate.Scope.IsEmpty() || !candidate.Base.Valid() {
		return nil, nil
	}

	span := d.expander.Span(candidate)
	wanted := d.expander.Occurrences(candidate, span)
	if len(wanted) == 0 {
		return nil, nil
	}

	existing, err := d.bookings.ListActive(ctx, candidate.Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list active bookings for %s: %w", candidate.Scope, err)
	}

	type occurrence struct {
		booking  *models.Booking
		interval models.Interval
	}
	var taken []occurrence
	for i := range existing {
		b := &existing[i]
		if !b.IsActive || b.Scope.IsEmpty() || (candidate.ID != "" && b.ID == candidate.ID) {
			continue
		}
		if !candidate.Scope.Matches(b.Scope) {
			continue
		}
		for occ := range d.expander.OccurrencesIntersecting(*b, span) {
			taken = append(taken, occurrence{booking: b, interval: occ})
		}
	}
	if len(taken) == 0 {
		return nil, nil
	}
	sort.Slice(taken, func(i, j int) bool {
		return taken[i].interval.Start.Before(taken[j].interval.Start)
	})

	// Both lists are chronological, so one forward pass finds the earliest clash. Entries
	// before lo ended before an earlier candidate began and cannot overlap later ones.
	lo := 0
	for _, want := range wanted {
		for lo < len(taken) && !taken[lo].interval.End.After(want.Start) {
			lo++
		}
		for _, t := range taken[lo:] {
			if !t.interval.Start.Before(want.End) {
				break
			}
			if t.interval.Overlaps(want) {
				return &Conflict{
					BookingID:  t.booking.ID,
					Kind:       t.booking.Kind,
					Title:      t.booking.Title,
					Scope:      sharedScope(candidate.Scope, t.booking.Scope),
					Occurrence: t.interval,
					Candidate:  want,
				}, nil
			}
		}
	}
	return nil, nil
}

// sharedScope keeps only the dimensions on which a and b collide.
func sharedScope(a, b models.Scope) models.Scope {
	var s models.Scope
	if a.TeacherID != "" && a.TeacherID == b.TeacherID {
		s.TeacherID = a.TeacherID
	}
	if a.ClassID != "" && a.ClassID == b.ClassID {
		s.ClassID = a.ClassID
	}
	return s
}
