package booking

import (
	"strings"
	"time"

	"tutordesk/models"
	"tutordesk/services/scheduling"
)

// buildBooking turns a create payload into an unsaved booking.
func buildBooking(input models.BookingInput, horizon time.Duration) (models.Booking, error) {
	kind, err := models.ParseBookingKind(input.Kind)
	if err != nil {
		return models.Booking{}, scheduling.NewValidationError("kind", "%v", err)
	}
	rule, err := models.ParseRecurrenceType(input.Recurrence)
	if err != nil {
		return models.Booking{}, scheduling.NewValidationError("recurrence", "%v", err)
	}

	b := models.Booking{
		Kind:       kind,
		Title:      strings.TrimSpace(input.Title),
		SubjectID:  strings.TrimSpace(input.SubjectID),
		Notes:      input.Notes,
		Base:       models.Interval{Start: input.Start.UTC(), End: input.End.UTC()},
		Recurrence: models.RecurrenceRule{Type: rule, Until: utcPtr(input.RecurrenceEnd)},
		Scope:      models.Scope{TeacherID: strings.TrimSpace(input.TeacherID), ClassID: strings.TrimSpace(input.ClassID)},
	}
	if err := validateBooking(&b, horizon); err != nil {
		return models.Booking{}, err
	}
	return b, nil
}

// applyChanges overlays a partial update on current. Fields left nil keep their value.
func applyChanges(current models.Booking, changes models.BookingChanges, horizon time.Duration) (models.Booking, error) {
	next := current
	if current.Recurrence.Until != nil {
		until := *current.Recurrence.Until
		next.Recurrence.Until = &until
	}

	if changes.Kind != nil {
		kind, err := models.ParseBookingKind(*changes.Kind)
		if err != nil {
			return models.Booking{}, scheduling.NewValidationError("kind", "%v", err)
		}
		next.Kind = kind
	}
	if changes.Title != nil {
		next.Title = strings.TrimSpace(*changes.Title)
	}
	if changes.SubjectID != nil {
		next.SubjectID = strings.TrimSpace(*changes.SubjectID)
	}
	if changes.Notes != nil {
		next.Notes = *changes.Notes
	}
	if changes.Start != nil {
		next.Base.Start = changes.Start.UTC()
	}
	if changes.End != nil {
		next.Base.End = changes.End.UTC()
	}
	if changes.Recurrence != nil {
		rule, err := models.ParseRecurrenceType(*changes.Recurrence)
		if err != nil {
			return models.Booking{}, scheduling.NewValidationError("recurrence", "%v", err)
		}
		next.Recurrence.Type = rule
	}
	if changes.RecurrenceEnd != nil {
		next.Recurrence.Until = utcPtr(changes.RecurrenceEnd)
	}
	if changes.TeacherID != nil {
		next.Scope.TeacherID = strings.TrimSpace(*changes.TeacherID)
	}
	if changes.ClassID != nil {
		next.Scope.ClassID = strings.TrimSpace(*changes.ClassID)
	}

	if err := validateBooking(&next, horizon); err != nil {
		return models.Booking{}, err
	}
	return next, nil
}

// validateBooking checks the interval and recurrence invariants. A non-recurring booking
// drops any leftover recurrence end. Recurring bookings may not repeat more than horizon past
// their start.
func validateBooking(b *models.Booking, horizon time.Duration) error {
	if b.Base.Start.IsZero() || b.Base.End.IsZero() {
		return scheduling.NewValidationError("start", "start and end are required")
	}
	if !b.Base.Valid() {
		return scheduling.NewValidationError("end", "must be after start")
	}
	if !b.Recurrence.IsRecurring() {
		b.Recurrence = models.RecurrenceRule{Type: models.RecurNone}
		return nil
	}
	if b.Recurrence.Until == nil {
		return scheduling.NewValidationError("recurrenceEnd", "is required for %s bookings", b.Recurrence.Type)
	}
	if b.Recurrence.Until.Before(b.Base.Start) {
		return scheduling.NewValidationError("recurrenceEnd", "must not be before the booking start")
	}
	if horizon > 0 && b.Recurrence.Until.Sub(b.Base.Start) > horizon {
		return scheduling.NewValidationError("recurrenceEnd", "must be within %d days of the booking start",
			int(horizon/(24*time.Hour)))
	}
	return nil
}

func validateWindow(w models.Interval) error {
	if w.Start.IsZero() || w.End.IsZero() {
		return scheduling.NewValidationError("window", "start and end are required")
	}
	if !w.Valid() {
		return scheduling.NewValidationError("window", "end must be after start")
	}
	if w.Duration() > maxCalendarWindow {
		return scheduling.NewValidationError("window", "must not span more than 366 days")
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
