package scheduling

import (
	"iter"
	"slices"
	"time"

	"tutordesk/models"
)

const day = 24 * time.Hour

// Expander derives concrete occurrences from a booking's base interval and recurrence rule.
// Calendar arithmetic runs in the expander's location so wall-clock times survive DST shifts.
// The output depends only on the booking and the window.
type Expander struct {
	loc *time.Location
}

// NewExpander returns an Expander working in loc. A nil loc means UTC.
func NewExpander(loc *time.Location) *Expander {
	if loc == nil {
		loc = time.UTC
	}
	return &Expander{loc: loc}
}

// Location returns the business time zone used for day boundaries.
func (e *Expander) Location() *time.Location {
	return e.loc
}

// OccurrencesIntersecting yields, in chronological order, every occurrence of b that
// intersects window. The sequence is finite and can be ranged over any number of times.
func (e *Expander) OccurrencesIntersecting(b models.Booking, window models.Interval) iter.Seq[models.Interval] {
	return func(yield func(models.Interval) bool) {
		base := models.Interval{Start: b.Base.Start.In(e.loc), End: b.Base.End.In(e.loc)}
		if !base.Valid() || !window.Valid() {
			return
		}
		if !b.Recurrence.IsRecurring() || b.Recurrence.Until == nil {
			if base.Overlaps(window) {
				yield(base)
			}
			return
		}

		offset := base.Duration()
		first := civilDate(base.Start)

		last := civilDate(window.End.In(e.loc))
		if until := civilDate(b.Recurrence.Until.In(e.loc)); until.Before(last) {
			last = until
		}

		// An occurrence starting before window.Start-offset cannot reach the window.
		from := civilDate(window.Start.In(e.loc).Add(-offset)).AddDate(0, 0, -1)
		if from.Before(first) {
			from = first
		}

		h, m, s := base.Start.Clock()
		ns := base.Start.Nanosecond()
		for d := from; !d.After(last); d = d.AddDate(0, 0, 1) {
			if !matchesDay(b.Recurrence.Type, first, d) {
				continue
			}
			start := time.Date(d.Year(), d.Month(), d.Day(), h, m, s, ns, e.loc)
			occ := models.Interval{Start: start, End: start.Add(offset)}
			if !occ.Overlaps(window) {
				continue
			}
			if !yield(occ) {
				return
			}
		}
	}
}

// Occurrences collects OccurrencesIntersecting into a slice.
func (e *Expander) Occurrences(b models.Booking, window models.Interval) []models.Interval {
	return slices.Collect(e.OccurrencesIntersecting(b, window))
}

// Span returns the interval from the first occurrence's start to the last occurrence's end.
func (e *Expander) Span(b models.Booking) models.Interval {
	return models.Interval{Start: b.Base.Start.In(e.loc), End: e.LastOccurrenceEnd(b)}
}

// LastOccurrenceEnd returns the end of the final occurrence of b.
func (e *Expander) LastOccurrenceEnd(b models.Booking) time.Time {
	base := models.Interval{Start: b.Base.Start.In(e.loc), End: b.Base.End.In(e.loc)}
	if !b.Recurrence.IsRecurring() || b.Recurrence.Until == nil {
		return base.End
	}
	first := civilDate(base.Start)
	h, m, s := base.Start.Clock()
	ns := base.Start.Nanosecond()
	for d := civilDate(b.Recurrence.Until.In(e.loc)); !d.Before(first); d = d.AddDate(0, 0, -1) {
		if matchesDay(b.Recurrence.Type, first, d) {
			start := time.Date(d.Year(), d.Month(), d.Day(), h, m, s, ns, e.loc)
			return start.Add(base.Duration())
		}
	}
	return base.End
}

// OccursOnWeekday reports whether some occurrence of b covers minute on the given weekday,
// without materializing the sequence. Dates are ignored; only the weekday pattern and the
// base time of day matter. Occurrences running past midnight also cover the following days.
func (e *Expander) OccursOnWeekday(b models.Booking, weekday time.Weekday, minute int) bool {
	start := b.Base.Start.In(e.loc)
	duration := b.Base.End.Sub(b.Base.Start)
	if duration <= 0 {
		return false
	}
	startMin := models.MinuteOfDay(start)
	endMin := startMin + int((duration+time.Minute-1)/time.Minute)

	// k counts the days after the occurrence's start day.
	for k := 0; k <= 7 && k*models.MinutesPerDay < endMin; k++ {
		lo := max(startMin-k*models.MinutesPerDay, 0)
		hi := min(endMin-k*models.MinutesPerDay, models.MinutesPerDay)
		if minute < lo || minute >= hi {
			continue
		}
		startDay := time.Weekday((int(weekday) - k%7 + 7) % 7)
		if weekdayAllowed(b.Recurrence.Type, start.Weekday(), startDay) {
			return true
		}
	}
	return false
}

// matchesDay reports whether an occurrence starts on d, given the base start date first.
// Both dates are civil dates at UTC midnight.
func matchesDay(rule models.RecurrenceType, first, d time.Time) bool {
	if d.Before(first) {
		return false
	}
	switch rule {
	case models.RecurDaily:
		return true
	case models.RecurWeekly:
		return d.Weekday() == first.Weekday()
	case models.RecurBiweekly:
		if d.Weekday() != first.Weekday() {
			return false
		}
		weeks := int(d.Sub(first)/day) / 7
		return weeks%2 == 0
	case models.RecurMonthly:
		// Months without this day of month get no occurrence.
		return d.Day() == first.Day()
	default:
		return d.Equal(first)
	}
}

// weekdayAllowed answers the weekday part of OccursOnWeekday for an occurrence starting on day.
func weekdayAllowed(rule models.RecurrenceType, base, day time.Weekday) bool {
	switch rule {
	case models.RecurDaily, models.RecurMonthly:
		return true
	default:
		return base == day
	}
}

// civilDate drops the clock and location, keeping the calendar date as UTC midnight.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
