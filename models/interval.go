package models

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `bson:"start" json:"start"`
	End   time.Time `bson:"end" json:"end"`
}

// Valid reports whether the interval is non-degenerate (Start strictly before End).
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Duration returns the length of the interval.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Overlaps reports whether two intervals share any instant.
// An interval ending exactly when the other begins does not overlap it.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Contains reports whether t falls within [Start, End).
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Overlaps is the free-function form of Interval.Overlaps.
func Overlaps(a, b Interval) bool {
	return a.Overlaps(b)
}
