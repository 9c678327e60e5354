package scheduling

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tutordesk/models"
)

type stubBookings []models.Booking

func (s stubBookings) ListActive(_ context.Context, scope models.Scope) ([]models.Booking, error) {
	var out []models.Booking
	for _, b := range s {
		if b.IsActive && scope.Matches(b.Scope) {
			out = append(out, b)
		}
	}
	return out, nil
}

func single(id string, scope models.Scope, start, end time.Time) models.Booking {
	return models.Booking{
		ID:         id,
		Kind:       models.KindClass,
		Base:       models.Interval{Start: start, End: end},
		Recurrence: models.RecurrenceRule{Type: models.RecurNone},
		Scope:      scope,
		IsActive:   true,
	}
}

func TestHasConflictTouchingIntervals(t *testing.T) {
	d := NewConflictDetector(stubBookings{
		single("b1", models.TeacherScope("t1"), at(2024, 1, 1, 9, 0), at(2024, 1, 1, 10, 0)),
	}, NewExpander(time.UTC))

	ok, err := d.HasConflict(context.Background(), models.Interval{Start: at(2024, 1, 1, 10, 0), End: at(2024, 1, 1, 11, 0)}, models.TeacherScope("t1"), "")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = d.HasConflict(context.Background(), models.Interval{Start: at(2024, 1, 1, 9, 59), End: at(2024, 1, 1, 11, 0)}, models.TeacherScope("t1"), "")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFindConflictAgainstRecurringBooking(t *testing.T) {
	weekly := recurring(models.RecurWeekly, at(2024, 1, 1, 9, 0), at(2024, 1, 1, 10, 0), at(2024, 2, 5, 23, 0))
	d := NewConflictDetector(stubBookings{weekly}, NewExpander(time.UTC))

	// Third Monday, 09:30-10:00.
	c, err := d.FindConflict(context.Background(), models.Interval{Start: at(2024, 1, 15, 9, 30), End: at(2024, 1, 15, 10, 0)}, models.TeacherScope("t1"), "")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "b1", c.BookingID)
	assert.Equal(t, at(2024, 1, 15, 9, 0), c.Occurrence.Start)
	assert.Equal(t, "t1", c.Scope.TeacherID)
	assert.Contains(t, c.Reason(), "b1")

	// A Tuesday is free.
	c, err = d.FindConflict(context.Background(), models.Interval{Start: at(2024, 1, 16, 9, 30), End: at(2024, 1, 16, 10, 0)}, models.TeacherScope("t1"), "")
	require.NoError(t, err)
	assert.Nil(t, c)

	// After the recurrence ends.
	c, err = d.FindConflict(context.Background(), models.Interval{Start: at(2024, 2, 12, 9, 0), End: at(2024, 2, 12, 10, 0)}, models.TeacherScope("t1"), "")
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestFindConflictExcludesSelf(t *testing.T) {
	existing := single("b1", models.TeacherScope("t1"), at(2024, 1, 1, 9, 0), at(2024, 1, 1, 10, 0))
	d := NewConflictDetector(stubBookings{existing}, NewExpander(time.UTC))

	ok, err := d.HasConflict(context.Background(), existing.Base, existing.Scope, "b1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFindBookingConflictExpandsCandidate(t *testing.T) {
	oneOff := single("b2", models.TeacherScope("t1"), at(2024, 1, 22, 9, 30), at(2024, 1, 22, 10, 30))
	d := NewConflictDetector(stubBookings{oneOff}, NewExpander(time.UTC))

	candidate := recurring(models.RecurWeekly, at(2024, 1, 1, 9, 0), at(2024, 1, 1, 10, 0), at(2024, 2, 5, 0, 0))
	candidate.ID = ""

	c, err := d.FindBookingConflict(context.Background(), candidate)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "b2", c.BookingID)
	assert.Equal(t, at(2024, 1, 22, 9, 0), c.Candidate.Start)
}

func TestFindBookingConflictLongDailyHorizons(t *testing.T) {
	until := at(2028, 12, 31, 0, 0)
	mornings := recurring(models.RecurDaily, at(2024, 1, 1, 9, 0), at(2024, 1, 1, 10, 0), until)
	lastDay := single("b2", models.TeacherScope("t1"), at(2028, 12, 31, 10, 30), at(2028, 12, 31, 12, 0))
	d := NewConflictDetector(stubBookings{mornings, lastDay}, NewExpander(time.UTC))

	candidate := recurring(models.RecurDaily, at(2024, 1, 1, 10, 0), at(2024, 1, 1, 10, 30), until)
	candidate.ID = ""
	c, err := d.FindBookingConflict(context.Background(), candidate)
	require.NoError(t, err)
	assert.Nil(t, c)

	candidate.Base.End = at(2024, 1, 1, 11, 0)
	c, err = d.FindBookingConflict(context.Background(), candidate)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "b2", c.BookingID)
	assert.Equal(t, at(2028, 12, 31, 10, 0), c.Candidate.Start)
}

func TestFindBookingConflictMixedDurations(t *testing.T) {
	retreat := single("b2", models.TeacherScope("t1"), at(2024, 1, 1, 0, 0), at(2024, 1, 1, 23, 0))
	meeting := single("b3", models.TeacherScope("t1"), at(2024, 1, 5, 12, 0), at(2024, 1, 5, 13, 0))
	holiday := single("b4", models.TeacherScope("t1"), at(2024, 1, 8, 0, 0), at(2024, 1, 12, 0, 0))
	d := NewConflictDetector(stubBookings{holiday, meeting, retreat}, NewExpander(time.UTC))

	candidate := recurring(models.RecurDaily, at(2024, 1, 2, 12, 0), at(2024, 1, 2, 12, 30), at(2024, 1, 31, 0, 0))
	candidate.ID = ""
	c, err := d.FindBookingConflict(context.Background(), candidate)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "b3", c.BookingID)

	candidate.Base = models.Interval{Start: at(2024, 1, 6, 12, 0), End: at(2024, 1, 6, 12, 30)}
	c, err = d.FindBookingConflict(context.Background(), candidate)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "b4", c.BookingID)
	assert.Equal(t, at(2024, 1, 8, 12, 0), c.Candidate.Start)
}

func TestFindConflictScopes(t *testing.T) {
	classBooking := single("b1", models.ClassScope("c1"), at(2024, 1, 1, 9, 0), at(2024, 1, 1, 10, 0))
	unscoped := single("b2", models.Scope{}, at(2024, 1, 1, 9, 0), at(2024, 1, 1, 10, 0))
	d := NewConflictDetector(stubBookings{classBooking, unscoped}, NewExpander(time.UTC))
	slot := models.Interval{Start: at(2024, 1, 1, 9, 30), End: at(2024, 1, 1, 10, 30)}

	tests := []struct {
		name  string
		scope models.Scope
		want  bool
	}{
		{"same class", models.ClassScope("c1"), true},
		{"teacher and class share the class", models.BothScope("t2", "c1"), true},
		{"other teacher", models.TeacherScope("t2"), false},
		{"empty scope never conflicts", models.Scope{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := d.HasConflict(context.Background(), slot, tt.scope, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestAcceptedBookingsNeverOverlap(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	e := NewExpander(time.UTC)
	var accepted stubBookings

	origin := at(2024, 1, 1, 0, 0)
	for i := 0; i < 300; i++ {
		start := origin.Add(time.Duration(rng.Intn(7*24*4)) * 15 * time.Minute)
		end := start.Add(time.Duration(1+rng.Intn(8)) * 15 * time.Minute)
		candidate := single(fmt.Sprintf("b%d", i), models.TeacherScope("t1"), start, end)

		c, err := NewConflictDetector(accepted, e).FindBookingConflict(context.Background(), candidate)
		require.NoError(t, err)
		if c == nil {
			accepted = append(accepted, candidate)
		}
	}

	require.NotEmpty(t, accepted)
	for i := range accepted {
		for j := i + 1; j < len(accepted); j++ {
			assert.False(t, accepted[i].Base.Overlaps(accepted[j].Base), "%s overlaps %s", accepted[i].ID, accepted[j].ID)
		}
	}
}

func TestOverlapsSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	origin := at(2024, 1, 1, 0, 0)
	for i := 0; i < 500; i++ {
		a := models.Interval{Start: origin.Add(time.Duration(rng.Intn(100)) * time.Minute)}
		a.End = a.Start.Add(time.Duration(1+rng.Intn(60)) * time.Minute)
		b := models.Interval{Start: origin.Add(time.Duration(rng.Intn(100)) * time.Minute)}
		b.End = b.Start.Add(time.Duration(1+rng.Intn(60)) * time.Minute)

		assert.Equal(t, models.Overlaps(a, b), models.Overlaps(b, a))
		assert.True(t, models.Overlaps(a, a))
	}
	touching := models.Interval{Start: at(2024, 1, 1, 9, 0), End: at(2024, 1, 1, 10, 0)}
	next := models.Interval{Start: at(2024, 1, 1, 10, 0), End: at(2024, 1, 1, 11, 0)}
	assert.False(t, models.Overlaps(touching, next))
}
