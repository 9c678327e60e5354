package availability

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	assignmentRepo "tutordesk/database/repository/assignment"
	availabilityRepo "tutordesk/database/repository/availability"
	bookingRepo "tutordesk/database/repository/booking"
	"tutordesk/models"
	"tutordesk/services/booking"
	"tutordesk/services/scheduling"
)

var admin = models.Actor{ID: "admin-1", Role: "admin"}

type fixture struct {
	svc      *DefaultAvailabilityService
	bookings *booking.DefaultBookingService
	windows  *availabilityRepo.MemoryAvailabilityRepo
}

func newFixture() fixture {
	expander := scheduling.NewExpander(time.UTC)
	windows := availabilityRepo.NewMemoryAvailabilityRepo()
	assignments := assignmentRepo.NewMemoryAssignmentRepo()
	bookings := bookingRepo.NewMemoryBookingRepo()
	matcher := scheduling.NewMatcher(assignments, windows, bookings, expander, 4, zap.NewNop())
	return fixture{
		svc:      NewAvailabilityService(windows, assignments, matcher, nil, zap.NewNop()),
		bookings: booking.NewBookingService(bookings, expander, nil, zap.NewNop()),
		windows:  windows,
	}
}

func boolPtr(b bool) *bool { return &b }

func TestReplaceWindowsValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name   string
		inputs []models.AvailabilityWindowInput
	}{
		{"day out of range", []models.AvailabilityWindowInput{{DayOfWeek: 7, Start: "09:00", End: "10:00"}}},
		{"negative day", []models.AvailabilityWindowInput{{DayOfWeek: -1, Start: "09:00", End: "10:00"}}},
		{"bad clock", []models.AvailabilityWindowInput{{DayOfWeek: 1, Start: "9am", End: "10:00"}}},
		{"end before start", []models.AvailabilityWindowInput{{DayOfWeek: 1, Start: "10:00", End: "09:00"}}},
		{"empty window", []models.AvailabilityWindowInput{{DayOfWeek: 1, Start: "10:00", End: "10:00"}}},
		{"start at end of day", []models.AvailabilityWindowInput{{DayOfWeek: 1, Start: "24:00", End: "24:00"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ReplaceWindows(ctx, admin, "t1", tt.inputs)
			assert.True(t, scheduling.IsValidation(err), "got %v", err)
		})
	}

	_, err := f.svc.ReplaceWindows(ctx, admin, " ", nil)
	assert.True(t, scheduling.IsValidation(err))
}

func TestReplaceWindowsAcceptsOverlapsAndFullDay(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	windows, err := f.svc.ReplaceWindows(ctx, admin, "t1", []models.AvailabilityWindowInput{
		{DayOfWeek: 1, Start: "13:00", End: "17:00"},
		{DayOfWeek: 1, Start: "09:00", End: "14:00"},
		{DayOfWeek: 0, Start: "00:00", End: "24:00", IsAvailable: boolPtr(false)},
	})
	require.NoError(t, err)
	require.Len(t, windows, 3)
	assert.Equal(t, time.Sunday, windows[0].DayOfWeek)
	assert.False(t, windows[0].IsAvailable)
	assert.Equal(t, 9*60, windows[1].Start)

	listed, err := f.svc.ListWindows(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, listed, 3)
}

// Monday 09:00-17:00 availability and a Monday 10:00-11:00 booking: 10:30 is taken, 11:00 is free.
func TestSearchExcludesBookedTeacher(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.ReplaceSubjects(ctx, admin, "t1", []string{"math", "math", "physics"})
	require.NoError(t, err)
	_, err = f.svc.ReplaceWindows(ctx, admin, "t1", []models.AvailabilityWindowInput{{DayOfWeek: 1, Start: "09:00", End: "17:00"}})
	require.NoError(t, err)
	_, err = f.bookings.Create(ctx, admin, models.BookingInput{
		Kind:      "CLASS",
		Start:     time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC),
		TeacherID: "t1",
	})
	require.NoError(t, err)

	got, err := f.svc.Search(ctx, models.AvailabilityQuery{SubjectID: "math", DayOfWeek: time.Monday, Minute: 10*60 + 30})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = f.svc.Search(ctx, models.AvailabilityQuery{SubjectID: " math ", DayOfWeek: time.Monday, Minute: 11 * 60})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].TeacherID)

	got, err = f.svc.Search(ctx, models.AvailabilityQuery{SubjectID: "chemistry", DayOfWeek: time.Monday, Minute: 11 * 60})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReplaceSubjects(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	subjects, err := f.svc.ReplaceSubjects(ctx, admin, "t1", []string{"physics", " math", "physics"})
	require.NoError(t, err)
	assert.Equal(t, []string{"math", "physics"}, subjects)

	_, err = f.svc.ReplaceSubjects(ctx, admin, "t1", []string{"math", ""})
	assert.True(t, scheduling.IsValidation(err))
}

// Covers never observes a partial or empty set while windows are being replaced.
func TestCoversDuringReplaceAll(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	morning := []models.AvailabilityWindowInput{{DayOfWeek: 1, Start: "08:00", End: "12:00"}, {DayOfWeek: 1, Start: "13:00", End: "18:00"}}
	allDay := []models.AvailabilityWindowInput{{DayOfWeek: 1, Start: "06:00", End: "11:00"}, {DayOfWeek: 1, Start: "11:00", End: "20:00"}}
	_, err := f.svc.ReplaceWindows(ctx, admin, "t1", morning)
	require.NoError(t, err)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				windows, err := f.windows.ListWindowsForTeachers(ctx, []string{"t1"})
				assert.NoError(t, err)
				idx := scheduling.NewAvailabilityIndex(windows)
				// 10:00 is covered by both sets.
				assert.True(t, idx.Covers("t1", time.Monday, 10*60))
				assert.Len(t, windows, 2)
			}
		}()
	}
	for i := 0; i < 200; i++ {
		set := morning
		if i%2 == 0 {
			set = allDay
		}
		_, err := f.svc.ReplaceWindows(ctx, admin, "t1", set)
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()
}
