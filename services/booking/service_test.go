package booking

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	auditRepo "tutordesk/database/repository/audit"
	bookingRepo "tutordesk/database/repository/booking"
	"tutordesk/models"
	"tutordesk/services/audit"
	"tutordesk/services/scheduling"
)

var admin = models.Actor{ID: "admin-1", Role: "admin"}

type fixture struct {
	svc    *DefaultBookingService
	repo   *bookingRepo.MemoryBookingRepo
	events *auditRepo.MemoryAuditRepo
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := bookingRepo.NewMemoryBookingRepo()
	events := auditRepo.NewMemoryAuditRepo()
	svc := NewBookingService(repo, scheduling.NewExpander(time.UTC), audit.NewStoreRecorder(events, zap.NewNop()), zap.NewNop())
	svc.Now = func() time.Time { return time.Date(2023, 12, 1, 8, 0, 0, 0, time.UTC) }
	return fixture{svc: svc, repo: repo, events: events}
}

func monday(week, hour, minute int) time.Time {
	// 2024-01-01 is a Monday.
	return time.Date(2024, 1, 1+7*week, hour, minute, 0, 0, time.UTC)
}

func classInput(teacherID string, start, end time.Time) models.BookingInput {
	return models.BookingInput{Kind: "CLASS", Title: "Algebra", Start: start, End: end, TeacherID: teacherID}
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, admin, classInput("t1", monday(0, 9, 0), monday(0, 10, 0)))
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.True(t, b.IsActive)
	assert.Equal(t, models.KindClass, b.Kind)
	assert.Equal(t, models.RecurNone, b.Recurrence.Type)
	assert.Equal(t, "admin-1", b.CreatedBy)
	assert.Equal(t, monday(0, 10, 0), b.SpanEnd)

	stored, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Base, stored.Base)

	events, err := f.events.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.AuditBookingCreated, events[0].Kind)
	assert.Equal(t, "admin-1", events[0].ActorID)
	assert.Contains(t, events[0].Description, b.ID)
}

func TestCreateBookingValidation(t *testing.T) {
	f := newFixture(t)
	start, end := monday(0, 9, 0), monday(0, 10, 0)

	tests := []struct {
		name  string
		input models.BookingInput
	}{
		{"unknown kind", models.BookingInput{Kind: "PARTY", Start: start, End: end}},
		{"end before start", models.BookingInput{Kind: "CLASS", Start: end, End: start}},
		{"empty interval", models.BookingInput{Kind: "CLASS", Start: start, End: start}},
		{"unknown recurrence", models.BookingInput{Kind: "CLASS", Start: start, End: end, Recurrence: "YEARLY", RecurrenceEnd: timePtr(monday(4, 0, 0))}},
		{"recurrence without end", models.BookingInput{Kind: "CLASS", Start: start, End: end, Recurrence: "WEEKLY"}},
		{"recurrence end before start", models.BookingInput{Kind: "CLASS", Start: start, End: end, Recurrence: "DAILY", RecurrenceEnd: timePtr(start.Add(-time.Hour))}},
		{"recurrence end past horizon", models.BookingInput{Kind: "CLASS", Start: start, End: end, Recurrence: "DAILY", RecurrenceEnd: timePtr(time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), admin, tt.input)
			require.Error(t, err)
			assert.True(t, scheduling.IsValidation(err), "got %v", err)
		})
	}
}

func TestRecurrenceHorizon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.MaxRecurrence = 30 * 24 * time.Hour

	daily := classInput("t1", monday(0, 9, 0), monday(0, 10, 0))
	daily.Recurrence = "DAILY"
	daily.RecurrenceEnd = timePtr(monday(0, 9, 0).Add(31 * 24 * time.Hour))
	_, err := f.svc.Create(ctx, admin, daily)
	assert.True(t, scheduling.IsValidation(err), "got %v", err)

	daily.RecurrenceEnd = timePtr(monday(4, 0, 0))
	b, err := f.svc.Create(ctx, admin, daily)
	require.NoError(t, err)

	// Extending an existing booking past the horizon is rejected the same way.
	_, err = f.svc.Update(ctx, admin, b.ID, models.BookingChanges{RecurrenceEnd: timePtr(monday(10, 0, 0))})
	assert.True(t, scheduling.IsValidation(err), "got %v", err)
}

func TestCreateConflictsWithRecurringBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	weekly := classInput("t1", monday(0, 9, 0), monday(0, 10, 0))
	weekly.Recurrence = "WEEKLY"
	weekly.RecurrenceEnd = timePtr(monday(5, 23, 0))
	existing, err := f.svc.Create(ctx, admin, weekly)
	require.NoError(t, err)

	// Third Monday, 09:30-10:00.
	_, err = f.svc.Create(ctx, admin, classInput("t1", monday(2, 9, 30), monday(2, 10, 0)))
	require.Error(t, err)
	var conflictErr *scheduling.ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, existing.ID, conflictErr.Conflict.BookingID)
	assert.Equal(t, monday(2, 9, 0), conflictErr.Conflict.Occurrence.Start)

	// Touching the occurrence is fine, as is another teacher.
	_, err = f.svc.Create(ctx, admin, classInput("t1", monday(2, 10, 0), monday(2, 11, 0)))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, admin, classInput("t2", monday(2, 9, 30), monday(2, 10, 0)))
	require.NoError(t, err)

	// Only the successful creates are audited.
	events, err := f.events.ListRecent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestCreateWithoutScopeNeverConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	holiday := models.BookingInput{Kind: "HOLIDAY", Title: "New Year", Start: monday(0, 0, 0), End: monday(0, 23, 59)}
	_, err := f.svc.Create(ctx, admin, holiday)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, admin, holiday)
	require.NoError(t, err)
}

func TestUpdateBookingToItsOwnInterval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, admin, classInput("t1", monday(0, 9, 0), monday(0, 10, 0)))
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, admin, b.ID, models.BookingChanges{
		Start: timePtr(b.Base.Start),
		End:   timePtr(b.Base.End),
		Title: strPtr("Geometry"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Geometry", updated.Title)
	assert.Equal(t, b.Base, updated.Base)
	assert.Equal(t, b.CreatedAt, updated.CreatedAt)
}

func TestUpdateRejectedLeavesBookingUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, admin, classInput("t1", monday(0, 9, 0), monday(0, 10, 0)))
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, admin, classInput("t1", monday(0, 11, 0), monday(0, 12, 0)))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, admin, second.ID, models.BookingChanges{Start: timePtr(monday(0, 9, 30))})
	require.Error(t, err)
	assert.True(t, scheduling.IsConflict(err))

	_, err = f.svc.Update(ctx, admin, second.ID, models.BookingChanges{End: timePtr(monday(0, 10, 0))})
	require.Error(t, err)
	assert.True(t, scheduling.IsValidation(err))

	stored, err := f.svc.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.Base, stored.Base)

	// Moving the first booking to another teacher frees t1.
	_, err = f.svc.Update(ctx, admin, first.ID, models.BookingChanges{TeacherID: strPtr("t2")})
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, admin, second.ID, models.BookingChanges{Start: timePtr(monday(0, 9, 30))})
	require.NoError(t, err)
}

func TestUpdateRecurrence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, admin, classInput("t1", monday(0, 9, 0), monday(0, 10, 0)))
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, admin, b.ID, models.BookingChanges{Recurrence: strPtr("WEEKLY")})
	require.Error(t, err)
	assert.True(t, scheduling.IsValidation(err))

	weekly, err := f.svc.Update(ctx, admin, b.ID, models.BookingChanges{Recurrence: strPtr("weekly"), RecurrenceEnd: timePtr(monday(3, 0, 0))})
	require.NoError(t, err)
	assert.Equal(t, models.RecurWeekly, weekly.Recurrence.Type)
	assert.Equal(t, monday(3, 10, 0), weekly.SpanEnd)

	single, err := f.svc.Update(ctx, admin, b.ID, models.BookingChanges{Recurrence: strPtr("NONE")})
	require.NoError(t, err)
	assert.Nil(t, single.Recurrence.Until)
	assert.Equal(t, monday(0, 10, 0), single.SpanEnd)
}

func TestRemoveBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, admin, classInput("t1", monday(0, 9, 0), monday(0, 10, 0)))
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(ctx, admin, b.ID))
	assert.True(t, scheduling.IsNotFound(f.svc.Remove(ctx, admin, b.ID)))
	assert.True(t, scheduling.IsNotFound(f.svc.Remove(ctx, admin, "missing")))

	_, err = f.svc.Update(ctx, admin, b.ID, models.BookingChanges{Title: strPtr("again")})
	assert.True(t, scheduling.IsNotFound(err))

	// The removed booking no longer blocks the slot but is still readable.
	_, err = f.svc.Create(ctx, admin, classInput("t1", monday(0, 9, 0), monday(0, 10, 0)))
	require.NoError(t, err)
	removed, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, removed.IsActive)
	assert.NotNil(t, removed.DeactivatedAt)

	events, err := f.events.ListRecent(ctx, 10)
	require.NoError(t, err)
	var kinds []string
	for _, e := range events {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, models.AuditBookingRemoved)
}

// removingRepo deactivates the booking just before the update is written, the way a
// Remove landing between the read and the write would.
type removingRepo struct {
	*bookingRepo.MemoryBookingRepo
	at time.Time
}

func (r removingRepo) UpdateByID(ctx context.Context, id string, b *models.Booking) error {
	if err := r.MemoryBookingRepo.SoftDeactivate(ctx, id, r.at); err != nil {
		return err
	}
	return r.MemoryBookingRepo.UpdateByID(ctx, id, b)
}

func TestUpdateNeverReactivatesRemovedBooking(t *testing.T) {
	ctx := context.Background()
	mem := bookingRepo.NewMemoryBookingRepo()
	repo := removingRepo{MemoryBookingRepo: mem, at: monday(0, 8, 0)}
	svc := NewBookingService(repo, scheduling.NewExpander(time.UTC), nil, zap.NewNop())

	b, err := svc.Create(ctx, admin, classInput("t1", monday(0, 9, 0), monday(0, 10, 0)))
	require.NoError(t, err)

	_, err = svc.Update(ctx, admin, b.ID, models.BookingChanges{Title: strPtr("Geometry")})
	assert.True(t, scheduling.IsNotFound(err))

	stored, err := mem.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, "Algebra", stored.Title)
}

func TestConcurrentUpdateAndRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		b, err := f.svc.Create(ctx, admin, classInput("t1", monday(i, 9, 0), monday(i, 10, 0)))
		require.NoError(t, err)

		var wg sync.WaitGroup
		var removeErr, updateErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			removeErr = f.svc.Remove(ctx, admin, b.ID)
		}()
		go func() {
			defer wg.Done()
			_, updateErr = f.svc.Update(ctx, admin, b.ID, models.BookingChanges{Title: strPtr("Geometry")})
		}()
		wg.Wait()

		require.NoError(t, removeErr)
		if updateErr != nil {
			assert.True(t, scheduling.IsNotFound(updateErr))
		}
		stored, err := f.repo.GetByID(ctx, b.ID)
		require.NoError(t, err)
		assert.False(t, stored.IsActive, "booking %s came back after removal", b.ID)
	}
}

func TestConcurrentOverlappingCreatesOnlyOneWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const workers = 16
	var wins, conflicts atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			<-start
			in := classInput("t1", monday(0, 9, offset), monday(0, 10, offset))
			_, err := f.svc.Create(ctx, admin, in)
			switch {
			case err == nil:
				wins.Add(1)
			case scheduling.IsConflict(err):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(workers-1), conflicts.Load())
}

func TestAcceptedBookingsArePairwiseDisjoint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rng := rand.New(rand.NewSource(99))

	for i := 0; i < 200; i++ {
		start := monday(0, 0, 0).Add(time.Duration(rng.Intn(4*24*7)) * 15 * time.Minute)
		end := start.Add(time.Duration(1+rng.Intn(6)) * 15 * time.Minute)
		_, err := f.svc.Create(ctx, admin, classInput("t1", start, end))
		if err != nil {
			require.True(t, scheduling.IsConflict(err), "got %v", err)
		}
	}

	active, err := f.repo.ListActive(ctx, models.TeacherScope("t1"))
	require.NoError(t, err)
	require.NotEmpty(t, active)
	for i := range active {
		for j := i + 1; j < len(active); j++ {
			assert.False(t, active[i].Base.Overlaps(active[j].Base))
		}
	}
}

func TestListInWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	weekly := classInput("t1", monday(0, 9, 0), monday(0, 10, 0))
	weekly.Recurrence = "WEEKLY"
	weekly.RecurrenceEnd = timePtr(monday(7, 23, 0))
	w, err := f.svc.Create(ctx, admin, weekly)
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, admin, classInput("t2", monday(1, 9, 0), monday(1, 10, 0)))
	require.NoError(t, err)
	removed, err := f.svc.Create(ctx, admin, classInput("t1", monday(1, 14, 0), monday(1, 15, 0)))
	require.NoError(t, err)
	require.NoError(t, f.svc.Remove(ctx, admin, removed.ID))

	window := models.Interval{Start: monday(1, 0, 0), End: monday(3, 0, 0)}
	rows, err := f.svc.ListInWindow(ctx, models.CalendarQuery{Window: window, TeacherID: "t1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, w.ID, rows[0].Booking.ID)
	require.Len(t, rows[0].Occurrences, 2)
	assert.Equal(t, monday(1, 9, 0), rows[0].Occurrences[0].Start)
	assert.Equal(t, monday(2, 9, 0), rows[0].Occurrences[1].Start)

	rows, err = f.svc.ListInWindow(ctx, models.CalendarQuery{Window: window, TeacherID: "t1", IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = f.svc.ListInWindow(ctx, models.CalendarQuery{Window: models.Interval{Start: window.End, End: window.Start}})
	assert.True(t, scheduling.IsValidation(err))

	_, err = f.svc.ListInWindow(ctx, models.CalendarQuery{Window: models.Interval{Start: window.Start, End: window.Start.AddDate(2, 0, 0)}})
	assert.True(t, scheduling.IsValidation(err))
}
