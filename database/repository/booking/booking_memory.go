package bookingRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"tutordesk/database/repository"
	"tutordesk/models"
)

// MemoryBookingRepo keeps bookings in process. Scoped units are serialized by one mutex.
type MemoryBookingRepo struct {
	unitMu sync.Mutex

	mu       sync.RWMutex
	bookings map[string]models.Booking
	order    []string
}

func NewMemoryBookingRepo() *MemoryBookingRepo {
	return &MemoryBookingRepo{bookings: make(map[string]models.Booking)}
}

func (r *MemoryBookingRepo) ListActive(_ context.Context, scope models.Scope) ([]models.Booking, error) {
	if scope.IsEmpty() {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Booking
	for _, id := range r.order {
		b := r.bookings[id]
		if b.IsActive && scope.Matches(b.Scope) {
			out = append(out, clone(b))
		}
	}
	return out, nil
}

func (r *MemoryBookingRepo) ListForWindow(_ context.Context, q models.CalendarQuery) ([]models.Booking, error) {
	filter := models.Scope{TeacherID: q.TeacherID, ClassID: q.ClassID}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Booking
	for _, id := range r.order {
		b := r.bookings[id]
		if !b.IsActive && !q.IncludeInactive {
			continue
		}
		if !filter.IsEmpty() && !filter.Matches(b.Scope) {
			continue
		}
		if !b.Base.Start.Before(q.Window.End) || !b.SpanEnd.After(q.Window.Start) {
			continue
		}
		out = append(out, clone(b))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Base.Start.Equal(out[j].Base.Start) {
			return out[i].Base.Start.Before(out[j].Base.Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryBookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	b = clone(b)
	return &b, nil
}

func (r *MemoryBookingRepo) Insert(_ context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[booking.ID]; !exists {
		r.order = append(r.order, booking.ID)
	}
	r.bookings[booking.ID] = clone(*booking)
	return nil
}

func (r *MemoryBookingRepo) UpdateByID(_ context.Context, id string, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.bookings[id]; !ok || !current.IsActive {
		return repository.ErrNotFound
	}
	r.bookings[id] = clone(*booking)
	return nil
}

func (r *MemoryBookingRepo) SoftDeactivate(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok || !b.IsActive {
		return repository.ErrNotFound
	}
	b.IsActive = false
	b.DeactivatedAt = &at
	b.UpdatedAt = at
	r.bookings[id] = b
	return nil
}

// RunInScope holds the unit mutex for the whole of fn. A failed fn leaves no partial state
// only because the booking service writes last, after every check has passed.
func (r *MemoryBookingRepo) RunInScope(ctx context.Context, fn func(ctx context.Context) error, _ ...models.Scope) error {
	r.unitMu.Lock()
	defer r.unitMu.Unlock()
	return fn(ctx)
}

func clone(b models.Booking) models.Booking {
	if b.Recurrence.Until != nil {
		until := *b.Recurrence.Until
		b.Recurrence.Until = &until
	}
	if b.DeactivatedAt != nil {
		at := *b.DeactivatedAt
		b.DeactivatedAt = &at
	}
	return b
}
