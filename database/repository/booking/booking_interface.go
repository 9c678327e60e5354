package bookingRepo

import (
	"context"
	"sort"
	"time"

	"tutordesk/models"
)

// BookingRepository persists bookings. Methods called with the context handed to a RunInScope
// callback take part in that unit of work.
type BookingRepository interface {
	// ListActive returns active bookings sharing a teacher or a class with scope.
	ListActive(ctx context.Context, scope models.Scope) ([]models.Booking, error)
	// ListForWindow returns bookings whose span may intersect the query window, ordered by start.
	ListForWindow(ctx context.Context, q models.CalendarQuery) ([]models.Booking, error)
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	Insert(ctx context.Context, booking *models.Booking) error
	UpdateByID(ctx context.Context, id string, booking *models.Booking) error
	SoftDeactivate(ctx context.Context, id string, at time.Time) error

	// RunInScope runs fn as one atomic unit serialized against every other unit touching
	// any of the scopes. fn may run more than once when the store retries a transient conflict.
	RunInScope(ctx context.Context, fn func(ctx context.Context) error, scopes ...models.Scope) error
}

// lockKeys merges and sorts the lock keys of scopes so units always acquire them in one order.
func lockKeys(scopes []models.Scope) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, s := range scopes {
		for _, k := range s.LockKeys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
