package booking

import (
	"context"
	"fmt"

	"tutordesk/models"
)

// ListInWindow returns bookings with at least one occurrence inside the window, each carrying
// those occurrences. Inactive bookings are included only on request.
func (s *DefaultBookingService) ListInWindow(ctx context.Context, q models.CalendarQuery) ([]models.BookingWithOccurrences, error) {
	if err := validateWindow(q.Window); err != nil {
		return nil, err
	}
	candidates, err := s.Repo.ListForWindow(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	rows := make([]models.BookingWithOccurrences, 0, len(candidates))
	for _, b := range candidates {
		occurrences := s.Expander.Occurrences(b, q.Window)
		if len(occurrences) == 0 {
			continue
		}
		rows = append(rows, models.BookingWithOccurrences{Booking: b, Occurrences: occurrences})
	}
	return rows, nil
}
