package booking

import (
	"context"
	"errors"
	"fmt"

	"tutordesk/database/repository"
	"tutordesk/models"
	"tutordesk/services/scheduling"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Create validates input, checks it against the active bookings of its scope and stores it,
// all inside one scoped unit so two overlapping requests cannot both succeed.
func (s *DefaultBookingService) Create(ctx context.Context, actor models.Actor, input models.BookingInput) (*models.Booking, error) {
	b, err := buildBooking(input, s.MaxRecurrence)
	if err != nil {
		return nil, err
	}
	now := s.Now().UTC()
	b.ID = uuid.New().String()
	b.IsActive = true
	b.CreatedBy = actor.ID
	b.CreatedAt = now
	b.UpdatedAt = now
	b.SpanEnd = s.Expander.LastOccurrenceEnd(b).UTC()

	err = s.Repo.RunInScope(ctx, func(tx context.Context) error {
		if err := s.checkConflict(tx, b); err != nil {
			return err
		}
		return s.Repo.Insert(tx, &b)
	}, b.Scope)
	if err != nil {
		s.logRejected("create", "", err)
		return nil, err
	}

	s.Logger.Info("Booking created",
		zap.String("bookingId", b.ID),
		zap.String("kind", string(b.Kind)),
		zap.String("scope", b.Scope.String()),
		zap.String("actorId", actor.ID))
	s.Audit.Record(ctx, models.AuditBookingCreated, describe("Created", b), actor.ID)
	return &b, nil
}

// Update applies a partial change to an active booking. The booking is excluded from its own
// conflict check, so re-saving the same interval always succeeds. A rejected update leaves the
// stored booking untouched.
func (s *DefaultBookingService) Update(ctx context.Context, actor models.Actor, id string, changes models.BookingChanges) (*models.Booking, error) {
	current, err := s.activeBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	// Lock both the old and the prospective scope.
	preview, err := applyChanges(*current, changes, s.MaxRecurrence)
	if err != nil {
		return nil, err
	}

	var updated models.Booking
	err = s.Repo.RunInScope(ctx, func(tx context.Context) error {
		locked, err := s.activeBooking(tx, id)
		if err != nil {
			return err
		}
		if locked.Scope != current.Scope {
			return ErrConcurrentModification
		}
		next, err := applyChanges(*locked, changes, s.MaxRecurrence)
		if err != nil {
			return err
		}
		next.UpdatedAt = s.Now().UTC()
		next.SpanEnd = s.Expander.LastOccurrenceEnd(next).UTC()

		if err := s.checkConflict(tx, next); err != nil {
			return err
		}
		if err := s.Repo.UpdateByID(tx, id, &next); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return scheduling.NewNotFoundError("booking", id)
			}
			return err
		}
		updated = next
		return nil
	}, current.Scope, preview.Scope)
	if err != nil {
		s.logRejected("update", id, err)
		return nil, err
	}

	s.Logger.Info("Booking updated", zap.String("bookingId", id), zap.String("actorId", actor.ID))
	s.Audit.Record(ctx, models.AuditBookingUpdated, describe("Updated", updated), actor.ID)
	return &updated, nil
}

// Remove soft-deactivates an active booking. Removed bookings stop blocking their scope. The
// booking is re-read inside its scope unit so a concurrent edit cannot bring it back.
func (s *DefaultBookingService) Remove(ctx context.Context, actor models.Actor, id string) error {
	current, err := s.activeBooking(ctx, id)
	if err != nil {
		return err
	}

	var removed models.Booking
	err = s.Repo.RunInScope(ctx, func(tx context.Context) error {
		locked, err := s.activeBooking(tx, id)
		if err != nil {
			return err
		}
		if err := s.Repo.SoftDeactivate(tx, id, s.Now().UTC()); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return scheduling.NewNotFoundError("booking", id)
			}
			return fmt.Errorf("failed to remove booking %s: %w", id, err)
		}
		removed = *locked
		return nil
	}, current.Scope)
	if err != nil {
		s.logRejected("remove", id, err)
		return err
	}

	s.Logger.Info("Booking removed", zap.String("bookingId", id), zap.String("actorId", actor.ID))
	s.Audit.Record(ctx, models.AuditBookingRemoved, describe("Removed", removed), actor.ID)
	return nil
}

// Get returns a booking, active or not.
func (s *DefaultBookingService) Get(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.Repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, scheduling.NewNotFoundError("booking", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking %s: %w", id, err)
	}
	return b, nil
}

func (s *DefaultBookingService) activeBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsActive {
		return nil, scheduling.NewNotFoundError("booking", id)
	}
	return b, nil
}

func (s *DefaultBookingService) checkConflict(ctx context.Context, b models.Booking) error {
	conflict, err := s.Detector.FindBookingConflict(ctx, b)
	if err != nil {
		return err
	}
	if conflict != nil {
		return &scheduling.ConflictError{Conflict: *conflict}
	}
	return nil
}

func (s *DefaultBookingService) logRejected(op, id string, err error) {
	fields := []zap.Field{zap.String("op", op), zap.Error(err)}
	if id != "" {
		fields = append(fields, zap.String("bookingId", id))
	}
	switch {
	case scheduling.IsValidation(err), scheduling.IsConflict(err), scheduling.IsNotFound(err):
		s.Logger.Debug("Booking request rejected", fields...)
	default:
		s.Logger.Error("Booking request failed", fields...)
	}
}

func describe(verb string, b models.Booking) string {
	desc := fmt.Sprintf("%s %s booking %s for %s from %s to %s",
		verb, b.Kind, b.ID, b.Scope,
		b.Base.Start.Format("2006-01-02 15:04"), b.Base.End.Format("2006-01-02 15:04"))
	if b.Recurrence.IsRecurring() && b.Recurrence.Until != nil {
		desc += fmt.Sprintf(", repeating %s until %s", b.Recurrence.Type, b.Recurrence.Until.Format("2006-01-02"))
	}
	return desc
}
