package booking

import (
	"context"
	"time"

	bookingRepo "tutordesk/database/repository/booking"
	"tutordesk/models"
	"tutordesk/services/audit"
	"tutordesk/services/scheduling"

	"go.uber.org/zap"
)

// BookingService creates, edits and removes bookings. Every mutation checks conflicts and writes
// in one atomic unit, takes the acting user explicitly and emits an audit event on success.
type BookingService interface {
	Create(ctx context.Context, actor models.Actor, input models.BookingInput) (*models.Booking, error)
	Update(ctx context.Context, actor models.Actor, id string, changes models.BookingChanges) (*models.Booking, error)
	Remove(ctx context.Context, actor models.Actor, id string) error
	Get(ctx context.Context, id string) (*models.Booking, error)
	ListInWindow(ctx context.Context, q models.CalendarQuery) ([]models.BookingWithOccurrences, error)
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Repo     bookingRepo.BookingRepository
	Expander *scheduling.Expander
	Detector *scheduling.ConflictDetector
	Audit    audit.Recorder
	Logger   *zap.Logger
	Now      func() time.Time
	// MaxRecurrence bounds recurrenceEnd relative to the booking start.
	MaxRecurrence time.Duration
}

func NewBookingService(repo bookingRepo.BookingRepository, expander *scheduling.Expander, recorder audit.Recorder, logger *zap.Logger) *DefaultBookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = audit.NewLogRecorder(logger)
	}
	return &DefaultBookingService{
		Repo:     repo,
		Expander: expander,
		Detector: scheduling.NewConflictDetector(repo, expander),
		Audit:    recorder,
		Logger:   logger,
		Now:      time.Now,

		MaxRecurrence: defaultMaxRecurrence,
	}
}
