package booking

import (
	"errors"
	"time"
)

// ErrConcurrentModification is returned when a booking's scope changed between the read that
// picked the locks and the locked re-read. The request can be retried as is.
var ErrConcurrentModification = errors.New("booking was modified concurrently, retry the request")

// maxCalendarWindow bounds how far a calendar query may expand recurring bookings.
const maxCalendarWindow = 366 * 24 * time.Hour

// defaultMaxRecurrence caps how far a recurring booking may repeat when no horizon is configured.
const defaultMaxRecurrence = 5 * 366 * 24 * time.Hour
