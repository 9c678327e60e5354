// File: tutordesk/handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Booking endpoints
	CreateBookingHandler gin.HandlerFunc
	UpdateBookingHandler gin.HandlerFunc
	DeleteBookingHandler gin.HandlerFunc
	GetBookingHandler    gin.HandlerFunc
	ListBookingsHandler  gin.HandlerFunc

	// Availability endpoints
	SearchAvailabilityHandler gin.HandlerFunc
	ReplaceWindowsHandler     gin.HandlerFunc
	ListWindowsHandler        gin.HandlerFunc
	ReplaceSubjectsHandler    gin.HandlerFunc

	// Audit endpoints
	ListAuditHandler gin.HandlerFunc
}

// NewHandlerBundle wires the handler methods into a bundle.
func NewHandlerBundle(bookings *BookingHandler, availability *AvailabilityHandler, audit *AuditHandler) *HandlerBundle {
	return &HandlerBundle{
		CreateBookingHandler: bookings.CreateBookingHandler,
		UpdateBookingHandler: bookings.UpdateBookingHandler,
		DeleteBookingHandler: bookings.DeleteBookingHandler,
		GetBookingHandler:    bookings.GetBookingHandler,
		ListBookingsHandler:  bookings.ListBookingsHandler,

		SearchAvailabilityHandler: availability.SearchHandler,
		ReplaceWindowsHandler:     availability.ReplaceWindowsHandler,
		ListWindowsHandler:        availability.ListWindowsHandler,
		ReplaceSubjectsHandler:    availability.ReplaceSubjectsHandler,

		ListAuditHandler: audit.ListAuditHandler,
	}
}
