package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tutordesk/models"
	"tutordesk/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes calendar events and class bookings.
type BookingHandler struct {
	Service booking.BookingService
}

func NewBookingHandler(svc booking.BookingService) *BookingHandler {
	return &BookingHandler{Service: svc}
}

// CreateBookingHandler handles POST /api/bookings.
func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var input models.BookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	b, err := h.Service.Create(c.Request.Context(), actor, input)
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Debug("Booking created", zap.String("bookingId", b.ID))
	c.JSON(http.StatusCreated, b)
}

// UpdateBookingHandler handles PATCH /api/bookings/:id. Omitted fields are left untouched.
func (h *BookingHandler) UpdateBookingHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var changes models.BookingChanges
	if err := c.ShouldBindJSON(&changes); err != nil {
		badRequest(c, err)
		return
	}

	b, err := h.Service.Update(c.Request.Context(), actor, c.Param("id"), changes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DeleteBookingHandler handles DELETE /api/bookings/:id.
func (h *BookingHandler) DeleteBookingHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if err := h.Service.Remove(c.Request.Context(), actor, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetBookingHandler handles GET /api/bookings/:id.
func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	b, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ListBookingsHandler handles GET /api/bookings?start=&end=&teacherId=&classId=&includeInactive=.
func (h *BookingHandler) ListBookingsHandler(c *gin.Context) {
	q, err := calendarQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	rows, err := h.Service.ListInWindow(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": rows, "count": len(rows)})
}

func calendarQuery(c *gin.Context) (models.CalendarQuery, error) {
	var q models.CalendarQuery
	start, err := parseTimeParam(c, "start", true)
	if err != nil {
		return q, err
	}
	end, err := parseTimeParam(c, "end", true)
	if err != nil {
		return q, err
	}
	q.Window = models.Interval{Start: start, End: end}
	q.TeacherID = strings.TrimSpace(c.Query("teacherId"))
	q.ClassID = strings.TrimSpace(c.Query("classId"))
	if raw := c.Query("includeInactive"); raw != "" {
		q.IncludeInactive, err = strconv.ParseBool(raw)
		if err != nil {
			return q, fmt.Errorf("includeInactive must be a boolean, got %q", raw)
		}
	}
	return q, nil
}

// parseTimeParam reads an RFC3339 timestamp or a plain date (UTC midnight) from the query string.
func parseTimeParam(c *gin.Context, name string, required bool) (time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		if required {
			return time.Time{}, fmt.Errorf("%s is required", name)
		}
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%s must be an RFC3339 timestamp or a YYYY-MM-DD date, got %q", name, raw)
}
