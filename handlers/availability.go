package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tutordesk/models"
	"tutordesk/services/availability"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AvailabilityHandler exposes weekly availability, teaching assignments and the free-teacher search.
type AvailabilityHandler struct {
	Service availability.AvailabilityService
}

func NewAvailabilityHandler(svc availability.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{Service: svc}
}

// SearchHandler handles GET /api/availability/search?subjectId=&dayOfWeek=&time=HH:MM[&asOf=].
func (h *AvailabilityHandler) SearchHandler(c *gin.Context) {
	q, err := availabilityQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	teachers, err := h.Service.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	getLogger(c).Debug("Availability search",
		zap.String("subjectId", q.SubjectID),
		zap.Int("matches", len(teachers)))
	c.JSON(http.StatusOK, gin.H{"teachers": teachers, "count": len(teachers)})
}

// ReplaceWindowsHandler handles PUT /api/availability/:teacherId.
func (h *AvailabilityHandler) ReplaceWindowsHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req models.ReplaceAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	windows, err := h.Service.ReplaceWindows(c.Request.Context(), actor, c.Param("teacherId"), req.Windows)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"windows": windows})
}

// ListWindowsHandler handles GET /api/availability/:teacherId.
func (h *AvailabilityHandler) ListWindowsHandler(c *gin.Context) {
	windows, err := h.Service.ListWindows(c.Request.Context(), c.Param("teacherId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"windows": windows})
}

// ReplaceSubjectsHandler handles PUT /api/teachers/:teacherId/subjects.
func (h *AvailabilityHandler) ReplaceSubjectsHandler(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req models.ReplaceSubjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	subjects, err := h.Service.ReplaceSubjects(c.Request.Context(), actor, c.Param("teacherId"), req.SubjectIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teacherId": c.Param("teacherId"), "subjectIds": subjects})
}

func availabilityQuery(c *gin.Context) (models.AvailabilityQuery, error) {
	var q models.AvailabilityQuery
	q.SubjectID = c.Query("subjectId")
	if strings.TrimSpace(q.SubjectID) == "" {
		return q, fmt.Errorf("subjectId is required")
	}
	day, err := strconv.Atoi(c.Query("dayOfWeek"))
	if err != nil {
		return q, fmt.Errorf("dayOfWeek must be an integer between 0 and 6")
	}
	q.DayOfWeek = time.Weekday(day)
	q.Minute, err = models.ParseClock(c.Query("time"))
	if err != nil {
		return q, err
	}
	q.AsOf, err = parseTimeParam(c, "asOf", false)
	return q, err
}
