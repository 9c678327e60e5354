package handlers

import (
	"errors"
	"net/http"

	"tutordesk/middleware"
	"tutordesk/models"
	"tutordesk/services/booking"
	"tutordesk/services/scheduling"
	"tutordesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps service errors onto HTTP statuses. Anything unclassified is a 500 with a
// generic message; the cause only goes to the log.
func respondError(c *gin.Context, err error) {
	var (
		validation *scheduling.ValidationError
		conflict   *scheduling.ConflictError
		notFound   *scheduling.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid input",
			"field":   validation.Field,
			"details": validation.Message,
		})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":    "scheduling conflict",
			"reason":   conflict.Conflict.Reason(),
			"scope":    conflict.Conflict.Scope,
			"conflict": conflict.Conflict,
		})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.Is(err, booking.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		getLogger(c).Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.ErrorResponse{Error: "internal server error"})
	}
}

func badRequest(c *gin.Context, err error) {
	utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
}

// requireActor reads the authenticated actor or answers 401.
func requireActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return models.Actor{}, false
	}
	return actor, true
}
