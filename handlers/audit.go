package handlers

import (
	"net/http"
	"strconv"

	auditRepo "tutordesk/database/repository/audit"

	"github.com/gin-gonic/gin"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

// AuditHandler serves the activity log.
type AuditHandler struct {
	Repo auditRepo.AuditRepository
}

func NewAuditHandler(repo auditRepo.AuditRepository) *AuditHandler {
	return &AuditHandler{Repo: repo}
}

// ListAuditHandler handles GET /api/audit?limit=.
func (h *AuditHandler) ListAuditHandler(c *gin.Context) {
	limit := defaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxAuditLimit)
	}
	events, err := h.Repo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
