package middleware

import (
	"net/http"
	"strings"

	"tutordesk/models"
	"tutordesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const actorKey = "actor"

// JWTAuthMiddleware validates the bearer token and stores the explicit Actor (sub and role
// claims) on the context. Authorization policy is not applied here.
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		actor, err := utils.ActorFromToken(tokenString)
		if err != nil {
			utils.GetLogger().Debug("Rejected bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(actorKey, actor)
		if l, ok := c.Get(loggerKey); ok {
			if logger, ok := l.(*zap.Logger); ok {
				c.Set(loggerKey, logger.With(zap.String("actorId", actor.ID)))
			}
		}
		c.Next()
	}
}

// ActorFromContext returns the actor set by JWTAuthMiddleware.
func ActorFromContext(c *gin.Context) (models.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok && actor.ID != ""
}
