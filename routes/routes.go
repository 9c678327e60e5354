package routes

import (
	"net/http"
	"time"

	"tutordesk/handlers"
	"tutordesk/middleware"
	"tutordesk/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Options configures the global middleware chain.
type Options struct {
	Logger            *zap.Logger
	MaxRequestsPerMin int
}

// RegisterBookingRoutes registers calendar and class booking endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("", hb.CreateBookingHandler)
		api.GET("", hb.ListBookingsHandler)
		api.GET("/:id", hb.GetBookingHandler)
		api.PATCH("/:id", hb.UpdateBookingHandler)
		api.DELETE("/:id", hb.DeleteBookingHandler)
	}
}

// RegisterAvailabilityRoutes registers weekly availability, assignment and search endpoints.
func RegisterAvailabilityRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("/availability/search", hb.SearchAvailabilityHandler)
		api.GET("/availability/:teacherId", hb.ListWindowsHandler)
		api.PUT("/availability/:teacherId", hb.ReplaceWindowsHandler)
		api.PUT("/teachers/:teacherId/subjects", hb.ReplaceSubjectsHandler)
	}
}

// RegisterAuditRoutes registers the activity log endpoint.
func RegisterAuditRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/audit")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("", hb.ListAuditHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint serving the last monitor snapshot.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if status.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, opts Options) {
	if opts.Logger == nil {
		opts.Logger = utils.GetLogger()
	}
	r.Use(utils.ErrorHandler())
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware(opts.MaxRequestsPerMin, opts.Logger))

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterAvailabilityRoutes(r, hb)
	RegisterAuditRoutes(r, hb)
}
