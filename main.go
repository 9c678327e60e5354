// File: tutordesk/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tutordesk/config"
	"tutordesk/cron"
	"tutordesk/database"
	assignmentRepo "tutordesk/database/repository/assignment"
	auditRepo "tutordesk/database/repository/audit"
	availabilityRepo "tutordesk/database/repository/availability"
	bookingRepo "tutordesk/database/repository/booking"
	"tutordesk/handlers"
	"tutordesk/routes"
	"tutordesk/services/audit"
	"tutordesk/services/availability"
	"tutordesk/services/booking"
	"tutordesk/services/scheduling"
	"tutordesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// storage bundles the repositories and background clients of one backend.
type storage struct {
	bookings     bookingRepo.BookingRepository
	windows      availabilityRepo.AvailabilityRepository
	assignments  assignmentRepo.AssignmentRepository
	events       auditRepo.AuditRepository
	recorder     audit.Recorder
	redisClients []*redis.Client
	mongoClient  *mongo.Client
	queue        *asynq.Client
	worker       *asynq.Server
}

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Background monitors stop with monitorCtx.
	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()

	var store storage
	if config.UsesMemoryStore() {
		store = memoryStorage(logger)
	} else {
		store = mongoStorage(monitorCtx, logger)
	}

	// services.
	expander := scheduling.NewExpander(config.Location())
	matcher := scheduling.NewMatcher(store.assignments, store.windows, store.bookings, expander,
		config.AppConfig.MatcherConcurrency, logger.Named("matcher"))
	bookingService := booking.NewBookingService(store.bookings, expander, store.recorder, logger.Named("booking"))
	bookingService.MaxRecurrence = config.MaxRecurrenceHorizon()
	availabilityService := availability.NewAvailabilityService(store.windows, store.assignments, matcher,
		store.recorder, logger.Named("availability"))

	// Assemble the handler bundle.
	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewBookingHandler(bookingService),
		handlers.NewAvailabilityHandler(availabilityService),
		handlers.NewAuditHandler(store.events),
	)

	router := gin.New()
	routes.RegisterRoutes(router, handlerBundle, routes.Options{
		Logger:            logger.Named("http"),
		MaxRequestsPerMin: config.AppConfig.MaxRequestsPerMin,
	})

	utils.StartHealthMonitor(monitorCtx, config.AppConfig.StoreBackend, time.Minute, store.redisClients, store.mongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Info("Starting server",
		zap.String("addr", srv.Addr),
		zap.String("backend", config.AppConfig.StoreBackend),
		zap.String("timezone", expander.Location().String()))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("main: server failed to start", zap.Error(err))
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	stopMonitor()
	store.close(ctx, logger)

	logger.Info("main: server stopped gracefully")
}

func memoryStorage(logger *zap.Logger) storage {
	events := auditRepo.NewMemoryAuditRepo()
	logger.Warn("Using in-memory storage; data is lost on restart")
	return storage{
		bookings:    bookingRepo.NewMemoryBookingRepo(),
		windows:     availabilityRepo.NewMemoryAvailabilityRepo(),
		assignments: assignmentRepo.NewMemoryAssignmentRepo(),
		events:      events,
		recorder:    audit.NewStoreRecorder(events, logger.Named("audit")),
	}
}

func mongoStorage(monitorCtx context.Context, logger *zap.Logger) storage {
	database.InitDB()
	db := database.Database()

	// repositories.
	events := auditRepo.NewMongoAuditRepo(db)
	cacheClient := utils.GetCacheClient()
	windows := availabilityRepo.NewCachedAvailabilityRepo(
		availabilityRepo.NewMongoAvailabilityRepo(db),
		cacheClient,
		config.AppConfig.AvailabilityCacheTTL,
		logger.Named("availability-cache"),
	)

	queue := asynq.NewClient(cron.QueueRedisOpt())
	worker := cron.InitAuditWorker(monitorCtx, events, logger.Named("audit-worker"))

	return storage{
		bookings:     bookingRepo.NewMongoBookingRepo(db),
		windows:      windows,
		assignments:  assignmentRepo.NewMongoAssignmentRepo(db),
		events:       events,
		recorder:     audit.NewQueueRecorder(queue, logger.Named("audit")),
		redisClients: []*redis.Client{cacheClient},
		mongoClient:  database.MongoClient,
		queue:        queue,
		worker:       worker,
	}
}

func (s storage) close(ctx context.Context, logger *zap.Logger) {
	if s.worker != nil {
		s.worker.Shutdown()
	}
	if s.queue != nil {
		if err := s.queue.Close(); err != nil {
			logger.Warn("main: failed to close audit queue client", zap.Error(err))
		}
	}
	for _, client := range s.redisClients {
		if err := client.Close(); err != nil {
			logger.Warn("main: failed to close redis client", zap.Error(err))
		}
	}
	if err := database.CloseDB(ctx); err != nil {
		logger.Warn("main: failed to disconnect from MongoDB", zap.Error(err))
	}
}
