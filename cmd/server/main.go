package main

import (
	"alcyxob/coach-tracker/internal/api" // Import API package
	"alcyxob/coach-tracker/internal/cache"
	"alcyxob/coach-tracker/internal/config"
	"alcyxob/coach-tracker/internal/logging"
	"alcyxob/coach-tracker/internal/metrics"
	"alcyxob/coach-tracker/internal/notify"
	"alcyxob/coach-tracker/internal/repository/mongo"
	"alcyxob/coach-tracker/internal/service"
	"alcyxob/coach-tracker/internal/storage"
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// @title Coach Tracker API
// @version 1.0
// @description API for coaches assigning meal and workout plans and tracking client compliance.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logrus.Fatalf("Could not load config: %v", err)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	log.Info("Starting Coach Tracker server...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Info("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.WithError(err).Error("Failed to disconnect MongoDB")
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.WithField("database", cfg.Database.Name).Info("Database connection established.")

	// --- Ensure Indexes ---
	go func() { // Run index creation in background
		ctx, cancel := context.WithTimeout(ctx, 1*time.Minute)
		defer cancel()
		for coll, err := range mongo.EnsureIndexes(ctx, appDB) {
			log.WithError(err).WithField("collection", coll).Error("Failed to create indexes")
		}
		log.Info("Index creation process completed.")
	}()

	// --- Cache ---
	backend, redisClient := newCacheBackend(ctx, cfg.Cache, log)
	readThrough := cache.NewReadThrough(backend, cfg.Cache.TTL, log)

	// --- Initialize Storage ---
	fileStorage, err := storage.NewS3Storage(ctx, cfg.S3, log)
	if err != nil {
		log.Fatalf("Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	repos := service.Repositories{
		Users:       mongo.NewMongoUserRepository(appDB),
		MealPlans:   mongo.NewMongoMealPlanRepository(appDB),
		Workouts:    mongo.NewMongoWorkoutPlanRepository(appDB),
		Completions: mongo.NewMongoCompletionRepository(appDB),
		Supplements: mongo.NewMongoSupplementRepository(appDB),
		Weights:     mongo.NewMongoWeightRepository(appDB),
		Messages:    mongo.NewMongoMessageRepository(appDB),
		Photos:      mongo.NewMongoPhotoRepository(appDB),
	}

	// --- Initialize Services ---
	loc := cfg.Compliance.Location()
	messageService := service.NewMessageService(repos.Users, repos.Messages, notify.NewSMTPNotifier(cfg.SMTP, log), log)
	services := api.Services{
		Identity:   service.NewIdentityService(repos.Users, readThrough, cfg.Auth.JWTSecret, cfg.Auth.Issuer, log),
		Coach:      service.NewCoachService(repos, fileStorage, readThrough, log),
		Client:     service.NewClientService(repos, fileStorage, readThrough, loc, log),
		Compliance: service.NewComplianceService(repos, readThrough, cfg.Compliance.WindowDays, loc, log),
		Messages:   messageService,
	}

	limiter := api.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	if limiter != nil {
		go every(ctx, time.Minute, func() {
			if n := limiter.Cleanup(time.Now()); n > 0 {
				log.WithField("removed", n).Debug("Dropped idle rate limiters")
			}
		})
	}

	// --- Initialize Gin Engine ---
	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(api.RequestLogger(log), metrics.Middleware(), gin.Recovery())
	api.SetupRoutes(router, cfg.Auth.CookieName, services, limiter)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("address", cfg.Server.Address).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe Error: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("Shutting down server...")

	// The server has 5 seconds to finish the requests it is currently handling
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}
	messageService.Wait()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.WithError(err).Error("Failed to close Redis client")
		}
	}

	log.Info("Server exiting.")
}

// newCacheBackend picks the configured cache. Redis falls back to the
// in-process cache when it cannot be reached at startup. The Redis client is
// returned so shutdown can close it; it is nil for the in-process cache.
func newCacheBackend(ctx context.Context, cfg config.CacheConfig, log logrus.FieldLogger) (cache.Cache, *redis.Client) {
	if cfg.Backend == "redis" {
		client, err := cache.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err == nil {
			log.WithField("addr", cfg.RedisAddr).Info("Using Redis cache")
			return cache.NewRedis(client, "coach-tracker:"), client
		}
		log.WithError(err).Warn("Redis unavailable, falling back to in-memory cache")
	}
	mem := cache.NewMemory()
	go every(ctx, time.Minute, func() { mem.Sweep() })
	return mem, nil
}

// every runs fn on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
