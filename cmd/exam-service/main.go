package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/exam-service/internal/auth"
	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/config"
	"github.com/SAP-F-2025/exam-service/internal/events"
	"github.com/SAP-F-2025/exam-service/internal/handlers"
	"github.com/SAP-F-2025/exam-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
	"github.com/SAP-F-2025/exam-service/internal/validator"
	"github.com/SAP-F-2025/exam-service/pkg"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		utils.NewDefaultLogger().Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment)
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.LogError(err, "Failed to connect to database")
		os.Exit(1)
	}
	if cfg.AutoMigrate {
		if err := pkg.Migrate(db); err != nil {
			logger.LogError(err, "Failed to migrate database")
			os.Exit(1)
		}
	}

	// The service runs without a cache when redis is disabled or unreachable
	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, aggregate cache disabled", "error", err)
			redisClient = nil
		}
	}
	cacheManager := cache.NewCacheManager(redisClient, cfg.Cache.TTL, slogger)

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.LogError(err, "Failed to create event publisher, falling back to mock")
		publisher = events.NewMockEventPublisher(slogger)
	}

	resolver, err := auth.NewResolver(cfg)
	if err != nil {
		logger.LogError(err, "Failed to create credential resolver")
		os.Exit(1)
	}

	repo := postgres.NewRepositoryManager(db, cacheManager)
	serviceManager := services.NewServiceManager(repo, publisher, slogger, validator.New())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ContextLogger(logger))
	router.Use(utils.LoggerMiddleware(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", utils.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", utils.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	handlers.NewHandlerManager(serviceManager, resolver, logger).SetupRoutes(router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Exam service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server failed")
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.LogError(err, "Server forced to shutdown")
	}

	if err := publisher.Close(); err != nil {
		logger.LogError(err, "Failed to close event publisher")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.LogError(err, "Failed to close redis client")
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
