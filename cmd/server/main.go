package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sarathi/sarathi/internal/common/database"
	commonHandlers "github.com/sarathi/sarathi/internal/common/handlers"
	"github.com/sarathi/sarathi/internal/common/health"
	"github.com/sarathi/sarathi/internal/common/middleware"
	contenthandlers "github.com/sarathi/sarathi/internal/content/handlers"
	contentmodels "github.com/sarathi/sarathi/internal/content/models"
	contentservices "github.com/sarathi/sarathi/internal/content/services"
	"github.com/sarathi/sarathi/internal/mission"
	missionhandlers "github.com/sarathi/sarathi/internal/mission/handlers"
	"github.com/sarathi/sarathi/internal/offline"
	synchandlers "github.com/sarathi/sarathi/internal/offline/handlers"
	progresshandlers "github.com/sarathi/sarathi/internal/progress/handlers"
	progressmodels "github.com/sarathi/sarathi/internal/progress/models"
	progressrepo "github.com/sarathi/sarathi/internal/progress/repository"
	progressservices "github.com/sarathi/sarathi/internal/progress/services"
	statshandlers "github.com/sarathi/sarathi/internal/stats/handlers"
	statsmodels "github.com/sarathi/sarathi/internal/stats/models"
	"github.com/sarathi/sarathi/pkg/config"
	"github.com/sarathi/sarathi/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// SQLite for development, PostgreSQL for production
	if err := database.InitWithType(cfg.Database.Type, cfg.Database.DSN); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	if err := database.GetDB().AutoMigrate(
		&contentmodels.Mission{},
		&progressmodels.ProgressRecord{},
		&statsmodels.User{},
		&statsmodels.XPLog{},
		&statsmodels.StreakLedger{},
	); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}

	// Best effort: a missing catalog file is fine on a pre-seeded database.
	if seeded, err := contentservices.SeedCatalog(cfg.Content.CatalogPath); err != nil {
		logger.Warn("catalog seed skipped", zap.String("path", cfg.Content.CatalogPath), zap.Error(err))
	} else if seeded > 0 {
		logger.Info("mission catalog seeded", zap.Int("missions", seeded))
	}

	store := progressrepo.NewGormStore(database.GetDB())
	progressService := progressservices.NewService(store)

	queue, err := offline.NewQueue(cfg.Sync.QueuePath, cfg.Sync.MaxAttempts)
	if err != nil {
		log.Fatalf("Failed to open sync queue: %v", err)
	}
	monitor := offline.NewMonitor()

	coordinator := mission.NewCoordinator(store, mission.StatsRewardSink{}, queue)
	manager := mission.NewManager(coordinator)

	flusher := offline.NewFlusher(queue, monitor, coordinator, cfg.Sync.FlushInterval)
	flusher.Start()
	defer flusher.Stop()

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.ErrorHandler())

	healthChecker := health.NewChecker(database.GetDB(), "1.0.0")
	healthHandler := commonHandlers.NewHealthHandler(healthChecker)
	router.GET("/api/health", healthHandler.Health)
	router.GET("/api/health/readiness", healthHandler.Readiness)
	router.GET("/api/health/liveness", healthHandler.Liveness)
	router.GET("/api/health/metrics", healthHandler.Metrics)
	router.GET("/api/health/detailed", healthHandler.Detailed)

	api := router.Group("/api")
	{
		// Mission catalog
		api.GET("/missions", contenthandlers.ListMissions)
		api.GET("/mission/:id", contenthandlers.GetMission)

		// Raw progress store access (dashboard reads, partial writes)
		progressHandler := progresshandlers.NewProgressHandler(progressService)
		api.GET("/mission-progress/:userId/:missionId", progressHandler.GetProgress)
		api.POST("/mission-progress", middleware.AuthRequired(), progressHandler.UpsertProgress)

		// User stats and accounts
		api.GET("/users/:userId/stats", statshandlers.GetUserStats)
		api.POST("/users", statshandlers.CreateUser)
		api.GET("/teacher/students", middleware.AuthRequired(), middleware.RequireRole("teacher"), statshandlers.ListStudents)

		// Live mission sessions
		sessionHandler := missionhandlers.NewSessionHandler(manager, coordinator)
		session := api.Group("/session", middleware.AuthRequired())
		{
			session.POST("/:missionId/start", sessionHandler.Start)
			session.GET("/:missionId", sessionHandler.GetState)
			session.POST("/:missionId/next", sessionHandler.Next)
			session.POST("/:missionId/previous", sessionHandler.Previous)
			session.POST("/:missionId/play-complete", sessionHandler.PlayComplete)
			session.POST("/:missionId/answer", sessionHandler.Answer)
			session.POST("/:missionId/place", sessionHandler.Place)
			session.POST("/:missionId/connector", sessionHandler.Connector)
			session.POST("/:missionId/reset", sessionHandler.Reset)
			session.POST("/:missionId/complete", sessionHandler.Complete)
		}

		// Offline sync
		syncHandler := synchandlers.NewSyncHandler(flusher, monitor, queue)
		api.POST("/sync", syncHandler.Sync)
		api.POST("/sync/offline", syncHandler.Offline)
		api.GET("/sync/status", syncHandler.Status)
	}

	address := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting server", zap.String("address", address))

	if err := router.Run(address); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
