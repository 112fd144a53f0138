package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"whiteboard-service/internal/config"
	"whiteboard-service/internal/handler"
	"whiteboard-service/internal/metrics"
	"whiteboard-service/internal/middleware"
	"whiteboard-service/internal/repository"
	"whiteboard-service/internal/service"
	"whiteboard-service/internal/ws"
)

// Setup wires repositories, services, the WebSocket hub and all routes
// into a gin engine. The returned hub must be closed on shutdown.
func Setup(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, m *metrics.Metrics, logger *zap.Logger) (*gin.Engine, *ws.Hub) {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.Metrics(m))

	// Repositories
	boardRepo := repository.NewBoardRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	eventRepo := repository.NewEventRepository(db)

	// Services
	colors := service.NewColorGenerator()
	boardService := service.NewBoardService(boardRepo, participantRepo, colors, cfg.Presence.LivenessTimeout, logger)
	canvasService := service.NewCanvasService(boardRepo, cfg.Canvas.HistoryLimit, cfg.Canvas.SaveDebounce, logger)
	canvasService.SetPersistErrorHook(func() {
		m.PersistenceFailures.WithLabelValues("canvas").Inc()
	})

	// WebSocket hub
	hub := ws.NewHub(ws.HubConfig{
		Canvas:          canvasService,
		Colors:          colors,
		Participants:    participantRepo,
		Events:          eventRepo,
		Redis:           redisClient,
		Logger:          logger,
		Metrics:         m,
		LivenessTimeout: cfg.Presence.LivenessTimeout,
		SweepInterval:   cfg.Presence.SweepInterval,
	})

	// Handlers
	boardHandler := handler.NewBoardHandler(boardService)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	// Health endpoints (no auth)
	r.GET("/health", healthHandler.Health)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes with base path
	api := r.Group(cfg.Server.BasePath)
	{
		api.GET("/health", healthHandler.Health)
		api.GET("/ready", healthHandler.Ready)

		// WebSocket endpoint (static route must come before dynamic route)
		api.GET("/ws", hub.HandleWebSocket)

		api.POST("/join", boardHandler.JoinBoard)
		api.GET("/:boardId", boardHandler.GetBoard)
		api.GET("/:boardId/users", boardHandler.GetActiveUsers)
	}

	return r, hub
}
