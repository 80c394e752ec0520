package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/retail-vision/dashboard/internal/analytics"
	"github.com/retail-vision/dashboard/internal/api/handlers"
	"github.com/retail-vision/dashboard/internal/assistant"
	"github.com/retail-vision/dashboard/internal/dashboard"
	"github.com/retail-vision/dashboard/internal/metrics"
	"github.com/retail-vision/dashboard/internal/middleware/ratelimit"
	"github.com/retail-vision/dashboard/internal/middleware/security"
	"github.com/retail-vision/dashboard/internal/voice"
	"github.com/retail-vision/dashboard/pkg/config"
	appLogger "github.com/retail-vision/dashboard/pkg/logger"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting branch operations dashboard",
		zap.String("branch", cfg.Branch.Code),
	)

	metrics.Init()

	analyticsClient := analytics.NewClient(
		cfg.Analytics.BaseURL,
		cfg.Analytics.StreamPath,
		time.Duration(cfg.Analytics.TimeoutSec)*time.Second,
	)

	assistantClient := assistant.NewClient(
		cfg.Assistant.BaseURL,
		time.Duration(cfg.Assistant.TimeoutSec)*time.Second,
	)

	store := dashboard.NewStore(cfg.Branch.Code)

	var sink dashboard.AudioSink
	if cfg.Voice.PlayCommand != "" {
		sink = voice.NewExecSink(cfg.Voice.PlayCommand, cfg.Voice.PlayArgs)
	}

	dispatcher := dashboard.NewDispatcher(
		analyticsClient,
		assistantClient,
		sink,
		store,
		dashboard.Identity{
			BranchID:       cfg.Branch.Code,
			ActorID:        cfg.Branch.ActorID,
			ConversationID: cfg.Branch.ConversationID,
			UserRole:       cfg.Branch.UserRole,
		},
	)

	poller := dashboard.NewPoller(
		analyticsClient,
		store,
		cfg.Branch.Code,
		cfg.Analytics.KPILimit,
		time.Duration(cfg.Poll.IntervalSec)*time.Second,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(security.HeadersMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()

	captureDevice := voice.NewExecDevice(cfg.Voice.CaptureCommand, cfg.Voice.CaptureArgs)
	recorder := voice.NewRecorder(captureDevice, dispatcher)

	dashboardHandler := handlers.NewDashboardHandler(store)
	actionsHandler := handlers.NewActionsHandler(dispatcher)
	chatHandler := handlers.NewChatHandler(dispatcher)
	voiceHandler := handlers.NewVoiceHandler(recorder)
	streamHandler := handlers.NewStreamHandler(analyticsClient.StreamURL())
	wsHandler := handlers.NewWebSocketHandler(store)

	poller.OnCycle(wsHandler.Broadcast)

	api := app.Group("/api/v1")

	api.Get("/dashboard", dashboardHandler.GetDashboard)
	api.Post("/recommendations/approve", limiter.Middleware(), actionsHandler.ApproveRecommendation)
	api.Post("/chat", limiter.Middleware(), chatHandler.SendMessage)
	api.Post("/chat/voice", limiter.Middleware(), chatHandler.SendVoiceMessage)
	api.Post("/voice/record/start", voiceHandler.StartRecording)
	api.Post("/voice/record/stop", voiceHandler.StopRecording)
	api.Get("/live", streamHandler.GetLiveStream)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/dashboard", websocket.New(wsHandler.HandleConnection))

	poller.Start()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	poller.Stop()
	app.Shutdown()
	appLogger.Info("Server stopped")
}
