package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/tracklab/studio-api/internal/auth"
	"github.com/tracklab/studio-api/internal/cache"
	"github.com/tracklab/studio-api/internal/client"
	"github.com/tracklab/studio-api/internal/config"
	"github.com/tracklab/studio-api/internal/handler"
	"github.com/tracklab/studio-api/internal/middleware"
	"github.com/tracklab/studio-api/internal/model"
	"github.com/tracklab/studio-api/internal/realtime"
	"github.com/tracklab/studio-api/internal/service"
	"github.com/tracklab/studio-api/internal/worker"
	ws "github.com/tracklab/studio-api/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: Redis not available: %v", err)
	}

	// Initialize Asynq client
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer asynqClient.Close()

	// Initialize validator
	validate := validator.New()

	// Initialize WebSocket hub
	hub := ws.NewHub()
	go hub.Run()

	// Initialize external clients
	groqClient := client.NewGroqClient(&cfg.Groq)
	sunoClient := client.NewSunoClient(&cfg.Suno)
	audioClient := client.NewAudioClient(&cfg.Audio)

	// Initialize R2 client (optional - continues if not configured)
	var r2Client *client.R2Client
	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		var err error
		r2Client, err = client.NewR2Client(&cfg.R2)
		if err != nil {
			log.Printf("Warning: R2 client not initialized: %v", err)
		}
	} else {
		log.Println("Info: R2 storage not configured, provider URLs will be served directly")
	}

	// Initialize OIDC JWKS verifier (optional - falls back to legacy JWT)
	var jwksVerifier *auth.JWKSVerifier
	if cfg.OIDC.Issuer != "" {
		var err error
		jwksVerifier, err = auth.NewJWKSVerifier(&cfg.OIDC)
		if err != nil {
			log.Printf("Warning: JWKS verifier not initialized: %v", err)
		} else {
			defer jwksVerifier.Close()
		}
	}

	// Realtime transport and caches
	pubsub := realtime.NewPubSub(redisClient)
	sectionCache := cache.NewSectionCache(redisClient)

	// Initialize services
	trackService := service.NewTrackService(redisClient)
	sectionService := service.NewSectionService(trackService, audioClient, sectionCache)
	generationService := service.NewGenerationService(redisClient, asynqClient, trackService, pubsub, hub)
	studioService := service.NewStudioService(pubsub, sectionCache, hub)
	lyricsService := service.NewLyricsService(groqClient)

	// Initialize handlers
	trackHandler := handler.NewTrackHandler(trackService, sectionService, validate)
	generationHandler := handler.NewGenerationHandler(generationService, studioService, validate)
	studioHandler := handler.NewStudioHandler(studioService, trackService, validate)
	lyricsHandler := handler.NewLyricsHandler(lyricsService, validate)

	// Initialize auth handler for ForwardAuth verification
	var tokenVerifier auth.TokenVerifier
	if jwksVerifier != nil {
		tokenVerifier = jwksVerifier
	}
	authHandler := handler.NewAuthHandler(tokenVerifier, cfg.JWT.Secret)

	// Initialize middleware (with fallback support)
	var apiAuthMiddleware fiber.Handler
	if cfg.Gateway.Enabled {
		// Behind Traefik: auth is handled by ForwardAuth, read X-User-* headers
		log.Println("Info: Gateway mode enabled — using header-based auth")
		apiAuthMiddleware = middleware.GatewayAuthMiddleware()
	} else {
		// Direct mode: auth is handled by the backend itself
		var authMiddleware *middleware.AuthMiddleware
		if jwksVerifier != nil && cfg.JWT.Secret != "" {
			authMiddleware = middleware.NewAuthMiddlewareWithFallback(jwksVerifier, cfg.JWT.Secret)
		} else if jwksVerifier != nil {
			authMiddleware = middleware.NewAuthMiddleware(jwksVerifier)
		} else {
			authMiddleware = middleware.NewLegacyAuthMiddleware(cfg.JWT.Secret)
		}
		apiAuthMiddleware = authMiddleware.Authenticate()
	}
	rateLimiter := middleware.NewRateLimiter(redisClient)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
		BodyLimit:    10 * 1024 * 1024, // 10MB
	})

	// Global middleware
	app.Use(recover.New())
	isDebug := strings.EqualFold(cfg.Server.LogLevel, "debug")
	logFormat := "[${time}] ${status} - ${latency} ${method} ${path}\n"
	if isDebug {
		logFormat = "[${time}] ${status} - ${latency} ${method} ${path} ${queryParams} ${body} ${reqHeaders}\n"
		log.Println("Debug logging enabled")
	}
	app.Use(logger.New(logger.Config{
		Format: logFormat,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Base URL - timestamp
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"timestamp": time.Now().Unix(),
		})
	})

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"services": fiber.Map{
				"groq":  groqClient.IsConfigured(),
				"suno":  sunoClient.IsConfigured(),
				"r2":    r2Client != nil,
				"audio": audioClient.IsConfigured(),
				"auth":  jwksVerifier != nil || cfg.JWT.Secret != "",
			},
			"sessions": studioService.SessionCount(),
		})
	})

	// ForwardAuth verification endpoint (internal, called by Traefik)
	app.Get("/auth/verify", authHandler.Verify)

	// API routes
	api := app.Group("/api", apiAuthMiddleware)

	// Project and section routes
	projects := api.Group("/projects")
	projects.Post("/", trackHandler.CreateProject)
	projects.Get("/:projectId", trackHandler.GetProject)
	projects.Post("/:projectId/tracks", trackHandler.AddTrack)
	projects.Get("/:projectId/locks", trackHandler.GetLocks)
	projects.Get("/:projectId/locks/:operation", trackHandler.CheckOperation)
	projects.Get("/:projectId/sections", trackHandler.GetSections)
	projects.Post("/:projectId/sections/analyze", trackHandler.AnalyzeSections)

	// Generation routes. Separation gets its own, tighter limit.
	generation := api.Group("/generation")
	generationLimit := rateLimiter.GenerationLimit(cfg.RateLimit.GenerationPerHour)
	separationLimit := rateLimiter.SeparationLimit(cfg.RateLimit.SeparationPerHour)
	generation.Get("/status/:taskId", generationHandler.Status)
	generation.Post("/:operation", func(c *fiber.Ctx) error {
		if model.Operation(c.Params("operation")) == model.OperationSeparateStems {
			return separationLimit(c)
		}
		return generationLimit(c)
	}, generationHandler.Submit)

	// Studio session routes
	sessions := api.Group("/studio/sessions")
	sessions.Post("/", rateLimiter.SessionLimit(cfg.RateLimit.SessionsPerMin), studioHandler.CreateSession)
	sessions.Delete("/:sessionId", studioHandler.CloseSession)
	sessions.Get("/:sessionId/modal", studioHandler.GetModal)
	sessions.Put("/:sessionId/modal", studioHandler.OpenModal)
	sessions.Delete("/:sessionId/modal", studioHandler.CloseModal)
	sessions.Get("/:sessionId/editor", studioHandler.GetEditor)
	sessions.Post("/:sessionId/editor/section", studioHandler.SelectSection)
	sessions.Post("/:sessionId/editor/range", studioHandler.SetCustomRange)
	sessions.Patch("/:sessionId/editor/fields", studioHandler.UpdateFields)
	sessions.Delete("/:sessionId/editor/selection", studioHandler.ClearSelection)
	sessions.Post("/:sessionId/editor/reset", studioHandler.ResetEditor)

	// Lyrics routes
	lyrics := api.Group("/lyrics", rateLimiter.LyricsLimit(cfg.RateLimit.LyricsPerMin))
	lyrics.Post("/rewrite", lyricsHandler.Rewrite)

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/tracks/:trackId", websocket.New(func(c *websocket.Conn) {
		trackID := c.Params("trackId")
		hub.HandleConnection(c, trackID)
	}))

	// Start Asynq worker server
	go startWorkerServer(cfg, generationService, trackService, sunoClient, r2Client)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func startWorkerServer(
	cfg *config.Config,
	generationService *service.GenerationService,
	trackService *service.TrackService,
	sunoClient *client.SunoClient,
	r2Client *client.R2Client,
) {
	asynqLogLevel := asynq.InfoLevel
	if strings.EqualFold(cfg.Server.LogLevel, "debug") {
		asynqLogLevel = asynq.DebugLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "warn") {
		asynqLogLevel = asynq.WarnLevel
	} else if strings.EqualFold(cfg.Server.LogLevel, "error") {
		asynqLogLevel = asynq.ErrorLevel
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"generation": 6,
				"separation": 4,
			},
			LogLevel: asynqLogLevel,
		},
	)

	// R2Client may be a typed nil; keep the interface nil in that case so
	// workers fall back to provider URLs.
	var storage client.StorageClient
	if r2Client != nil {
		storage = r2Client
	}

	generationWorker := worker.NewGenerationWorker(generationService, trackService, sunoClient, storage)
	separationWorker := worker.NewSeparationWorker(generationService, trackService, sunoClient, storage)

	mux := asynq.NewServeMux()
	mux.HandleFunc(service.TaskTypeGeneration, generationWorker.ProcessTask)
	mux.HandleFunc(service.TaskTypeSeparation, separationWorker.ProcessTask)

	if err := srv.Run(mux); err != nil {
		log.Printf("Asynq worker error: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "SERVICE_ERROR",
			"message": message,
		},
	})
}
