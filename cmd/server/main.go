package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-realtime/internal/api/handlers"
	"chat-realtime/internal/api/middleware"
	"chat-realtime/internal/api/routes"
	"chat-realtime/internal/auth"
	"chat-realtime/internal/config"
	"chat-realtime/internal/database"
	"chat-realtime/internal/logger"
	"chat-realtime/internal/notification"
	"chat-realtime/internal/repositories/postgres"
	"chat-realtime/internal/services"
	"chat-realtime/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Initialize logger
	logg := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logg)
	logg.Info("Starting chat realtime server")

	// Initialize database connection
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logg.Error("Failed to connect to database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}

	// Redis backs the notification queue and the connection rate limit
	var redisClient *redis.Client
	if cfg.NeedsRedis() {
		redisClient, err = database.NewRedisConnection(cfg.Redis)
		if err != nil {
			logg.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	conversationRepo := postgres.NewConversationRepository(db)
	messageRepo := postgres.NewMessageRepository(db)

	// Realtime core
	verifier := auth.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Leeway, userRepo, logg)
	hub := websocket.NewHub(logg)
	authorizer := websocket.NewAuthorizer(conversationRepo, hub, logg)
	frameHandler := websocket.NewFrameHandler(authorizer, hub, logg)
	gate := websocket.NewGate(verifier, logg)

	// Notification pipeline
	queue, err := notification.NewQueue(cfg.Notification, cfg.Kafka, redisClient)
	if err != nil {
		logg.Error("Failed to create notification queue", "backend", cfg.Notification.Queue, "error", err)
		os.Exit(1)
	}
	var provider notification.Provider = notification.NewLogProvider(logg)
	if cfg.Notification.PushEndpoint != "" {
		provider = notification.NewExpoProvider(cfg.Notification.PushEndpoint, cfg.Notification.PushTimeout)
	}
	dispatcher := notification.NewDispatcher(messageRepo, userRepo, provider, logg)
	pool := notification.NewPool(queue, dispatcher, cfg.Notification.Workers, logg)
	chatService := services.NewChatService(conversationRepo, messageRepo, notification.NewNotifier(queue, logg), logg)

	poolCtx, stopPool := context.WithCancel(context.Background())
	poolDone := make(chan struct{})
	go func() {
		defer close(poolDone)
		pool.Run(poolCtx)
	}()

	// HTTP layer
	clientOpts := websocket.ClientOptions{
		WriteWait:      cfg.WebSocket.WriteWait,
		PongWait:       cfg.WebSocket.PongWait,
		MaxMessageSize: cfg.WebSocket.MaxMessageSize,
		SendBufferSize: cfg.WebSocket.SendBufferSize,
	}
	upgrader := websocket.NewUpgrader(cfg.WebSocket.ReadBufferSize, cfg.WebSocket.WriteBufferSize, cfg.WebSocket.AllowedOrigins)

	var rateLimitMW *middleware.RateLimitMiddleware
	if redisClient != nil {
		rateLimitMW = middleware.NewRateLimitMiddleware(services.NewRateLimiter(redisClient), logg)
	}

	gin.SetMode(gin.ReleaseMode)
	router := routes.NewRouter(
		handlers.NewWSHandler(gate, hub, frameHandler, upgrader, clientOpts, logg),
		handlers.NewMessageHandler(chatService),
		middleware.NewAuthMiddleware(verifier),
		rateLimitMW,
		routes.Options{
			AllowedOrigins: cfg.WebSocket.AllowedOrigins,
			ConnectLimit:   cfg.WebSocket.ConnectLimit,
			ConnectWindow:  cfg.WebSocket.ConnectWindow,
			AccessLog:      true,
		},
	)
	router.SetupRoutes()

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		logg.Info("Server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting connections, then drop the live ones
	if err := server.Shutdown(ctx); err != nil {
		logg.Error("Server forced to shutdown", "error", err)
	}
	hub.Shutdown()

	// Stop workers; queued tasks left in memory are lost
	stopPool()
	if err := queue.Close(); err != nil {
		logg.Error("Failed to close notification queue", "error", err)
	}
	select {
	case <-poolDone:
	case <-ctx.Done():
		logg.Warn("Notification workers did not stop in time")
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logg.Info("Server stopped")
}
