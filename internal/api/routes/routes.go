package routes

import (
	"net/http"
	"time"

	"chat-realtime/internal/api/handlers"
	"chat-realtime/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

type Options struct {
	AllowedOrigins []string
	// ConnectLimit caps connection attempts per IP and window. Zero, or a
	// nil rate limiter, disables it.
	ConnectLimit  int
	ConnectWindow time.Duration
	AccessLog     bool
}

type Router struct {
	engine         *gin.Engine
	wsHandler      *handlers.WSHandler
	messageHandler *handlers.MessageHandler
	authMW         *middleware.AuthMiddleware
	rateLimitMW    *middleware.RateLimitMiddleware
	opts           Options
}

func NewRouter(
	wsHandler *handlers.WSHandler,
	messageHandler *handlers.MessageHandler,
	authMW *middleware.AuthMiddleware,
	rateLimitMW *middleware.RateLimitMiddleware,
	opts Options,
) *Router {
	engine := gin.New()

	// Add middlewares
	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(opts.AllowedOrigins))
	if opts.AccessLog {
		engine.Use(middleware.LogApi())
	}

	return &Router{
		engine:         engine,
		wsHandler:      wsHandler,
		messageHandler: messageHandler,
		authMW:         authMW,
		rateLimitMW:    rateLimitMW,
		opts:           opts,
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// The socket authenticates itself through the connection gate, so it
	// sits outside the auth middleware.
	wsChain := []gin.HandlerFunc{}
	if r.rateLimitMW != nil && r.opts.ConnectLimit > 0 {
		wsChain = append(wsChain, r.rateLimitMW.RateLimitIP(r.opts.ConnectLimit, r.opts.ConnectWindow))
	}
	wsChain = append(wsChain, r.wsHandler.HandleWebSocket)

	r.engine.GET("/ws", wsChain...)

	api := r.engine.Group("/api/v1")
	api.GET("/ws", wsChain...)

	// Authenticated routes
	auth := api.Group("/")
	auth.Use(r.authMW.RequireAuth())
	{
		conversations := auth.Group("/conversations")
		conversations.POST("/:id/messages", r.messageHandler.SendMessage)
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
