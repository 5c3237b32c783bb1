package router

import (
	"time"

	"chatster/backend/internal/api"
	"chatster/backend/internal/ws"
	"chatster/backend/pkg/config"
	"chatster/backend/pkg/di"
	"chatster/backend/pkg/errors"
	"chatster/backend/pkg/health"
	"chatster/backend/pkg/logger"
	"chatster/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Hub       *ws.Hub
	Health    *health.Checker
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)

	cfg := config.Get()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	if err := engine.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
		container.Logger.Warn("Invalid trusted proxy configuration", "error", err.Error())
	}

	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	rlOpts := middleware.DefaultRateLimiterOptions()
	rlOpts.Limit = rate.Limit(cfg.Security.RateLimit)
	rlOpts.Burst = cfg.Security.RateLimitBurst
	rateLimiter := middleware.NewRateLimiter(container.Logger, rlOpts)
	engine.Use(rateLimiter.Middleware())

	hub := ws.NewHub(container.Registry, container.ConversationService, container.Logger)

	checker := health.NewChecker(container.Logger, 30*time.Second)
	checker.RegisterDatabaseCheck(func() error {
		return container.DB.Exec("SELECT 1").Error
	})
	if container.Redis != nil {
		checker.RegisterCacheCheck(container.Redis.Ping)
	}
	checker.RegisterSessionCheck(container.Registry.Len)
	checker.Start()

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Hub:       hub,
		Health:    checker,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.Use(corsMiddleware())

	jwtAuth := middleware.JWTAuthMiddleware(r.Container.JWTService, r.Logger)

	authHandler := api.NewAuthHandler(r.Container.UserService, r.Container.JWTService, r.Logger)
	conversationController := api.NewConversationController(r.Container.ConversationService, r.Hub, r.Logger)

	v1 := r.Engine.Group("/api/v1")

	publicRoutes := v1.Group("/")
	{
		publicRoutes.GET("/health", gin.WrapF(r.Health.HTTPHandler()))

		authRoutes := publicRoutes.Group("/auth")
		{
			authRoutes.POST("/signup", authHandler.Signup)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.GET("/me", jwtAuth, authHandler.Me)
		}
	}

	protectedRoutes := v1.Group("/")
	protectedRoutes.Use(jwtAuth)
	{
		protectedRoutes.POST("/profiles/search", authHandler.SearchProfiles)
		conversationController.RegisterRoutesV1(protectedRoutes)
	}

	// Unversioned health endpoint for load balancers
	r.Engine.GET("/health", gin.WrapF(r.Health.HTTPHandler()))

	// WebSocket route authenticates inside the handler so an auth_error
	// event can be delivered over the socket before closing
	r.Engine.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(r.Hub, r.Container.JWTService, c)
	})
}

// corsMiddleware allows browser clients to reach the API and upgrade
// WebSocket connections
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		if origin != "*" {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, X-CSRF-Token, Authorization, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Upgrade, Connection")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
