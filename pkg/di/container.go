package di

import (
	"time"

	"chatster/backend/internal/repository"
	"chatster/backend/internal/service"
	"chatster/backend/internal/session"
	"chatster/backend/pkg/config"
	"chatster/backend/pkg/jwt"
	"chatster/backend/pkg/logger"
	"chatster/backend/shared/redis"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB                  *gorm.DB
	Logger              *logger.Logger
	JWTService          *jwt.Service
	Redis               *redis.RedisClient
	MemberCache         service.MemberCache
	UserRepository      repository.UserRepository
	ConversationRepo    repository.ConversationRepository
	UserService         *service.UserService
	ConversationService *service.ConversationService
	Registry            *session.Registry
}

// Config holds the configuration for the container
type Config struct {
	LoggerConfig logger.Config
	JWTSecret    string
	JWTExpiry    time.Duration
	CacheBackend string
	CacheTTL     time.Duration
	CacheMaxSize int
	RedisURL     string
}

// DefaultConfig builds a container configuration from the application config
func DefaultConfig() *Config {
	cfg := config.Get()

	backend := cfg.Cache.Backend
	if !cfg.Cache.Enabled {
		backend = "none"
	}

	return &Config{
		LoggerConfig: logger.Config{
			Level: cfg.Logging.Level,
			JSON:  cfg.Logging.Format != "text",
		},
		JWTSecret:    cfg.JWT.Secret,
		JWTExpiry:    cfg.JWT.Expiry,
		CacheBackend: backend,
		CacheTTL:     cfg.Cache.TTL,
		CacheMaxSize: cfg.Cache.MaxSize,
		RedisURL:     cfg.Cache.RedisURL,
	}
}

// New creates a new dependency injection container
func New(db *gorm.DB, cfg *Config) (*Container, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	log := logger.New(cfg.LoggerConfig)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTExpiry)

	userRepo := repository.NewGormUserRepository(db)
	convRepo := repository.NewGormConversationRepository(db)

	var redisClient *redis.RedisClient
	var memberCache service.MemberCache
	switch cfg.CacheBackend {
	case "redis":
		redisClient = redis.NewRedisClient(cfg.RedisURL)
		if err := redisClient.Ping(); err != nil {
			// Fall back to the in-process cache rather than refusing to boot.
			log.Warn("Redis unreachable, using in-memory membership cache", "error", err.Error())
			memberCache = service.NewMemoryMemberCache(cfg.CacheTTL, cfg.CacheTTL, cfg.CacheMaxSize)
		} else {
			memberCache = service.NewRedisMemberCache(redisClient, cfg.CacheTTL)
		}
	case "none":
		memberCache = nil
	default:
		memberCache = service.NewMemoryMemberCache(cfg.CacheTTL, cfg.CacheTTL, cfg.CacheMaxSize)
	}

	userService := service.NewUserService(userRepo, jwtService)
	conversationService := service.NewConversationService(convRepo, memberCache, log)

	registry := session.NewRegistry()

	return &Container{
		DB:                  db,
		Logger:              log,
		JWTService:          jwtService,
		Redis:               redisClient,
		MemberCache:         memberCache,
		UserRepository:      userRepo,
		ConversationRepo:    convRepo,
		UserService:         userService,
		ConversationService: conversationService,
		Registry:            registry,
	}, nil
}
