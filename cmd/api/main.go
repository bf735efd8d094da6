package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"companion-api/internal/config"
	"companion-api/internal/db"
	"companion-api/internal/events"
	apihttp "companion-api/internal/http"
	"companion-api/internal/repository"
	"companion-api/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if cfg.DBAutoMigrate {
		if err := db.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
		logger.Info("schema ensured")
	}

	companionRepo := repository.NewPgCompanionRepository(pool)
	sessionRepo := repository.NewPgSessionHistoryRepository(pool)
	bookmarkRepo := repository.NewPgBookmarkRepository(pool)

	var (
		tokenStore  service.RefreshTokenStore
		stale       service.StaleTracker
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
			stale = service.NewRedisStaleTracker(redisClient)
		}
		cancel()
	}
	if stale == nil {
		stale = service.NewMemoryStaleTracker()
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	bus := events.NewBus()
	bus.Subscribe(func(ev events.Event) {
		logger.Info("event",
			zap.String("kind", string(ev.Kind)),
			zap.String("user_id", ev.UserID),
			zap.String("companion_id", ev.CompanionID),
			zap.String("path", ev.Path),
		)
	})

	companionSvc := service.NewCompanionService(logger, companionRepo, sessionRepo, bookmarkRepo, stale, bus).
		WithPageLimit(cfg.DefaultPageLimit)

	router := apihttp.NewRouter(logger, jwtSvc,
		apihttp.NewCompanionHandler(logger, companionSvc),
		apihttp.NewAuthHandler(logger, jwtSvc),
		apihttp.NewRenderHandler(logger, stale),
		apihttp.NewHealthHandler(logger, pool),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
