package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"expense-platform/internal/config"
	"expense-platform/internal/db"
	apihttp "expense-platform/internal/http"
	"expense-platform/internal/ocr"
	"expense-platform/internal/repository"
	"expense-platform/internal/service"
	"expense-platform/internal/storage"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const stagingFolder = "temp_for_ocr"

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

	if err := db.Ping(ctx, pool); err != nil {
		logger.Fatal("db ping", zap.Error(err))
	}
	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		logger.Fatal("create upload dir", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	expenseRepo := repository.NewPgExpenseRepository(pool)

	var sessionStore service.SessionStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, falling back to in-memory sessions", zap.Error(err))
		} else {
			sessionStore = service.NewRedisSessionStore(redisClient)
		}
		cancel()
	}
	if sessionStore == nil {
		sessionStore = service.NewMemorySessionStore()
	}

	blobStore := storage.NewLocalStore(cfg.UploadDir, cfg.PublicUploadPath, logger)
	extractor := ocr.SimulatedExtractor{}

	authSvc := service.NewAuthService(logger, userRepo, sessionStore, time.Duration(cfg.SessionTTLHours)*time.Hour)
	expenseSvc := service.NewExpenseService(logger, expenseRepo, blobStore, extractor, filepath.Join(cfg.UploadDir, stagingFolder))

	authHandler := apihttp.NewAuthHandler(logger, authSvc)
	expenseHandler := apihttp.NewExpenseHandler(logger, expenseSvc, blobStore)
	router := apihttp.NewRouter(logger, authSvc, authHandler, expenseHandler, cfg.UploadDir, cfg.PublicUploadPath)

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
