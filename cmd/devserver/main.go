package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"umclient/internal/devserver"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := devserver.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var store devserver.RefreshTokenStore
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		ctxPing, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := client.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, falling back to memory store", zap.Error(err))
		} else {
			store = devserver.NewRedisRefreshTokenStore(client)
		}
		cancel()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           devserver.New(logger, cfg, store).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("devserver listening", zap.String("port", cfg.HTTPPort))
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
