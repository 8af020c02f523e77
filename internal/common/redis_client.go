package common

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"label-cabinet/backstage/internal/config"
	"label-cabinet/backstage/internal/logging"
)

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	logging.Info("Initializing Redis client", "addr", cfg.Addr(), "db", cfg.DB)

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		// The pool keeps retrying; callers see errors per command.
		logging.Error("Failed to ping Redis", "error", err)
		return client
	}

	logging.Info("Successfully connected to Redis")
	return client
}
