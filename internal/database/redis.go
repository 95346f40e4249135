package database

import (
	"github.com/redis/go-redis/v9"

	"github.com/votehubph/backend/internal/config"
	"github.com/votehubph/backend/internal/logger"
)

// OpenRedis returns nil when no address is configured; callers fall back to
// in-process stores.
func OpenRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	logger.L().Debug("redis_open", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}
