package redisdb

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"sdgtrack/internal/config"
)

// NewClient connects to redis and pings it once. Sessions and progress
// snapshots degrade gracefully when redis is down, so an unreachable
// server is logged rather than fatal.
func NewClient(cfg *config.Config) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[Redis] ping %s failed: %v (sessions will not persist)", cfg.Redis.Addr, err)
	}
	return rdb
}
