package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/attendance-portal/pkg/config"
)

// NewRedis returns a configured Redis client with short timeouts so cache trouble never stalls a request.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	if !Healthy(ctx, client) {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s unreachable", client.Options().Addr)
	}

	return client, nil
}

// Healthy verifies redis connectivity. A nil client is never healthy.
func Healthy(ctx context.Context, client *redis.Client) bool {
	if client == nil {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return client.Ping(pingCtx).Err() == nil
}
