package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/COROTANjayson/readify/internal/config"
)

// Limiter decides whether one more request for key fits the budget.
// A denial has no side effect besides consuming the attempt.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// New builds the configured backend. The returned close func releases
// backend connections and is never nil.
func New(cfg config.RateLimitConfig) (Limiter, func() error, error) {
	window := time.Duration(cfg.WindowSeconds) * time.Second
	switch cfg.Backend {
	case "", "memory":
		return NewLocal(cfg.Requests, window), func() error { return nil }, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return NewRedis(client, "readify:ratelimit:", cfg.Requests, window), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported rate limit backend: %s", cfg.Backend)
	}
}
