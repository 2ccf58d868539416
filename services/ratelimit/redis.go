// Package ratelimit provides echo rate-limiter stores shared between API instances.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var nowFunc = time.Now // mockable

// RedisStore counts requests per identifier in fixed windows kept in Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

var _ middleware.RateLimiterStore = (*RedisStore)(nil)

// NewRedisStore connects to redisURL and allows `limit` requests per `window`.
func NewRedisStore(ctx context.Context, redisURL, prefix string, limit int, window time.Duration) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid redis URL")
	}

	client := redis.NewClient(opt)
	if err = client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis connection failed")
	}
	return &RedisStore{client: client, prefix: prefix, limit: limit, window: window}, nil
}

func (s *RedisStore) windowKey(identifier string) string {
	secs := int64(s.window.Seconds())
	if secs < 1 {
		secs = 1
	}
	return fmt.Sprintf("%s:%s:%d", s.prefix, identifier, nowFunc().Unix()/secs)
}

func (s *RedisStore) Allow(identifier string) (bool, error) {
	ctx := context.Background()
	key := s.windowKey(identifier)

	pipe := s.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, errors.Wrap(err, "counting request")
	}
	return int(incr.Val()) <= s.limit, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
