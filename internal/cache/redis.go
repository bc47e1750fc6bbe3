package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/kindling-app/kindling/internal/config"
)

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes a Redis client from config. Only Addr is
// mandatory; Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

// Get returns the value, or "" on cache miss.
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// KeyForQuotaStatus caches a user's daily swipe counters.
func (c *RedisCache) KeyForQuotaStatus(userID uuid.UUID, day string) string {
	return fmt.Sprintf("quota:status:%s:%s", userID, day)
}

// KeyForDailyPickViewed flags the once-per-day featured candidate view.
func (c *RedisCache) KeyForDailyPickViewed(userID uuid.UUID, day string) string {
	return fmt.Sprintf("dailypick:viewed:%s:%s", userID, day)
}

// MarkDailyPickViewed sets the viewed flag for the given day. The TTL only
// needs to outlive the day boundary; 48h gives slack for timezone offsets.
func (c *RedisCache) MarkDailyPickViewed(ctx context.Context, userID uuid.UUID, day string) error {
	return c.Client.Set(ctx, c.KeyForDailyPickViewed(userID, day), "1", 48*time.Hour).Err()
}

// HasViewedDailyPick checks the viewed flag for the given day.
func (c *RedisCache) HasViewedDailyPick(ctx context.Context, userID uuid.UUID, day string) (bool, error) {
	n, err := c.Client.Exists(ctx, c.KeyForDailyPickViewed(userID, day)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
