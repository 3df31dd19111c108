package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the caching interface. All cache operations go through here.
// Implementations must be safe for concurrent use.
type Cache interface {
	Ping(ctx context.Context) error
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
	PushQueue(ctx context.Context, key string, value []byte) error
	// PopQueue blocks until a value is available, the timeout elapses, or ctx
	// is canceled. A timeout returns (nil, false, nil).
	PopQueue(ctx context.Context, key string, timeout time.Duration) ([]byte, bool, error)
	Close() error
}

// RedisCache implements the Cache interface using go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

func (c *RedisCache) PushQueue(ctx context.Context, key string, value []byte) error {
	return c.client.LPush(ctx, key, value).Err()
}

func (c *RedisCache) PopQueue(ctx context.Context, key string, timeout time.Duration) ([]byte, bool, error) {
	res, err := c.client.BRPop(ctx, timeout, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	// BRPOP returns [key, value].
	return []byte(res[1]), true, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
