package invite

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "invite:team:"

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		rdb: rdb,
		ttl: ttl,
	}
}

func (c *RedisCache) Get(ctx context.Context, teamID string) (string, error) {
	val, err := c.rdb.Get(ctx, cacheKeyPrefix+teamID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (c *RedisCache) Set(ctx context.Context, teamID, inviteID string) error {
	return c.rdb.Set(ctx, cacheKeyPrefix+teamID, inviteID, c.ttl).Err()
}
