package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, settingKey(key)).Result()
	if err == nil {
		return val, true, nil
	}

	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}

	return "", false, err
}

func (c *RedisCache) Set(ctx context.Context, key, value string) error {
	return c.rdb.Set(ctx, settingKey(key), value, c.ttl).Err()
}

func settingKey(key string) string {
	return fmt.Sprintf("setting:%s", key)
}
