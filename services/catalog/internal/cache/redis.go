package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores JSON entries keyed per group and tracks each
// group's members in a Redis set so the whole group can be evicted in
// one round trip.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(dsn string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		opts = &redis.Options{Addr: dsn}
	}
	return &RedisCache{client: redis.NewClient(opts), ttl: ttl}, nil
}

func entryKey(group Group, key string) string {
	return fmt.Sprintf("cache:%s:%s", group, key)
}

func groupKey(group Group) string {
	return fmt.Sprintf("cachegroup:%s", group)
}

func (c *RedisCache) Get(ctx context.Context, group Group, key string, dest any) (bool, error) {
	val, err := c.client.Get(ctx, entryKey(group, key)).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("cache get %s: %w", group, err)
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", group, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, group Group, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", group, err)
	}
	ek := entryKey(group, key)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, ek, b, c.ttl)
	pipe.SAdd(ctx, groupKey(group), ek)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set %s: %w", group, err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, groups ...Group) error {
	for _, g := range groups {
		gk := groupKey(g)
		members, err := c.client.SMembers(ctx, gk).Result()
		if err != nil {
			return fmt.Errorf("cache group read %s: %w", g, err)
		}
		keys := append(members, gk)
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("cache evict %s: %w", g, err)
		}
	}
	return nil
}
