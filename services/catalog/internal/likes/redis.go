package likes

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisTracker struct {
	client *redis.Client
	ttl    time.Duration
}

func newRedisTracker(dsn string, ttl time.Duration) (*redisTracker, error) {
	opts, err := redis.ParseURL(dsn)
	if err != nil {
		opts = &redis.Options{Addr: dsn}
	}
	return &redisTracker{
		client: redis.NewClient(opts),
		ttl:    ttl,
	}, nil
}

func likeKey(userID, trackID string) string {
	return fmt.Sprintf("liked:%s:%s", userID, trackID)
}

func (t *redisTracker) IsLiked(ctx context.Context, userID, trackID string) (bool, error) {
	n, err := t.client.Exists(ctx, likeKey(userID, trackID)).Result()
	if err != nil {
		return false, fmt.Errorf("like membership read: %w", err)
	}
	return n > 0, nil
}

func (t *redisTracker) SetLiked(ctx context.Context, userID, trackID string) error {
	if err := t.client.Set(ctx, likeKey(userID, trackID), 1, t.ttl).Err(); err != nil {
		return fmt.Errorf("like membership set: %w", err)
	}
	return nil
}

func (t *redisTracker) ClearLiked(ctx context.Context, userID, trackID string) error {
	if err := t.client.Del(ctx, likeKey(userID, trackID)).Err(); err != nil {
		return fmt.Errorf("like membership clear: %w", err)
	}
	return nil
}
