// Package likes tracks per-user like membership, the idempotency record
// behind like toggling. Membership is not the source of truth for the
// aggregate like count; its only correctness duty is preventing a second
// like or unlike from double-adjusting the counter.
//
// Primary backend: Redis (env REDIS_URL). Fallback: Postgres
// (env DATABASE_URL). If neither is available, an in-memory tracker is
// used (development only).
//
// Markers are stored without expiry. The upstream design expired them
// after 24h, which lets an expired marker turn a repeat like into a
// double increment; permanent markers close that gap.
package likes

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Tracker records whether a user currently likes a track.
// A missing entry means "not liked"; that is the default state, not an error.
type Tracker interface {
	IsLiked(ctx context.Context, userID, trackID string) (bool, error)
	SetLiked(ctx context.Context, userID, trackID string) error
	ClearLiked(ctx context.Context, userID, trackID string) error
}

// Options selects the Tracker backend.
type Options struct {
	RedisURL string
	Pool     *pgxpool.Pool
	// TTL bounds marker retention when > 0. Leave zero for permanent
	// markers; expiry reintroduces double-count drift on repeat likes.
	TTL    time.Duration
	IsProd bool
}

// NewTracker creates the best available membership tracker:
// Redis > Postgres > in-memory (dev fallback).
// In production the in-memory fallback is not allowed.
func NewTracker(opts Options) (Tracker, error) {
	if opts.RedisURL != "" {
		return newRedisTracker(opts.RedisURL, opts.TTL)
	}
	if opts.Pool != nil {
		return newPostgresTracker(opts.Pool), nil
	}
	if opts.IsProd {
		return nil, errors.New("production requires REDIS_URL or DATABASE_URL for like membership; in-memory tracker is not allowed")
	}
	return NewMemoryTracker(), nil
}
