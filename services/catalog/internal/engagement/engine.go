// Package engagement orchestrates play and like counting, catalog
// mutations, cache-group invalidation and domain event emission. It is
// the contract the HTTP layer consumes.
//
// Correctness is pushed down to the stores: counter mutations are
// atomic inside the track store, like idempotency lives in the
// membership tracker. The engine holds no locks across requests and
// scales horizontally across stateless instances.
package engagement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/media-catalog/services/catalog/internal/cache"
	"github.com/example/media-catalog/services/catalog/internal/events"
	"github.com/example/media-catalog/services/catalog/internal/likes"
	"github.com/example/media-catalog/services/catalog/internal/store"
)

// ErrNotFound mirrors the store sentinel for callers that only import
// this package.
var ErrNotFound = store.ErrNotFound

const (
	defaultSideEffectTimeout = 3 * time.Second
	defaultTrendingWindow    = 7 * 24 * time.Hour
)

type Engine struct {
	log    *zap.Logger
	tracks store.TrackStore
	likes  likes.Tracker
	cache  cache.Cache
	events events.Publisher

	sideEffectTimeout time.Duration
	trendingWindow    time.Duration

	// inflight tracks fire-and-forget event emissions so shutdown and
	// tests can wait for them.
	inflight sync.WaitGroup
}

type Options struct {
	Logger            *zap.Logger
	Tracks            store.TrackStore
	Likes             likes.Tracker
	Cache             cache.Cache
	Events            events.Publisher
	SideEffectTimeout time.Duration
	TrendingWindow    time.Duration
}

func New(opts Options) *Engine {
	e := &Engine{
		log:               opts.Logger,
		tracks:            opts.Tracks,
		likes:             opts.Likes,
		cache:             opts.Cache,
		events:            opts.Events,
		sideEffectTimeout: opts.SideEffectTimeout,
		trendingWindow:    opts.TrendingWindow,
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.sideEffectTimeout <= 0 {
		e.sideEffectTimeout = defaultSideEffectTimeout
	}
	if e.trendingWindow <= 0 {
		e.trendingWindow = defaultTrendingWindow
	}
	return e
}

// RecordPlay increments the play count by exactly one. Duplicate calls
// legitimately count as separate plays; there is no idempotency here.
// The play event is emitted best-effort after the counter commits.
func (e *Engine) RecordPlay(ctx context.Context, trackID, userID string) error {
	if err := e.tracks.IncrementPlayCount(ctx, trackID); err != nil {
		return err
	}
	e.emit(events.New(events.KindPlayRecorded, trackID, userID, nil))
	return nil
}

// ToggleLike flips the like state for (userID, trackID) and returns
// whether the track is now liked.
//
// The counter mutation is attempted before the membership write. The
// two stores are not covered by one transaction, so a crash in between
// leaves the counter ahead of membership; the user's next toggle
// self-corrects that. The inverse ordering would leave a membership
// record claiming a like that was never counted, which does not heal.
func (e *Engine) ToggleLike(ctx context.Context, trackID, userID string) (bool, error) {
	liked, err := e.likes.IsLiked(ctx, userID, trackID)
	if err != nil {
		return false, fmt.Errorf("like membership read: %w", err)
	}

	if liked {
		if err := e.tracks.DecrementLikeCount(ctx, trackID); err != nil {
			return false, err
		}
		if err := e.likes.ClearLiked(ctx, userID, trackID); err != nil {
			e.log.Warn("like membership clear failed after counter commit",
				zap.String("track_id", trackID), zap.String("user_id", userID), zap.Error(err))
		}
		e.emit(events.New(events.KindLikeToggled, trackID, userID, map[string]any{"is_like": false}))
		return false, nil
	}

	if err := e.tracks.IncrementLikeCount(ctx, trackID); err != nil {
		return false, err
	}
	if err := e.likes.SetLiked(ctx, userID, trackID); err != nil {
		e.log.Warn("like membership set failed after counter commit",
			zap.String("track_id", trackID), zap.String("user_id", userID), zap.Error(err))
	}
	e.emit(events.New(events.KindLikeToggled, trackID, userID, map[string]any{"is_like": true}))
	return true, nil
}

// CreateTrack persists a new track, evicts the listing views that could
// now be stale and emits TrackCreated.
func (e *Engine) CreateTrack(ctx context.Context, in store.TrackInput) (store.Track, error) {
	t, err := e.tracks.Create(ctx, in)
	if err != nil {
		return store.Track{}, fmt.Errorf("create track: %w", err)
	}
	e.invalidate("create", t.ID, cache.GroupsFor(cache.MutationTrackCreated, t.AlbumID != "", t.Genre != ""))
	e.emit(events.New(events.KindTrackCreated, t.ID, t.ArtistID, nil))
	return t, nil
}

// UpdateTrack updates track metadata, evicts affected view groups and
// emits TrackUpdated.
//
// Eviction considers both the pre- and post-update field values: a
// track moved out of an album or genre still sits in the listing cached
// under its old value, so that group must be evicted too.
func (e *Engine) UpdateTrack(ctx context.Context, trackID, userID string, in store.TrackUpdate) (store.Track, error) {
	prev, err := e.tracks.GetByID(ctx, trackID)
	if err != nil {
		return store.Track{}, err
	}
	t, err := e.tracks.Update(ctx, trackID, in)
	if err != nil {
		return store.Track{}, err
	}
	hasAlbum := prev.AlbumID != "" || t.AlbumID != ""
	hasGenre := prev.Genre != "" || t.Genre != ""
	e.invalidate("update", t.ID, cache.GroupsFor(cache.MutationTrackUpdated, hasAlbum, hasGenre))
	e.emit(events.New(events.KindTrackUpdated, t.ID, userID, nil))
	return t, nil
}

// DeleteTrack soft-deletes a track: the row stays, is_active flips off,
// historical counters and events are preserved.
func (e *Engine) DeleteTrack(ctx context.Context, trackID, userID string) error {
	t, err := e.tracks.GetByID(ctx, trackID)
	if err != nil {
		return err
	}
	if err := e.tracks.SoftDelete(ctx, trackID); err != nil {
		return err
	}
	e.invalidate("delete", trackID, cache.GroupsFor(cache.MutationTrackDeleted, t.AlbumID != "", t.Genre != ""))
	e.emit(events.New(events.KindTrackDeleted, trackID, userID, nil))
	return nil
}

// emit publishes a domain event without blocking the caller. Failures
// are logged with enough context for replay and never affect the
// caller-visible result.
func (e *Engine) emit(ev events.Event) {
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.sideEffectTimeout)
		defer cancel()
		if err := e.events.Publish(ctx, ev); err != nil {
			e.log.Warn("domain event dropped",
				zap.String("kind", string(ev.Kind)),
				zap.String("track_id", ev.TrackID),
				zap.String("user_id", ev.UserID),
				zap.Error(err))
		}
	}()
}

// invalidate evicts cache groups best-effort. Staleness is bounded and
// self-healing, so eviction failures are logged, never surfaced.
func (e *Engine) invalidate(op, trackID string, groups []cache.Group) {
	if len(groups) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.sideEffectTimeout)
	defer cancel()
	if err := e.cache.Invalidate(ctx, groups...); err != nil {
		e.log.Warn("cache invalidation failed",
			zap.String("op", op),
			zap.String("track_id", trackID),
			zap.Error(err))
	}
}

// Drain waits for in-flight event emissions. Call on shutdown.
func (e *Engine) Drain() {
	e.inflight.Wait()
}
