package engagement

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/example/media-catalog/services/catalog/internal/cache"
	"github.com/example/media-catalog/services/catalog/internal/store"
)

// GetTrack reads the track live from the store. Single-track reads are
// deliberately not group-cached: play and like counters must reflect
// committed mutations immediately, and like toggles do not evict any
// cache group.
func (e *Engine) GetTrack(ctx context.Context, trackID string) (store.Track, error) {
	return e.tracks.GetByID(ctx, trackID)
}

func (e *Engine) ListTracks(ctx context.Context, page, size int) ([]store.Track, error) {
	key := listKey("page", strconv.Itoa(page), "size", strconv.Itoa(size))
	return e.cachedList(ctx, cache.GroupListing, key, func() ([]store.Track, error) {
		return e.tracks.List(ctx, page, size)
	})
}

func (e *Engine) SearchTracks(ctx context.Context, query string, page, size int) ([]store.Track, error) {
	key := listKey("q", query, "page", strconv.Itoa(page), "size", strconv.Itoa(size))
	return e.cachedList(ctx, cache.GroupSearch, key, func() ([]store.Track, error) {
		return e.tracks.Search(ctx, query, page, size)
	})
}

func (e *Engine) TrendingTracks(ctx context.Context, limit int) ([]store.Track, error) {
	key := listKey("limit", strconv.Itoa(limit))
	return e.cachedList(ctx, cache.GroupTrending, key, func() ([]store.Track, error) {
		return e.tracks.Trending(ctx, time.Now().Add(-e.trendingWindow), limit)
	})
}

func (e *Engine) TopTracks(ctx context.Context, genre string, limit int) ([]store.Track, error) {
	key := listKey("genre", genre, "limit", strconv.Itoa(limit))
	return e.cachedList(ctx, cache.GroupTop, key, func() ([]store.Track, error) {
		return e.tracks.TopByPlayCount(ctx, genre, limit)
	})
}

func (e *Engine) TracksByArtist(ctx context.Context, artistID string, page, size int) ([]store.Track, error) {
	key := listKey("artist", artistID, "page", strconv.Itoa(page), "size", strconv.Itoa(size))
	return e.cachedList(ctx, cache.GroupArtistListing, key, func() ([]store.Track, error) {
		return e.tracks.ByArtist(ctx, artistID, page, size)
	})
}

func (e *Engine) TracksByAlbum(ctx context.Context, albumID string) ([]store.Track, error) {
	return e.cachedList(ctx, cache.GroupAlbumListing, listKey("album", albumID), func() ([]store.Track, error) {
		return e.tracks.ByAlbum(ctx, albumID)
	})
}

func (e *Engine) TracksByGenre(ctx context.Context, genre string, page, size int) ([]store.Track, error) {
	key := listKey("genre", genre, "page", strconv.Itoa(page), "size", strconv.Itoa(size))
	return e.cachedList(ctx, cache.GroupGenreListing, key, func() ([]store.Track, error) {
		return e.tracks.ByGenre(ctx, genre, page, size)
	})
}

// listKey builds a cache key from name/value pairs. Values are
// percent-encoded so caller-supplied text (search queries in
// particular) cannot collide with another request's key.
func listKey(pairs ...string) string {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		v.Set(pairs[i], pairs[i+1])
	}
	return v.Encode()
}

// cachedList is the cache-aside path for derived list views. Cache
// errors degrade to a live store read; only store errors surface.
func (e *Engine) cachedList(ctx context.Context, group cache.Group, key string, fetch func() ([]store.Track, error)) ([]store.Track, error) {
	var cached []store.Track
	hit, err := e.cache.Get(ctx, group, key, &cached)
	if err != nil {
		e.log.Warn("cache read failed", zap.String("group", string(group)), zap.Error(err))
	} else if hit {
		return cached, nil
	}

	out, err := fetch()
	if err != nil {
		return nil, err
	}
	if err := e.cache.Set(ctx, group, key, out); err != nil {
		e.log.Warn("cache write failed", zap.String("group", string(group)), zap.Error(err))
	}
	return out, nil
}
