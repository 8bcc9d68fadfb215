package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryTrackStore is the development and test implementation.
// It mirrors the Postgres semantics: counter mutations are atomic under
// the store mutex and the like count floors at zero.
type InMemoryTrackStore struct {
	mu     sync.Mutex
	tracks map[string]*Track
}

func NewInMemoryTrackStore() *InMemoryTrackStore {
	return &InMemoryTrackStore{tracks: make(map[string]*Track)}
}

func (s *InMemoryTrackStore) Create(_ context.Context, in TrackInput) (Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	t := &Track{
		ID:              uuid.NewString(),
		Title:           in.Title,
		ArtistID:        in.ArtistID,
		AlbumID:         in.AlbumID,
		Genre:           in.Genre,
		DurationSeconds: in.DurationSeconds,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.tracks[t.ID] = t
	return *t, nil
}

func (s *InMemoryTrackStore) Update(_ context.Context, id string, in TrackUpdate) (Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tracks[id]
	if !ok || !t.IsActive {
		return Track{}, ErrNotFound
	}
	t.Title = in.Title
	t.AlbumID = in.AlbumID
	t.Genre = in.Genre
	t.DurationSeconds = in.DurationSeconds
	t.UpdatedAt = time.Now().UTC()
	return *t, nil
}

func (s *InMemoryTrackStore) SoftDelete(_ context.Context, id string) error {
	return s.mutate(id, func(t *Track) {
		t.IsActive = false
	})
}

func (s *InMemoryTrackStore) IncrementPlayCount(_ context.Context, id string) error {
	return s.mutate(id, func(t *Track) {
		t.PlayCount++
	})
}

func (s *InMemoryTrackStore) IncrementLikeCount(_ context.Context, id string) error {
	return s.mutate(id, func(t *Track) {
		t.LikeCount++
	})
}

func (s *InMemoryTrackStore) DecrementLikeCount(_ context.Context, id string) error {
	return s.mutate(id, func(t *Track) {
		if t.LikeCount > 0 {
			t.LikeCount--
		}
	})
}

// mutate applies fn to an active track under the store lock.
func (s *InMemoryTrackStore) mutate(id string, fn func(*Track)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tracks[id]
	if !ok || !t.IsActive {
		return ErrNotFound
	}
	fn(t)
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryTrackStore) GetByID(_ context.Context, id string) (Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tracks[id]
	if !ok || !t.IsActive {
		return Track{}, ErrNotFound
	}
	return *t, nil
}

func (s *InMemoryTrackStore) List(_ context.Context, page, size int) ([]Track, error) {
	all := s.active(func(*Track) bool { return true })
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	return paginate(all, page, size), nil
}

func (s *InMemoryTrackStore) Search(_ context.Context, query string, page, size int) ([]Track, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	hits := s.active(func(t *Track) bool {
		return strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Genre), q)
	})
	sortByPlayCount(hits)
	return paginate(hits, page, size), nil
}

func (s *InMemoryTrackStore) Trending(_ context.Context, since time.Time, limit int) ([]Track, error) {
	hits := s.active(func(t *Track) bool { return !t.UpdatedAt.Before(since) })
	sortByPlayCount(hits)
	return truncate(hits, limit), nil
}

func (s *InMemoryTrackStore) TopByPlayCount(_ context.Context, genre string, limit int) ([]Track, error) {
	genre = strings.TrimSpace(genre)
	hits := s.active(func(t *Track) bool { return genre == "" || t.Genre == genre })
	sortByPlayCount(hits)
	return truncate(hits, limit), nil
}

func (s *InMemoryTrackStore) ByArtist(_ context.Context, artistID string, page, size int) ([]Track, error) {
	hits := s.active(func(t *Track) bool { return t.ArtistID == artistID })
	sort.Slice(hits, func(i, j int) bool { return hits[i].CreatedAt.After(hits[j].CreatedAt) })
	return paginate(hits, page, size), nil
}

func (s *InMemoryTrackStore) ByAlbum(_ context.Context, albumID string) ([]Track, error) {
	hits := s.active(func(t *Track) bool { return t.AlbumID == albumID })
	sort.Slice(hits, func(i, j int) bool { return hits[i].CreatedAt.Before(hits[j].CreatedAt) })
	return hits, nil
}

func (s *InMemoryTrackStore) ByGenre(_ context.Context, genre string, page, size int) ([]Track, error) {
	hits := s.active(func(t *Track) bool { return t.Genre == genre })
	sortByPlayCount(hits)
	return paginate(hits, page, size), nil
}

func (s *InMemoryTrackStore) active(match func(*Track) bool) []Track {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Track, 0, len(s.tracks))
	for _, t := range s.tracks {
		if t.IsActive && match(t) {
			out = append(out, *t)
		}
	}
	return out
}

func sortByPlayCount(ts []Track) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].PlayCount != ts[j].PlayCount {
			return ts[i].PlayCount > ts[j].PlayCount
		}
		return ts[i].ID < ts[j].ID
	})
}

func paginate(ts []Track, page, size int) []Track {
	if size <= 0 {
		return nil
	}
	start := page * size
	if start >= len(ts) {
		return nil
	}
	end := start + size
	if end > len(ts) {
		end = len(ts)
	}
	return ts[start:end]
}

func truncate(ts []Track, limit int) []Track {
	if limit > 0 && len(ts) > limit {
		return ts[:limit]
	}
	return ts
}
