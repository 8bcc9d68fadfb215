package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a track does not exist or is soft-deleted.
var ErrNotFound = errors.New("track not found")

// Track is the internal catalog representation of a track.
type Track struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	ArtistID        string    `json:"artist_id"`
	AlbumID         string    `json:"album_id,omitempty"`
	Genre           string    `json:"genre,omitempty"`
	DurationSeconds int       `json:"duration_seconds"`
	PlayCount       int64     `json:"play_count"`
	LikeCount       int64     `json:"like_count"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TrackInput carries caller-supplied fields for track creation.
type TrackInput struct {
	Title           string
	ArtistID        string
	AlbumID         string
	Genre           string
	DurationSeconds int
}

// TrackUpdate carries the mutable metadata fields for track updates.
type TrackUpdate struct {
	Title           string
	AlbumID         string
	Genre           string
	DurationSeconds int
}

// TrackStore defines all persistence operations for the catalog.
//
// The three counter mutations MUST be implemented as single atomic
// server-side updates. Concurrent callers on the same track are
// serialized by the store, never by the caller; a fetch-modify-store
// implementation is incorrect. DecrementLikeCount floors at zero.
// All mutations return ErrNotFound for missing or inactive tracks.
type TrackStore interface {
	// Writes
	Create(ctx context.Context, in TrackInput) (Track, error)
	Update(ctx context.Context, id string, in TrackUpdate) (Track, error)
	SoftDelete(ctx context.Context, id string) error

	// Counter mutations (atomic)
	IncrementPlayCount(ctx context.Context, id string) error
	IncrementLikeCount(ctx context.Context, id string) error
	DecrementLikeCount(ctx context.Context, id string) error

	// Reads
	GetByID(ctx context.Context, id string) (Track, error)
	List(ctx context.Context, page, size int) ([]Track, error)
	Search(ctx context.Context, query string, page, size int) ([]Track, error)
	Trending(ctx context.Context, since time.Time, limit int) ([]Track, error)
	TopByPlayCount(ctx context.Context, genre string, limit int) ([]Track, error)
	ByArtist(ctx context.Context, artistID string, page, size int) ([]Track, error)
	ByAlbum(ctx context.Context, albumID string) ([]Track, error)
	ByGenre(ctx context.Context, genre string, page, size int) ([]Track, error)
}
