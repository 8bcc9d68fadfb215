package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const trackColumns = `id, title, artist_id, COALESCE(album_id, ''), COALESCE(genre, ''),
       duration_seconds, play_count, like_count, is_active, created_at, updated_at`

// PostgresTrackStore is the production Postgres-backed implementation.
type PostgresTrackStore struct {
	db *pgxpool.Pool
}

func NewPostgresTrackStore(db *pgxpool.Pool) *PostgresTrackStore {
	return &PostgresTrackStore{db: db}
}

func (s *PostgresTrackStore) Create(ctx context.Context, in TrackInput) (Track, error) {
	q := `
INSERT INTO tracks (id, title, artist_id, album_id, genre, duration_seconds, created_at, updated_at)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $7)
RETURNING ` + trackColumns

	now := time.Now().UTC()
	row := s.db.QueryRow(ctx, q, uuid.NewString(), in.Title, in.ArtistID, in.AlbumID, in.Genre, in.DurationSeconds, now)
	return scanTrack(row)
}

func (s *PostgresTrackStore) Update(ctx context.Context, id string, in TrackUpdate) (Track, error) {
	q := `
UPDATE tracks SET
  title            = $2,
  album_id         = NULLIF($3, ''),
  genre            = NULLIF($4, ''),
  duration_seconds = $5,
  updated_at       = now()
WHERE id = $1 AND is_active
RETURNING ` + trackColumns

	row := s.db.QueryRow(ctx, q, id, in.Title, in.AlbumID, in.Genre, in.DurationSeconds)
	t, err := scanTrack(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Track{}, ErrNotFound
	}
	return t, err
}

func (s *PostgresTrackStore) SoftDelete(ctx context.Context, id string) error {
	q := `UPDATE tracks SET is_active = false, updated_at = now() WHERE id = $1 AND is_active`
	return s.exec(ctx, q, id)
}

// Counter mutations are single-statement atomic updates; concurrent
// writers on the same row are serialized by Postgres row locking.

func (s *PostgresTrackStore) IncrementPlayCount(ctx context.Context, id string) error {
	q := `UPDATE tracks SET play_count = play_count + 1, updated_at = now() WHERE id = $1 AND is_active`
	return s.exec(ctx, q, id)
}

func (s *PostgresTrackStore) IncrementLikeCount(ctx context.Context, id string) error {
	q := `UPDATE tracks SET like_count = like_count + 1, updated_at = now() WHERE id = $1 AND is_active`
	return s.exec(ctx, q, id)
}

func (s *PostgresTrackStore) DecrementLikeCount(ctx context.Context, id string) error {
	// GREATEST keeps the floor-at-zero invariant inside the statement.
	q := `UPDATE tracks SET like_count = GREATEST(like_count - 1, 0), updated_at = now() WHERE id = $1 AND is_active`
	return s.exec(ctx, q, id)
}

func (s *PostgresTrackStore) exec(ctx context.Context, q, id string) error {
	tag, err := s.db.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("tracks update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresTrackStore) GetByID(ctx context.Context, id string) (Track, error) {
	q := `SELECT ` + trackColumns + ` FROM tracks WHERE id = $1 AND is_active`
	t, err := scanTrack(s.db.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Track{}, ErrNotFound
	}
	return t, err
}

func (s *PostgresTrackStore) List(ctx context.Context, page, size int) ([]Track, error) {
	q := `SELECT ` + trackColumns + ` FROM tracks WHERE is_active
	      ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	return s.query(ctx, q, size, page*size)
}

func (s *PostgresTrackStore) Search(ctx context.Context, query string, page, size int) ([]Track, error) {
	q := `SELECT ` + trackColumns + ` FROM tracks
	      WHERE is_active AND (title ILIKE $1 OR COALESCE(genre, '') ILIKE $1)
	      ORDER BY play_count DESC, id LIMIT $2 OFFSET $3`
	pattern := "%" + strings.TrimSpace(query) + "%"
	return s.query(ctx, q, pattern, size, page*size)
}

func (s *PostgresTrackStore) Trending(ctx context.Context, since time.Time, limit int) ([]Track, error) {
	q := `SELECT ` + trackColumns + ` FROM tracks
	      WHERE is_active AND updated_at >= $1
	      ORDER BY play_count DESC, id LIMIT $2`
	return s.query(ctx, q, since, limit)
}

func (s *PostgresTrackStore) TopByPlayCount(ctx context.Context, genre string, limit int) ([]Track, error) {
	if strings.TrimSpace(genre) != "" {
		q := `SELECT ` + trackColumns + ` FROM tracks
		      WHERE is_active AND genre = $1
		      ORDER BY play_count DESC, id LIMIT $2`
		return s.query(ctx, q, genre, limit)
	}
	q := `SELECT ` + trackColumns + ` FROM tracks WHERE is_active
	      ORDER BY play_count DESC, id LIMIT $1`
	return s.query(ctx, q, limit)
}

func (s *PostgresTrackStore) ByArtist(ctx context.Context, artistID string, page, size int) ([]Track, error) {
	q := `SELECT ` + trackColumns + ` FROM tracks WHERE is_active AND artist_id = $1
	      ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	return s.query(ctx, q, artistID, size, page*size)
}

func (s *PostgresTrackStore) ByAlbum(ctx context.Context, albumID string) ([]Track, error) {
	q := `SELECT ` + trackColumns + ` FROM tracks WHERE is_active AND album_id = $1
	      ORDER BY created_at, id`
	return s.query(ctx, q, albumID)
}

func (s *PostgresTrackStore) ByGenre(ctx context.Context, genre string, page, size int) ([]Track, error) {
	q := `SELECT ` + trackColumns + ` FROM tracks WHERE is_active AND genre = $1
	      ORDER BY play_count DESC, id LIMIT $2 OFFSET $3`
	return s.query(ctx, q, genre, size, page*size)
}

func (s *PostgresTrackStore) query(ctx context.Context, q string, args ...any) ([]Track, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("tracks query: %w", err)
	}
	defer rows.Close()

	var out []Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTrack(row pgx.Row) (Track, error) {
	var t Track
	err := row.Scan(&t.ID, &t.Title, &t.ArtistID, &t.AlbumID, &t.Genre,
		&t.DurationSeconds, &t.PlayCount, &t.LikeCount, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return Track{}, err
	}
	return t, nil
}
