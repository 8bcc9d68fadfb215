package likes

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresTracker struct {
	pool *pgxpool.Pool
}

func newPostgresTracker(pool *pgxpool.Pool) *postgresTracker {
	return &postgresTracker{pool: pool}
}

func (t *postgresTracker) IsLiked(ctx context.Context, userID, trackID string) (bool, error) {
	const q = `SELECT 1 FROM track_likes WHERE user_id = $1 AND track_id = $2`
	var one int
	err := t.pool.QueryRow(ctx, q, userID, trackID).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("like membership read: %w", err)
	}
	return true, nil
}

func (t *postgresTracker) SetLiked(ctx context.Context, userID, trackID string) error {
	const q = `INSERT INTO track_likes (user_id, track_id, created_at)
	           VALUES ($1, $2, now())
	           ON CONFLICT (user_id, track_id) DO NOTHING`
	if _, err := t.pool.Exec(ctx, q, userID, trackID); err != nil {
		return fmt.Errorf("like membership set: %w", err)
	}
	return nil
}

func (t *postgresTracker) ClearLiked(ctx context.Context, userID, trackID string) error {
	const q = `DELETE FROM track_likes WHERE user_id = $1 AND track_id = $2`
	if _, err := t.pool.Exec(ctx, q, userID, trackID); err != nil {
		return fmt.Errorf("like membership clear: %w", err)
	}
	return nil
}
