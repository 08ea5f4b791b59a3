package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

// FeedCacheRepository stores the last successfully fetched raw feed body per
// property/platform. Degraded mode replays these when a live fetch fails.
type FeedCacheRepository struct {
	BaseRepository
}

// NewFeedCacheRepository creates a new feed cache repository.
func NewFeedCacheRepository(db *DB) *FeedCacheRepository {
	return &FeedCacheRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Put stores or replaces the cached body for a feed.
func (r *FeedCacheRepository) Put(ctx context.Context, propertyID string, platform models.Platform, body []byte, fetchedAt time.Time) error {
	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO feed_cache (property_id, platform, body, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (property_id, platform)
		DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at
	`, propertyID, platform, body, fetchedAt)
	if err != nil {
		return fmt.Errorf("caching feed body: %w", err)
	}
	return nil
}

// Get returns the cached body and its fetch time. Returns nil body on a miss.
func (r *FeedCacheRepository) Get(ctx context.Context, propertyID string, platform models.Platform) ([]byte, time.Time, error) {
	var body []byte
	var fetchedAt time.Time
	err := r.DB().QueryRowContext(ctx, `
		SELECT body, fetched_at FROM feed_cache
		WHERE property_id = ? AND platform = ?
	`, propertyID, platform).Scan(&body, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("reading feed cache: %w", err)
	}
	return body, fetchedAt, nil
}
