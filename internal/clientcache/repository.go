// Package clientcache provides persistent caching of fetched NAV series so
// repeated runs within a day do not hammer the upstream feeds. Series are
// stored as msgpack blobs with expiration timestamps.
package clientcache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/kanungos/fundgrid/internal/domain"
)

// TTLNavSeries keeps a fetched series until shortly before the next daily
// NAV publication. 20 hours means a morning run and an evening re-run share
// one fetch, while tomorrow's run fetches fresh.
const TTLNavSeries = 20 * time.Hour

const schema = `
CREATE TABLE IF NOT EXISTS nav_series_cache (
	instrument_id TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	fetched_at INTEGER NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_nav_series_cache_expires ON nav_series_cache(expires_at);
`

// Repository provides cache operations over the fetch cache database.
type Repository struct {
	db *sql.DB
}

// NewRepository creates the fetch cache repository and ensures its schema.
func NewRepository(db *sql.DB) (*Repository, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create nav_series_cache schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// StoreSeries saves a series with expiration = now + ttl.
func (r *Repository) StoreSeries(instrumentID string, points []domain.NavPoint, ttl time.Duration) error {
	blob, err := msgpack.Marshal(points)
	if err != nil {
		return fmt.Errorf("failed to marshal series for %s: %w", instrumentID, err)
	}

	now := time.Now()
	_, err = r.db.Exec(
		"INSERT OR REPLACE INTO nav_series_cache (instrument_id, data, fetched_at, expires_at) VALUES (?, ?, ?, ?)",
		instrumentID, blob, now.Unix(), now.Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store series for %s: %w", instrumentID, err)
	}
	return nil
}

// GetIfFresh returns the cached series only if it has not expired.
// Returns nil, nil when the key is missing or stale.
func (r *Repository) GetIfFresh(instrumentID string) ([]domain.NavPoint, error) {
	var blob []byte
	err := r.db.QueryRow(
		"SELECT data FROM nav_series_cache WHERE instrument_id = ? AND expires_at > ?",
		instrumentID, time.Now().Unix(),
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache for %s: %w", instrumentID, err)
	}

	var points []domain.NavPoint
	if err := msgpack.Unmarshal(blob, &points); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached series for %s: %w", instrumentID, err)
	}
	return points, nil
}

// PurgeExpired removes all expired entries and returns the number deleted.
func (r *Repository) PurgeExpired() (int64, error) {
	result, err := r.db.Exec("DELETE FROM nav_series_cache WHERE expires_at < ?", time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired cache entries: %w", err)
	}
	return result.RowsAffected()
}
