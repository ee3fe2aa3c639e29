package navstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/kanungos/fundgrid/internal/database"
	"github.com/kanungos/fundgrid/internal/domain"
)

// Repository persists NAV series as flat periodic snapshots in SQLite so a
// grid can be rebuilt without refetching full histories.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

const navHistorySchema = `
CREATE TABLE IF NOT EXISTS nav_history (
	instrument_id TEXT NOT NULL,
	date INTEGER NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (instrument_id, date)
);
CREATE INDEX IF NOT EXISTS idx_nav_history_date ON nav_history(date);
`

// NewRepository creates the repository and ensures its schema exists.
func NewRepository(db *sql.DB, log zerolog.Logger) (*Repository, error) {
	if _, err := db.Exec(navHistorySchema); err != nil {
		return nil, fmt.Errorf("failed to create nav_history schema: %w", err)
	}
	return &Repository{
		db:  db,
		log: log.With().Str("component", "nav_repository").Logger(),
	}, nil
}

// SaveSeries upserts a series for one instrument in a single transaction.
func (r *Repository) SaveSeries(instrumentID string, points []domain.NavPoint) error {
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR REPLACE INTO nav_history (instrument_id, date, value)
			VALUES (?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			if _, err := stmt.Exec(instrumentID, domain.DateOnly(p.Date).Unix(), p.Value); err != nil {
				return fmt.Errorf("failed to insert nav point for %s: %w", p.Date.Format("2006-01-02"), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.log.Debug().
		Str("instrument", instrumentID).
		Int("count", len(points)).
		Msg("Saved NAV series snapshot")

	return nil
}

// LoadSeries fetches the stored series for one instrument, ascending by date.
func (r *Repository) LoadSeries(instrumentID string) ([]domain.NavPoint, error) {
	rows, err := r.db.Query(`
		SELECT date, value FROM nav_history
		WHERE instrument_id = ?
		ORDER BY date ASC
	`, instrumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query nav history: %w", err)
	}
	defer rows.Close()

	var points []domain.NavPoint
	for rows.Next() {
		var dateUnix int64
		var p domain.NavPoint
		if err := rows.Scan(&dateUnix, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan nav point: %w", err)
		}
		p.Date = time.Unix(dateUnix, 0).UTC()
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nav history: %w", err)
	}

	return points, nil
}

// LoadAll fetches every stored series, keyed by instrument id.
func (r *Repository) LoadAll() (map[string][]domain.NavPoint, error) {
	rows, err := r.db.Query(`
		SELECT instrument_id, date, value FROM nav_history
		ORDER BY instrument_id, date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query nav history: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]domain.NavPoint)
	for rows.Next() {
		var id string
		var dateUnix int64
		var p domain.NavPoint
		if err := rows.Scan(&id, &dateUnix, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan nav point: %w", err)
		}
		p.Date = time.Unix(dateUnix, 0).UTC()
		out[id] = append(out[id], p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nav history: %w", err)
	}

	return out, nil
}

// DeleteOlderThan trims points before the cutoff, bounding snapshot growth
// to the configured lookback horizon.
func (r *Repository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM nav_history WHERE date < ?", domain.DateOnly(cutoff).Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale nav history: %w", err)
	}

	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		r.log.Info().
			Int64("rows_deleted", deleted).
			Time("cutoff", cutoff).
			Msg("Trimmed NAV history")
	}

	return deleted, nil
}
