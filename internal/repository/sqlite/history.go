// Package sqlite implements the local attendance-history cache on an
// embedded SQLite database, letting reports export without a live backend.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/staffsync/attendance-go/internal/domain/attendance"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS attendance_history (
	date_key   TEXT PRIMARY KEY,
	punched_in INTEGER NOT NULL,
	fetched_at TEXT NOT NULL
);
`

// HistoryRepository implements attendance.HistoryRepository.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository opens (or creates) the cache database at path and
// ensures the schema exists. Use ":memory:" for an ephemeral cache.
func NewHistoryRepository(path string) (*HistoryRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history cache: %w", err)
	}
	// The driver opens lazily; surface a broken path right away.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open history cache: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history cache schema: %w", err)
	}
	return &HistoryRepository{db: db}, nil
}

// UpsertDays implements attendance.HistoryRepository.
func (r *HistoryRepository) UpsertDays(ctx context.Context, days map[string]bool, fetchedAt time.Time) error {
	if len(days) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO attendance_history (date_key, punched_in, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(date_key) DO UPDATE SET
			punched_in = excluded.punched_in,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare history upsert: %w", err)
	}
	defer stmt.Close()

	ts := fetchedAt.UTC().Format(time.RFC3339)
	for key, punchedIn := range days {
		if _, err := stmt.ExecContext(ctx, key, boolToInt(punchedIn), ts); err != nil {
			return fmt.Errorf("failed to upsert history day %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history upsert: %w", err)
	}
	return nil
}

// ListRange implements attendance.HistoryRepository.
func (r *HistoryRepository) ListRange(ctx context.Context, fromKey, toKey string) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date_key, punched_in
		FROM attendance_history
		WHERE date_key >= ? AND date_key <= ?
		ORDER BY date_key
	`, fromKey, toKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query history range: %w", err)
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var key string
		var punchedIn int
		if err := rows.Scan(&key, &punchedIn); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		out[key] = punchedIn != 0
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return out, nil
}

// Close implements attendance.HistoryRepository.
func (r *HistoryRepository) Close() error {
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ attendance.HistoryRepository = (*HistoryRepository)(nil)
