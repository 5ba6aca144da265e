package attendance

import (
	"context"
	"time"
)

// HistoryRepository is the local per-day presence cache backing offline
// report export. Keys are canonical local "YYYY-MM-DD" strings.
type HistoryRepository interface {
	// UpsertDays stores or refreshes presence flags for the given day keys.
	UpsertDays(ctx context.Context, days map[string]bool, fetchedAt time.Time) error

	// ListRange returns cached presence for fromKey <= key <= toKey.
	ListRange(ctx context.Context, fromKey, toKey string) (map[string]bool, error)

	// Close releases the underlying store.
	Close() error
}
