package attendance

import (
	"log/slog"
	"time"

	"github.com/staffsync/attendance-go/internal/domain/attendance"
)

// BuildPresenceMap folds a history feed into a fresh presence map keyed by
// canonical local date. Entries whose date cannot be canonicalized are
// dropped with a warning; a bad row never fails the whole feed.
func BuildPresenceMap(entries []attendance.HistoryEntry, loc *time.Location, logger *slog.Logger) map[string]bool {
	m := make(map[string]bool, len(entries))
	for _, e := range entries {
		key, err := NormalizeDateKey(e.Date, loc)
		if err != nil {
			if logger != nil {
				logger.Warn("dropping history entry with bad date", "date", e.Date, "error", err)
			}
			continue
		}
		m[key] = e.PunchedIn
	}
	return m
}

// ApplyOptimisticPresence forces a day present in the map, covering the gap
// between a just-completed punch and the history feed catching up. The
// reducer is idempotent: applying it twice yields the same map as once.
func ApplyOptimisticPresence(m map[string]bool, key string) map[string]bool {
	if m == nil {
		m = make(map[string]bool, 1)
	}
	m[key] = true
	return m
}
