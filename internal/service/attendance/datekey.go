package attendance

import (
	"fmt"
	"regexp"
	"time"

	"github.com/staffsync/attendance-go/internal/domain/attendance"
)

const dateKeyLayout = "2006-01-02"

var bareDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// DateKey returns the canonical calendar-day key for t in loc. Keys are
// always derived from the local representation, never from UTC, so that a
// timestamp recorded near midnight does not shift to a neighbouring day for
// viewers away from UTC.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateKeyLayout)
}

// NormalizeDateKey canonicalizes a history date field. A bare "YYYY-MM-DD"
// passes through unchanged; a full timestamp is parsed and re-canonicalized
// to the local day. Anything else is an ErrUnparseableDate.
func NormalizeDateKey(raw string, loc *time.Location) (string, error) {
	if raw == "" {
		return "", attendance.ErrUnparseableDate
	}
	if bareDatePattern.MatchString(raw) {
		return raw, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// Some backends emit "2006-01-02 15:04:05" without an offset; those
		// are already local wall-clock times.
		t, err = time.ParseInLocation("2006-01-02 15:04:05", raw, loc)
		if err != nil {
			return "", fmt.Errorf("%w: %q", attendance.ErrUnparseableDate, raw)
		}
	}
	return DateKey(t, loc), nil
}
