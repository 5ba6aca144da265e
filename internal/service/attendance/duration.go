package attendance

import (
	"fmt"
	"time"

	"github.com/staffsync/attendance-go/internal/domain/attendance"
)

// DurationBetween splits the span from from to to into hour/minute/second
// components. Negative spans clamp to zero so clock skew never renders a
// negative duration.
func DurationBetween(from, to time.Time) attendance.WorkDuration {
	d := to.Sub(from)
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return attendance.WorkDuration{
		Hours:   total / 3600,
		Minutes: (total / 60) % 60,
		Seconds: total % 60,
	}
}

// DurationOf derives today's work duration from the punch status: zero when
// not started, now minus punch in while in progress, punch out minus punch
// in once completed.
func DurationOf(s attendance.Status, now time.Time) attendance.WorkDuration {
	switch attendance.StateOf(s) {
	case attendance.WorkInProgress:
		return DurationBetween(*s.PunchIn, now)
	case attendance.WorkCompleted:
		return DurationBetween(*s.PunchIn, *s.PunchOut)
	default:
		return attendance.WorkDuration{}
	}
}

// LiveLabel renders the ticking in-progress format, e.g. "08h 04m 09s".
func LiveLabel(d attendance.WorkDuration) string {
	return fmt.Sprintf("%02dh %02dm %02ds", d.Hours, d.Minutes, d.Seconds)
}

// CompletedLabel renders the final coarser format with seconds dropped,
// e.g. "8h 30m". The format difference between the live and the completed
// duration is intentional.
func CompletedLabel(d attendance.WorkDuration) string {
	return fmt.Sprintf("%dh %dm", d.Hours, d.Minutes)
}

// DurationLabel picks the display string for the current work state.
func DurationLabel(s attendance.Status, now time.Time) string {
	d := DurationOf(s, now)
	if attendance.StateOf(s) == attendance.WorkCompleted {
		return CompletedLabel(d)
	}
	return LiveLabel(d)
}
