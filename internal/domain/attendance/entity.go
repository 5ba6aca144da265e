package attendance

import (
	"time"
)

// Status is today's punch state as reported by the backend. It is replaced
// wholesale on every status poll, never mutated in place.
type Status struct {
	PunchIn  *time.Time `json:"punch_in"`
	PunchOut *time.Time `json:"punch_out"`
}

// PunchedIn reports whether the employee has punched in today.
func (s Status) PunchedIn() bool { return s.PunchIn != nil }

// PunchedOut reports whether the employee has punched out today.
// PunchOut is only meaningful when PunchIn is set.
func (s Status) PunchedOut() bool { return s.PunchIn != nil && s.PunchOut != nil }

// HistoryEntry is one row of the attendance history feed. Date may arrive as
// a bare "YYYY-MM-DD" or as a full timestamp string.
type HistoryEntry struct {
	Date      string `json:"date"`
	PunchedIn bool   `json:"punched_in"`
}

// DayClassification is the rendered state of one calendar day cell.
type DayClassification string

const (
	DayPresent DayClassification = "present"
	DayAbsent  DayClassification = "absent"
	DayFuture  DayClassification = "future"
)

// DayCell is one derived day of the month view. Never persisted.
type DayCell struct {
	Date           time.Time
	Key            string
	Classification DayClassification
}

// MonthCalendar is the projection of one month onto day cells.
// StartWeekday is the weekday index (0 = Sunday) of day 1, used by the
// caller to render leading empty grid cells.
type MonthCalendar struct {
	Year         int
	Month        time.Month
	Days         []DayCell
	StartWeekday int
}

// WorkDuration is an elapsed or completed work span broken into
// non-negative components.
type WorkDuration struct {
	Hours   int
	Minutes int
	Seconds int
}

// WorkState is the duration tracker's state for today.
type WorkState string

const (
	WorkNotStarted WorkState = "not_started"
	WorkInProgress WorkState = "in_progress"
	WorkCompleted  WorkState = "completed"
)

// StateOf derives the work state from today's punch status.
func StateOf(s Status) WorkState {
	switch {
	case s.PunchIn == nil:
		return WorkNotStarted
	case s.PunchOut == nil:
		return WorkInProgress
	default:
		return WorkCompleted
	}
}
