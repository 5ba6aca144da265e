package attendance

import (
	"time"

	"github.com/staffsync/attendance-go/internal/domain/attendance"
)

// Engine bundles the pure attendance derivations with a fixed location and
// the deployment's window policy. It holds no mutable state; every method
// is a function of its arguments.
type Engine struct {
	policy attendance.WindowPolicy
	loc    *time.Location
}

func NewEngine(policy attendance.WindowPolicy, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{policy: policy, loc: loc}
}

// Location returns the engine's calendar location.
func (e *Engine) Location() *time.Location { return e.loc }

// Policy returns the configured window policy.
func (e *Engine) Policy() attendance.WindowPolicy { return e.policy }

// CanPunchIn evaluates the window policy on the engine's local wall clock.
func (e *Engine) CanPunchIn(now time.Time) bool {
	return e.policy.CanPunchIn(now.In(e.loc))
}

// CanPunchOut evaluates the window policy on the engine's local wall clock.
func (e *Engine) CanPunchOut(now time.Time) bool {
	return e.policy.CanPunchOut(now.In(e.loc))
}

// TodayKey returns the canonical key for now's local calendar day.
func (e *Engine) TodayKey(now time.Time) string {
	return DateKey(now, e.loc)
}

// CurrentMonth projects now's month using the given presence map.
func (e *Engine) CurrentMonth(now time.Time, byDate map[string]bool) attendance.MonthCalendar {
	local := now.In(e.loc)
	return ProjectMonth(local.Year(), local.Month(), local, byDate, e.loc)
}
