package attendance

import (
	"context"
	"time"
)

// WindowPolicy decides whether punch actions are permitted at a given
// wall-clock time. Implementations are pure functions of the time and
// static configuration; callers re-evaluate them on every clock tick.
type WindowPolicy interface {
	// CanPunchIn reports whether a punch in is permitted at now.
	CanPunchIn(now time.Time) bool

	// CanPunchOut reports whether a punch out is permitted at now.
	CanPunchOut(now time.Time) bool

	// RequiresPhoto reports whether a proof photo must accompany a punch.
	RequiresPhoto() bool
}

// PunchService coordinates a punch action: gate checks, the network call,
// and the optimistic history patch on success.
type PunchService interface {
	// PunchIn validates the punch-in gates and submits the punch.
	PunchIn(ctx context.Context, req PunchRequest) (PunchResponse, error)

	// PunchOut validates the punch-out gates and submits the punch.
	PunchOut(ctx context.Context, req PunchRequest) (PunchResponse, error)
}
