package attendance

import (
	"fmt"
	"time"

	"github.com/staffsync/attendance-go/internal/domain/attendance"
)

// Punch policy modes. Deployments diverge on the punch window rule, so the
// policy is selected by configuration rather than hard-coded.
const (
	PolicyCutoff = "cutoff"
	PolicyPhoto  = "photo"
)

// Cutoff is a local wall-clock boundary.
type Cutoff struct {
	Hour   int
	Minute int
}

func (c Cutoff) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// CutoffPolicy permits punch in up to the in cutoff and punch out from the
// out cutoff onward. Both boundary minutes are inclusive; the asymmetry of
// two inclusive boundaries is deliberate and must not be collapsed to one
// side.
type CutoffPolicy struct {
	PunchIn  Cutoff
	PunchOut Cutoff

	// Photo marks whether a proof photo is still required alongside the
	// time rule.
	Photo bool
}

// CanPunchIn implements attendance.WindowPolicy.
func (p CutoffPolicy) CanPunchIn(now time.Time) bool {
	h, m := now.Hour(), now.Minute()
	return h < p.PunchIn.Hour || (h == p.PunchIn.Hour && m <= p.PunchIn.Minute)
}

// CanPunchOut implements attendance.WindowPolicy.
func (p CutoffPolicy) CanPunchOut(now time.Time) bool {
	h, m := now.Hour(), now.Minute()
	return h > p.PunchOut.Hour || (h == p.PunchOut.Hour && m >= p.PunchOut.Minute)
}

// RequiresPhoto implements attendance.WindowPolicy.
func (p CutoffPolicy) RequiresPhoto() bool { return p.Photo }

// PhotoPolicy drops the time-of-day rule entirely: punches are permitted at
// any time but must carry a proof photo.
type PhotoPolicy struct{}

// CanPunchIn implements attendance.WindowPolicy.
func (PhotoPolicy) CanPunchIn(time.Time) bool { return true }

// CanPunchOut implements attendance.WindowPolicy.
func (PhotoPolicy) CanPunchOut(time.Time) bool { return true }

// RequiresPhoto implements attendance.WindowPolicy.
func (PhotoPolicy) RequiresPhoto() bool { return true }

// NewWindowPolicy selects the deployment's punch window strategy.
func NewWindowPolicy(mode string, punchIn, punchOut Cutoff, photo bool) (attendance.WindowPolicy, error) {
	switch mode {
	case PolicyCutoff:
		return CutoffPolicy{PunchIn: punchIn, PunchOut: punchOut, Photo: photo}, nil
	case PolicyPhoto:
		return PhotoPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown punch policy %q", mode)
	}
}
