package watch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/staffsync/attendance-go/internal/client"
	"github.com/staffsync/attendance-go/internal/domain/attendance"
	engine "github.com/staffsync/attendance-go/internal/service/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedAPI struct {
	mu        sync.Mutex
	status    attendance.Status
	statusErr error
	history   []attendance.HistoryEntry
	histErr   error
}

func (a *scriptedAPI) Status(context.Context) (attendance.Status, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status, a.statusErr
}

func (a *scriptedAPI) History(context.Context) ([]attendance.HistoryEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.history, a.histErr
}

func (a *scriptedAPI) set(status attendance.Status, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = status
	a.statusErr = err
}

func fixedNow() time.Time {
	return time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)
}

func newTestSession(api API, opts ...Option) *Session {
	policy := engine.CutoffPolicy{
		PunchIn:  engine.Cutoff{Hour: 12, Minute: 45},
		PunchOut: engine.Cutoff{Hour: 13, Minute: 0},
	}
	eng := engine.NewEngine(policy, time.UTC)
	base := []Option{
		WithClock(fixedNow),
		WithPollInterval(10 * time.Millisecond),
		WithTickInterval(5 * time.Millisecond),
	}
	return NewSession(eng, api, append(base, opts...)...)
}

func runSession(t *testing.T, s *Session) (stop func() error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	return func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(time.Second):
			t.Fatal("session did not stop")
			return nil
		}
	}
}

func waitSnapshot(t *testing.T, s *Session, accept func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case snap := <-s.Snapshots():
			if accept == nil || accept(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("no matching snapshot")
			return Snapshot{}
		}
	}
}

func TestSession_InitialSnapshot(t *testing.T) {
	in := fixedNow().Add(-30 * time.Minute)
	api := &scriptedAPI{
		status: attendance.Status{PunchIn: &in},
		history: []attendance.HistoryEntry{
			{Date: "2025-03-07", PunchedIn: true},
			{Date: "2025-03-06", PunchedIn: false},
		},
	}
	s := newTestSession(api)
	stop := runSession(t, s)
	defer stop()

	snap := waitSnapshot(t, s, nil)
	assert.Equal(t, attendance.WorkInProgress, snap.State)
	assert.Equal(t, "00h 30m 00s", snap.DurationLabel)
	assert.True(t, snap.CanPunchIn, "09:30 is inside the punch-in window")
	assert.False(t, snap.CanPunchOut)
	assert.Empty(t, snap.Notice)

	cells := map[string]attendance.DayClassification{}
	for _, d := range snap.Calendar.Days {
		cells[d.Key] = d.Classification
	}
	assert.Equal(t, attendance.DayPresent, cells["2025-03-07"])
	assert.Equal(t, attendance.DayAbsent, cells["2025-03-06"])
	// Punched in today forces today present even though the history feed
	// does not list it yet.
	assert.Equal(t, attendance.DayPresent, cells["2025-03-10"])
	assert.Equal(t, attendance.DayFuture, cells["2025-03-20"])
}

func TestSession_TransientFailureKeepsState(t *testing.T) {
	in := fixedNow().Add(-time.Hour)
	api := &scriptedAPI{status: attendance.Status{PunchIn: &in}}
	s := newTestSession(api)
	stop := runSession(t, s)
	defer stop()

	waitSnapshot(t, s, func(sn Snapshot) bool { return sn.State == attendance.WorkInProgress })

	api.set(attendance.Status{}, errors.New("connection refused"))
	snap := waitSnapshot(t, s, func(sn Snapshot) bool { return sn.Notice != "" })

	// The notice surfaces, but the previously displayed punch state stays.
	assert.Equal(t, attendance.WorkInProgress, snap.State)
	require.NotNil(t, snap.Status.PunchIn)

	// Recovery on a later poll clears the notice.
	api.set(attendance.Status{PunchIn: &in}, nil)
	snap = waitSnapshot(t, s, func(sn Snapshot) bool { return sn.Notice == "" })
	assert.Equal(t, attendance.WorkInProgress, snap.State)
}

func TestSession_UnauthorizedIsFatal(t *testing.T) {
	api := &scriptedAPI{statusErr: client.ErrUnauthorized}
	s := newTestSession(api)

	err := s.Run(context.Background())
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestSession_ApplyPresence(t *testing.T) {
	api := &scriptedAPI{}
	s := newTestSession(api)
	stop := runSession(t, s)
	defer stop()

	waitSnapshot(t, s, nil)
	s.ApplyPresence("2025-03-10")

	snap := waitSnapshot(t, s, func(sn Snapshot) bool {
		for _, d := range sn.Calendar.Days {
			if d.Key == "2025-03-10" {
				return d.Classification == attendance.DayPresent
			}
		}
		return false
	})
	assert.NotZero(t, snap.Time)
}

func TestSession_StopsOnCancel(t *testing.T) {
	api := &scriptedAPI{}
	s := newTestSession(api)
	stop := runSession(t, s)

	waitSnapshot(t, s, nil)
	err := stop()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSession_HistoryFailureIsNonFatal(t *testing.T) {
	api := &scriptedAPI{histErr: errors.New("boom")}
	s := newTestSession(api)
	stop := runSession(t, s)
	defer stop()

	snap := waitSnapshot(t, s, nil)
	assert.NotEmpty(t, snap.Notice)
	assert.Len(t, snap.Calendar.Days, 31, "calendar still renders the month")
}
