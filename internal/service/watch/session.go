// Package watch runs the employee home view's polling session: a one-shot
// history fetch, a periodic status poll, and a one-second clock tick that
// re-evaluates the window predicates and the live work duration. Consumers
// receive immutable render-ready snapshots.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/staffsync/attendance-go/internal/client"
	"github.com/staffsync/attendance-go/internal/domain/attendance"
	engine "github.com/staffsync/attendance-go/internal/service/attendance"
	"github.com/staffsync/attendance-go/internal/service/wifi"
)

// API is the slice of the backend client the session polls.
type API interface {
	Status(ctx context.Context) (attendance.Status, error)
	History(ctx context.Context) ([]attendance.HistoryEntry, error)
}

// WifiVerifier reports whether the caller is on an allowed network.
type WifiVerifier interface {
	Verify(ctx context.Context) (wifi.Result, error)
}

// Snapshot is one render-ready view of the attendance state. Values are
// copies; the receiving side never shares state with the session.
type Snapshot struct {
	Time          time.Time
	Status        attendance.Status
	State         attendance.WorkState
	DurationLabel string
	CanPunchIn    bool
	CanPunchOut   bool
	WifiAllowed   bool
	ClientIP      string
	Calendar      attendance.MonthCalendar

	// Notice carries a transient fetch problem. It is cleared by the next
	// successful poll and never wipes already-displayed state.
	Notice string
}

// Session owns the view state between fetches.
type Session struct {
	engine *engine.Engine
	api    API
	wifi   WifiVerifier
	cache  attendance.HistoryRepository
	logger *slog.Logger

	pollInterval time.Duration
	tickInterval time.Duration
	now          func() time.Time

	mu           sync.Mutex
	status       attendance.Status
	byDate       map[string]bool
	wifiRes      wifi.Result
	statusNotice string
	histNotice   string

	snapshots chan Snapshot
}

// Option configures a Session.
type Option func(*Session)

// WithPollInterval sets the status poll period (default 15s).
func WithPollInterval(d time.Duration) Option {
	return func(s *Session) { s.pollInterval = d }
}

// WithTickInterval sets the clock tick period (default 1s).
func WithTickInterval(d time.Duration) Option {
	return func(s *Session) { s.tickInterval = d }
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithHistoryCache persists every history fetch into the local cache.
func WithHistoryCache(repo attendance.HistoryRepository) Option {
	return func(s *Session) { s.cache = repo }
}

// WithWifiVerifier enables the Wi-Fi allow-list check on session start.
func WithWifiVerifier(v WifiVerifier) Option {
	return func(s *Session) { s.wifi = v }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

func NewSession(eng *engine.Engine, api API, opts ...Option) *Session {
	s := &Session{
		engine:       eng,
		api:          api,
		logger:       slog.Default(),
		pollInterval: 15 * time.Second,
		tickInterval: time.Second,
		now:          time.Now,
		byDate:       map[string]bool{},
		snapshots:    make(chan Snapshot, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshots is the session's output. The channel holds only the latest
// snapshot; a slow consumer sees the freshest state, not a backlog.
func (s *Session) Snapshots() <-chan Snapshot { return s.snapshots }

// Run drives the session until ctx is cancelled or the backend rejects the
// token. History is fetched once and then only patched locally; status is
// re-polled on the poll interval. Both tickers are stopped on return.
func (s *Session) Run(ctx context.Context) error {
	s.fetchHistory(ctx)
	s.verifyWifi(ctx)
	if err := s.fetchStatus(ctx); err != nil {
		return err
	}
	s.emit()

	clock := time.NewTicker(s.tickInterval)
	defer clock.Stop()
	poll := time.NewTicker(s.pollInterval)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
			if err := s.fetchStatus(ctx); err != nil {
				return err
			}
		case <-clock.C:
			s.emit()
		}
	}
}

// ApplyPresence applies the optimistic override for a just-punched day and
// pushes a fresh snapshot immediately, before the next poll tick.
func (s *Session) ApplyPresence(dateKey string) {
	s.mu.Lock()
	s.byDate = engine.ApplyOptimisticPresence(s.byDate, dateKey)
	s.mu.Unlock()
	s.emit()
}

// RefreshStatus forces an immediate status poll, used right after a punch
// action resolves.
func (s *Session) RefreshStatus(ctx context.Context) error {
	if err := s.fetchStatus(ctx); err != nil {
		return err
	}
	s.emit()
	return nil
}

// fetchStatus polls today's punch state. Transient failures set the notice
// and keep prior state; an unauthorized response is fatal and returned.
func (s *Session) fetchStatus(ctx context.Context) error {
	status, err := s.api.Status(ctx)
	if err != nil {
		if errors.Is(err, client.ErrUnauthorized) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("status poll failed", "error", err)
		s.mu.Lock()
		s.statusNotice = "Unable to fetch attendance status. Retrying..."
		s.mu.Unlock()
		s.emit()
		return nil
	}

	s.mu.Lock()
	s.status = status
	s.statusNotice = ""
	// Force today present as soon as a punch in is known, in case the
	// history feed has not caught up yet.
	if status.PunchIn != nil {
		key := engine.DateKey(*status.PunchIn, s.engine.Location())
		s.byDate = engine.ApplyOptimisticPresence(s.byDate, key)
	}
	s.mu.Unlock()
	s.emit()
	return nil
}

// fetchHistory runs once per session. Failures are non-fatal: the calendar
// simply starts empty and fills in from optimistic patches.
func (s *Session) fetchHistory(ctx context.Context) {
	entries, err := s.api.History(ctx)
	if err != nil {
		s.logger.Warn("history fetch failed", "error", err)
		s.mu.Lock()
		s.histNotice = "Unable to fetch attendance history."
		s.mu.Unlock()
		return
	}

	byDate := engine.BuildPresenceMap(entries, s.engine.Location(), s.logger)
	s.mu.Lock()
	s.byDate = byDate
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.UpsertDays(ctx, byDate, s.now()); err != nil {
			s.logger.Warn("failed to cache attendance history", "error", err)
		}
	}
}

func (s *Session) verifyWifi(ctx context.Context) {
	if s.wifi == nil {
		return
	}
	res, err := s.wifi.Verify(ctx)
	if err != nil {
		s.logger.Warn("wifi verification failed", "error", err)
	}
	s.mu.Lock()
	s.wifiRes = res
	s.mu.Unlock()
}

// emit builds a snapshot from current state and publishes it, replacing any
// unconsumed previous snapshot.
func (s *Session) emit() {
	now := s.now()

	s.mu.Lock()
	byDate := make(map[string]bool, len(s.byDate))
	for k, v := range s.byDate {
		byDate[k] = v
	}
	snap := Snapshot{
		Time:          now,
		Status:        s.status,
		State:         attendance.StateOf(s.status),
		DurationLabel: engine.DurationLabel(s.status, now),
		CanPunchIn:    s.engine.CanPunchIn(now),
		CanPunchOut:   s.engine.CanPunchOut(now),
		WifiAllowed:   s.wifiRes.Allowed,
		ClientIP:      s.wifiRes.PrimaryIP,
		Notice:        s.statusNotice,
	}
	if snap.Notice == "" {
		snap.Notice = s.histNotice
	}
	s.mu.Unlock()

	snap.Calendar = s.engine.CurrentMonth(now, byDate)

	select {
	case s.snapshots <- snap:
	default:
		select {
		case <-s.snapshots:
		default:
		}
		select {
		case s.snapshots <- snap:
		default:
		}
	}
}

// Today returns the canonical key for the current local day.
func (s *Session) Today() string {
	return s.engine.TodayKey(s.now())
}

var _ fmt.Stringer = Snapshot{}

// String renders the snapshot for plain-terminal hosts.
func (s Snapshot) String() string {
	state := map[attendance.WorkState]string{
		attendance.WorkNotStarted: "Not Started",
		attendance.WorkInProgress: "Working",
		attendance.WorkCompleted:  "Completed",
	}[s.State]
	return fmt.Sprintf("%s | %s | %s", s.Time.Format("15:04:05"), state, s.DurationLabel)
}
