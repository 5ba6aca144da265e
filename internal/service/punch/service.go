// Package punch coordinates punch actions: synchronous gate checks, the
// single network call, and the optimistic presence patch on success.
package punch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/staffsync/attendance-go/internal/domain/attendance"
	engine "github.com/staffsync/attendance-go/internal/service/attendance"
	"github.com/staffsync/attendance-go/internal/service/wifi"
)

// API is the slice of the backend client the orchestrator needs.
type API interface {
	Status(ctx context.Context) (attendance.Status, error)
	Punch(ctx context.Context, req attendance.PunchRequest) (attendance.PunchResponse, error)
}

// WifiVerifier is the network allow-list gate.
type WifiVerifier interface {
	Verify(ctx context.Context) (wifi.Result, error)
}

// Service implements attendance.PunchService. Three independent gates are
// AND-ed before the network call: the window policy, the Wi-Fi allow-list,
// and the already-punched check against a fresh status. At most one punch
// request may be in flight; a second attempt is rejected immediately, never
// queued, so rapid double-clicks cannot double-punch.
type Service struct {
	engine *engine.Engine
	api    API
	wifi   WifiVerifier
	logger *slog.Logger

	now       func() time.Time
	minWork   time.Duration
	onPunched func(dateKey string)

	inFlight atomic.Bool
}

// Option configures the punch service.
type Option func(*Service)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMinWorkDuration sets the minimum span between punch in and punch out.
func WithMinWorkDuration(d time.Duration) Option {
	return func(s *Service) { s.minWork = d }
}

// WithOnPunched registers the hook invoked synchronously after a successful
// punch with today's canonical date key. The watch session uses it to apply
// the optimistic presence patch before its next poll tick.
func WithOnPunched(fn func(dateKey string)) Option {
	return func(s *Service) { s.onPunched = fn }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(eng *engine.Engine, api API, wifiVerifier WifiVerifier, opts ...Option) *Service {
	s := &Service{
		engine:  eng,
		api:     api,
		wifi:    wifiVerifier,
		logger:  slog.Default(),
		now:     time.Now,
		minWork: time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PunchIn implements attendance.PunchService.
func (s *Service) PunchIn(ctx context.Context, req attendance.PunchRequest) (attendance.PunchResponse, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return attendance.PunchResponse{}, attendance.ErrPunchInFlight
	}
	defer s.inFlight.Store(false)

	now := s.now()
	if !s.engine.CanPunchIn(now) {
		return attendance.PunchResponse{}, attendance.ErrPunchInWindowClosed
	}
	if s.engine.Policy().RequiresPhoto() && req.Photo == nil {
		return attendance.PunchResponse{}, attendance.ErrPhotoRequired
	}

	status, err := s.api.Status(ctx)
	if err != nil {
		return attendance.PunchResponse{}, fmt.Errorf("failed to fetch status before punch in: %w", err)
	}
	if status.PunchedIn() {
		return attendance.PunchResponse{}, attendance.ErrAlreadyPunchedIn
	}

	if err := s.checkWifi(ctx, &req); err != nil {
		return attendance.PunchResponse{}, err
	}
	return s.submit(ctx, now, req)
}

// PunchOut implements attendance.PunchService.
func (s *Service) PunchOut(ctx context.Context, req attendance.PunchRequest) (attendance.PunchResponse, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return attendance.PunchResponse{}, attendance.ErrPunchInFlight
	}
	defer s.inFlight.Store(false)

	now := s.now()
	if !s.engine.CanPunchOut(now) {
		return attendance.PunchResponse{}, attendance.ErrPunchOutWindowClosed
	}
	if s.engine.Policy().RequiresPhoto() && req.Photo == nil {
		return attendance.PunchResponse{}, attendance.ErrPhotoRequired
	}

	status, err := s.api.Status(ctx)
	if err != nil {
		return attendance.PunchResponse{}, fmt.Errorf("failed to fetch status before punch out: %w", err)
	}
	if !status.PunchedIn() {
		return attendance.PunchResponse{}, attendance.ErrNotPunchedIn
	}
	if status.PunchedOut() {
		return attendance.PunchResponse{}, attendance.ErrAlreadyPunchedOut
	}
	if s.minWork > 0 && now.Sub(*status.PunchIn) < s.minWork {
		return attendance.PunchResponse{}, attendance.ErrMinWorkNotReached
	}

	if err := s.checkWifi(ctx, &req); err != nil {
		return attendance.PunchResponse{}, err
	}
	return s.submit(ctx, now, req)
}

// checkWifi fails closed: a verification error counts as not allowed. The
// verified primary IP fills the request when the caller supplied none.
func (s *Service) checkWifi(ctx context.Context, req *attendance.PunchRequest) error {
	res, err := s.wifi.Verify(ctx)
	if err != nil {
		s.logger.Warn("wifi verification failed", "error", err)
		return fmt.Errorf("%w: %v", attendance.ErrWifiNotAllowed, err)
	}
	if !res.Allowed {
		return attendance.ErrWifiNotAllowed
	}
	if req.LocalIP == "" {
		req.LocalIP = res.PrimaryIP
	}
	return nil
}

func (s *Service) submit(ctx context.Context, now time.Time, req attendance.PunchRequest) (attendance.PunchResponse, error) {
	resp, err := s.api.Punch(ctx, req)
	if err != nil {
		return attendance.PunchResponse{}, fmt.Errorf("punch request failed: %w", err)
	}
	// The optimistic patch runs before control returns so the calendar
	// never flickers back to absent while the history feed lags.
	if s.onPunched != nil {
		s.onPunched(s.engine.TodayKey(now))
	}
	return resp, nil
}
