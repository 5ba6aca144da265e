// Package stub is a development double of the HRIS backend, implementing
// just the surface the attendance client consumes. Integration tests run
// against it in-process and cmd/hris-stub serves it locally. It is test
// tooling, not a production backend.
package stub

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/staffsync/attendance-go/internal/domain/attendance"
	"github.com/staffsync/attendance-go/internal/domain/session"
)

const (
	// Seeded credentials for local runs and tests.
	SeedEmployeeID = "EMP-1001"
	SeedPassword   = "password123"
)

// Server holds the stub's in-memory state.
type Server struct {
	auth   *jwtauth.JWTAuth
	logger *slog.Logger

	mu        sync.Mutex
	punchIn   *time.Time
	punchOut  *time.Time
	history   []attendance.HistoryEntry
	allowlist []string

	employee     session.User
	passwordHash []byte

	now func() time.Time
}

// Option configures the stub.
type Option func(*Server)

// WithClock replaces the stub's wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithAllowlist seeds the Wi-Fi allow-list.
func WithAllowlist(ips []string) Option {
	return func(s *Server) { s.allowlist = ips }
}

// WithHistory seeds the attendance history feed.
func WithHistory(entries []attendance.HistoryEntry) Option {
	return func(s *Server) { s.history = entries }
}

// WithLogger sets the stub logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New builds a stub with one seeded employee account.
func New(jwtSecret string, opts ...Option) (*Server, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash seed password: %w", err)
	}

	s := &Server{
		auth:   jwtauth.New("HS256", []byte(jwtSecret), nil),
		logger: slog.Default(),
		employee: session.User{
			EmployeeID: SeedEmployeeID,
			Name:       "Dana Whitfield",
			Email:      "dana@staffsync.example",
			Role:       "employee",
		},
		passwordHash: hash,
		allowlist:    []string{"127.0.0.1"},
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Router assembles the stub's HTTP surface with the middleware stack the
// real backend runs: CORS for browser clients, structured request logging,
// and JWT verification on everything behind login.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-stub"),
		slog.String("env", "development"),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:           300,
	}))
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Post("/api/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(s.auth))
		r.Use(jwtauth.Authenticator(s.auth))

		r.Get("/api/attendance/status", s.handleStatus)
		r.Get("/api/attendance/history", s.handleHistory)
		r.Post("/api/attendance/punch", s.handlePunch)
		r.Get("/api/attendance/export", s.handleAttendanceExport)
		r.Get("/api/leave/export", s.handleLeaveExport)
		r.Get("/api/ip/client-ip", s.handleClientIP)
		r.Get("/api/ip/wifi-ips", s.handleWifiIPs)
	})

	return r
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmployeeID string `json:"employee_id"`
		Password   string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid login payload")
		return
	}
	if req.EmployeeID != s.employee.EmployeeID ||
		bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password)) != nil {
		s.logger.Warn("rejected login", "employee_id", req.EmployeeID)
		writeMessage(w, http.StatusUnauthorized, "invalid employee id or password")
		return
	}

	_, token, err := s.auth.Encode(map[string]any{
		"sub":         s.employee.EmployeeID,
		"employee_id": s.employee.EmployeeID,
		"name":        s.employee.Name,
		"exp":         s.now().Add(8 * time.Hour).Unix(),
	})
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  s.employee,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	status := attendance.Status{PunchIn: s.punchIn, PunchOut: s.punchOut}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	entries := make([]attendance.HistoryEntry, len(s.history))
	copy(entries, s.history)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, entries)
}

// handlePunch is the single toggling punch endpoint: the first call of the
// day records a punch in, the second a punch out, a third is rejected.
func (s *Server) handlePunch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(12 << 20); err != nil {
		writeMessage(w, http.StatusBadRequest, "expected multipart punch form")
		return
	}
	if r.FormValue("localIP") == "" {
		writeMessage(w, http.StatusBadRequest, "localIP is required")
		return
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.punchIn == nil:
		s.punchIn = &now
		writeJSON(w, http.StatusOK, attendance.PunchResponse{Message: "Punched in successfully"})
	case s.punchOut == nil:
		s.punchOut = &now
		writeJSON(w, http.StatusOK, attendance.PunchResponse{Message: "Punched out successfully"})
	default:
		writeMessage(w, http.StatusBadRequest, "already punched out for today")
	}
}

func (s *Server) handleClientIP(w http.ResponseWriter, r *http.Request) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	writeJSON(w, http.StatusOK, attendance.ClientIPResponse{IP: host})
}

func (s *Server) handleWifiIPs(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	ips := make([]string, len(s.allowlist))
	copy(ips, s.allowlist)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, ips)
}

func (s *Server) handleAttendanceExport(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	entries := make([]attendance.HistoryEntry, len(s.history))
	copy(entries, s.history)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="attendance.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"date", "punched_in"})
	for _, e := range entries {
		_ = cw.Write([]string{e.Date, fmt.Sprintf("%t", e.PunchedIn)})
	}
	cw.Flush()
}

func (s *Server) handleLeaveExport(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="leaves.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"start_date", "end_date", "type", "status"})
	_ = cw.Write([]string{"2025-02-17", "2025-02-18", "annual", "approved"})
	cw.Flush()
}

// Reset clears today's punches, for tests that replay a day.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.punchIn = nil
	s.punchOut = nil
}

// SetStatus force-sets today's punch state, for tests.
func (s *Server) SetStatus(punchIn, punchOut *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.punchIn = punchIn
	s.punchOut = punchOut
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
