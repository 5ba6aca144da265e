// Package client is the REST client for the HRIS backend. It carries the
// web client's auth semantics: a bearer token on every authenticated call,
// and a single unauthorized callback when the backend rejects the token.
// Network and server errors never log the session out.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/staffsync/attendance-go/internal/domain/attendance"
	"github.com/staffsync/attendance-go/internal/domain/session"
)

// Client talks to the HRIS backend on behalf of one session.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	token          string
	onUnauthorized func()
	unauthOnce     sync.Once
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithOnUnauthorized registers the callback fired (once) when the backend
// answers 401 or 403 on an authenticated call.
func WithOnUnauthorized(fn func()) Option {
	return func(c *Client) { c.onUnauthorized = fn }
}

// New builds a client for the given base URL and session token. The token
// may be empty for a client that only logs in.
func New(baseURL string, sess session.Session, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		token:   sess.Token,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type loginRequest struct {
	EmployeeID string `json:"employee_id"`
	Password   string `json:"password"`
}

type loginResponse struct {
	Token   string       `json:"token"`
	User    session.User `json:"user"`
	Message string       `json:"message"`
}

// Login authenticates with employee id and password and returns a fresh
// session. It is the only unauthenticated call.
func (c *Client) Login(ctx context.Context, employeeID, password string) (session.Session, error) {
	body, err := json.Marshal(loginRequest{EmployeeID: employeeID, Password: password})
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return session.Session{}, fmt.Errorf("login request failed: %w", err)
	}
	defer res.Body.Close()

	var payload loginResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil && res.StatusCode < 300 {
		return session.Session{}, fmt.Errorf("failed to decode login response: %w", err)
	}
	if res.StatusCode >= 300 {
		if payload.Message != "" {
			return session.Session{}, fmt.Errorf("login failed: %s", payload.Message)
		}
		return session.Session{}, fmt.Errorf("login failed: %s", res.Status)
	}
	if payload.Token == "" {
		return session.Session{}, fmt.Errorf("login response is missing a token")
	}
	return session.Session{Token: payload.Token, User: payload.User}, nil
}

// Status fetches today's punch state.
func (c *Client) Status(ctx context.Context) (attendance.Status, error) {
	var status attendance.Status
	if err := c.getJSON(ctx, "/api/attendance/status", &status); err != nil {
		return attendance.Status{}, fmt.Errorf("failed to fetch attendance status: %w", err)
	}
	return status, nil
}

// History fetches the per-day presence feed.
func (c *Client) History(ctx context.Context) ([]attendance.HistoryEntry, error) {
	var entries []attendance.HistoryEntry
	if err := c.getJSON(ctx, "/api/attendance/history", &entries); err != nil {
		return nil, fmt.Errorf("failed to fetch attendance history: %w", err)
	}
	return entries, nil
}

// ClientIP implements wifi.API.
func (c *Client) ClientIP(ctx context.Context) (string, error) {
	var payload attendance.ClientIPResponse
	if err := c.getJSON(ctx, "/api/ip/client-ip", &payload); err != nil {
		return "", err
	}
	return payload.IP, nil
}

// WifiAllowlist implements wifi.API.
func (c *Client) WifiAllowlist(ctx context.Context) ([]string, error) {
	var ips []string
	if err := c.getJSON(ctx, "/api/ip/wifi-ips", &ips); err != nil {
		return nil, err
	}
	return ips, nil
}

// Punch submits the single punch endpoint. The backend toggles punch in
// versus punch out from its own state; the client only supplies context
// (local IP, optional proof photo) plus an idempotency key so a retried
// request cannot double-punch.
func (c *Client) Punch(ctx context.Context, preq attendance.PunchRequest) (attendance.PunchResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("localIP", preq.LocalIP); err != nil {
		return attendance.PunchResponse{}, fmt.Errorf("failed to write punch form: %w", err)
	}
	if preq.Photo != nil {
		part, err := mw.CreateFormFile("photo", preq.PhotoFilename)
		if err != nil {
			return attendance.PunchResponse{}, fmt.Errorf("failed to attach proof photo: %w", err)
		}
		if _, err := io.Copy(part, preq.Photo); err != nil {
			return attendance.PunchResponse{}, fmt.Errorf("failed to attach proof photo: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return attendance.PunchResponse{}, fmt.Errorf("failed to finish punch form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/attendance/punch", &buf)
	if err != nil {
		return attendance.PunchResponse{}, fmt.Errorf("failed to build punch request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Idempotency-Key", uuid.NewString())

	res, err := c.do(req)
	if err != nil {
		return attendance.PunchResponse{}, err
	}
	defer res.Body.Close()

	var payload attendance.PunchResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return attendance.PunchResponse{}, fmt.Errorf("failed to decode punch response: %w", err)
	}
	return payload, nil
}

// DownloadAttendanceCSV streams the backend's attendance CSV export into w.
func (c *Client) DownloadAttendanceCSV(ctx context.Context, w io.Writer) error {
	return c.download(ctx, "/api/attendance/export", w)
}

// DownloadLeavesCSV streams the backend's leave CSV export into w.
func (c *Client) DownloadLeavesCSV(ctx context.Context, w io.Writer) error {
	return c.download(ctx, "/api/leave/export", w)
}

func (c *Client) download(ctx context.Context, path string, w io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}
	res, err := c.do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if _, err := io.Copy(w, res.Body); err != nil {
		return fmt.Errorf("failed to read export body: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	res, err := c.do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// do sends an authenticated request. A 401 or 403 fires the unauthorized
// callback exactly once and maps to ErrUnauthorized; any other non-2xx is a
// plain error that leaves the session intact.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+c.token)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		res.Body.Close()
		c.unauthOnce.Do(func() {
			c.logger.Warn("backend rejected session token", "status", res.StatusCode)
			if c.onUnauthorized != nil {
				c.onUnauthorized()
			}
		})
		return nil, ErrUnauthorized
	}

	if res.StatusCode >= 300 {
		msg := readErrorMessage(res.Body)
		res.Body.Close()
		if msg != "" {
			return nil, fmt.Errorf("%s: %s", res.Status, msg)
		}
		return nil, fmt.Errorf("unexpected status %s from %s", res.Status, req.URL.Path)
	}
	return res, nil
}

func readErrorMessage(r io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&payload); err != nil {
		return ""
	}
	return payload.Message
}
