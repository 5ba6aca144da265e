package client_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/staffsync/attendance-go/internal/client"
	"github.com/staffsync/attendance-go/internal/domain/attendance"
	"github.com/staffsync/attendance-go/internal/domain/session"
	"github.com/staffsync/attendance-go/internal/stub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubServer(t *testing.T, opts ...stub.Option) (*stub.Server, *httptest.Server) {
	t.Helper()
	srv, err := stub.New("integration-test-secret", opts...)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func login(t *testing.T, baseURL string) session.Session {
	t.Helper()
	c := client.New(baseURL, session.Session{})
	sess, err := c.Login(context.Background(), stub.SeedEmployeeID, stub.SeedPassword)
	require.NoError(t, err)
	return sess
}

func TestClient_Login(t *testing.T) {
	_, ts := newStubServer(t)

	sess := login(t, ts.URL)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, stub.SeedEmployeeID, sess.User.EmployeeID)

	c := client.New(ts.URL, session.Session{})
	_, err := c.Login(context.Background(), stub.SeedEmployeeID, "wrong-password")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid employee id or password")
}

func TestClient_StatusAndHistory(t *testing.T) {
	in := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	srv, ts := newStubServer(t, stub.WithHistory([]attendance.HistoryEntry{
		{Date: "2025-03-07", PunchedIn: true},
		{Date: "2025-03-06", PunchedIn: false},
	}))
	srv.SetStatus(&in, nil)

	c := client.New(ts.URL, login(t, ts.URL))

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	require.NotNil(t, status.PunchIn)
	assert.True(t, status.PunchIn.Equal(in))
	assert.Nil(t, status.PunchOut)

	entries, err := c.History(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "2025-03-07", entries[0].Date)
	assert.True(t, entries[0].PunchedIn)
}

func TestClient_PunchToggles(t *testing.T) {
	_, ts := newStubServer(t)
	c := client.New(ts.URL, login(t, ts.URL))
	ctx := context.Background()

	resp, err := c.Punch(ctx, attendance.PunchRequest{LocalIP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "Punched in successfully", resp.Message)

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.NotNil(t, status.PunchIn)
	assert.Nil(t, status.PunchOut)

	resp, err = c.Punch(ctx, attendance.PunchRequest{LocalIP: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "Punched out successfully", resp.Message)

	_, err = c.Punch(ctx, attendance.PunchRequest{LocalIP: "127.0.0.1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already punched out")
}

func TestClient_PunchWithPhoto(t *testing.T) {
	_, ts := newStubServer(t)
	c := client.New(ts.URL, login(t, ts.URL))

	resp, err := c.Punch(context.Background(), attendance.PunchRequest{
		LocalIP:       "127.0.0.1",
		Photo:         strings.NewReader("jpeg-bytes"),
		PhotoFilename: "proof.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, "Punched in successfully", resp.Message)
}

func TestClient_UnauthorizedFiresCallbackOnce(t *testing.T) {
	_, ts := newStubServer(t)

	calls := 0
	c := client.New(ts.URL, session.Session{Token: "forged-token"},
		client.WithOnUnauthorized(func() { calls++ }))

	ctx := context.Background()
	_, err := c.Status(ctx)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
	_, err = c.History(ctx)
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	assert.Equal(t, 1, calls, "the logout callback must fire exactly once")
}

func TestClient_NetworkErrorDoesNotLogout(t *testing.T) {
	calls := 0
	c := client.New("http://127.0.0.1:1", session.Session{Token: "tok"},
		client.WithOnUnauthorized(func() { calls++ }))

	_, err := c.Status(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, client.ErrUnauthorized)
	assert.Zero(t, calls)
}

func TestClient_WifiEndpoints(t *testing.T) {
	_, ts := newStubServer(t, stub.WithAllowlist([]string{"127.0.0.1", "10.0.0.5"}))
	c := client.New(ts.URL, login(t, ts.URL))
	ctx := context.Background()

	ip, err := c.ClientIP(ctx)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", ip)

	ips, err := c.WifiAllowlist(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1", "10.0.0.5"}, ips)
}

func TestClient_DownloadAttendanceCSV(t *testing.T) {
	_, ts := newStubServer(t, stub.WithHistory([]attendance.HistoryEntry{
		{Date: "2025-03-07", PunchedIn: true},
	}))
	c := client.New(ts.URL, login(t, ts.URL))

	var buf bytes.Buffer
	require.NoError(t, c.DownloadAttendanceCSV(context.Background(), &buf))
	assert.Contains(t, buf.String(), "date,punched_in")
	assert.Contains(t, buf.String(), "2025-03-07,true")

	buf.Reset()
	require.NoError(t, c.DownloadLeavesCSV(context.Background(), &buf))
	assert.Contains(t, buf.String(), "start_date")
}
