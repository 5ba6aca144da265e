package wifi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	ip        string
	ipErr     error
	allowlist []string
	listErr   error
}

func (f *fakeAPI) ClientIP(context.Context) (string, error)        { return f.ip, f.ipErr }
func (f *fakeAPI) WifiAllowlist(context.Context) ([]string, error) { return f.allowlist, f.listErr }

func TestNormalizeIP(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"192.168.1.10", "192.168.1.10"},
		{" 192.168.1.10 ", "192.168.1.10"},
		{"::ffff:192.168.1.10", "192.168.1.10"},
		{"::1", "127.0.0.1"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeIP(tt.raw), "raw=%q", tt.raw)
	}
}

func TestVerifier_Verify(t *testing.T) {
	tests := []struct {
		name    string
		api     fakeAPI
		allowed bool
		primary string
	}{
		{
			name:    "primary on allowlist",
			api:     fakeAPI{ip: "192.168.1.10", allowlist: []string{"10.0.0.1", "192.168.1.10"}},
			allowed: true,
			primary: "192.168.1.10",
		},
		{
			name:    "not on allowlist",
			api:     fakeAPI{ip: "172.16.0.9", allowlist: []string{"192.168.1.10"}},
			allowed: false,
			primary: "172.16.0.9",
		},
		{
			name:    "mapped prefix on both sides",
			api:     fakeAPI{ip: "::ffff:192.168.1.10", allowlist: []string{"::ffff:192.168.1.10"}},
			allowed: true,
			primary: "192.168.1.10",
		},
		{
			name:    "only the first of a comma list counts",
			api:     fakeAPI{ip: "172.16.0.9, 192.168.1.10", allowlist: []string{"192.168.1.10"}},
			allowed: false,
			primary: "172.16.0.9",
		},
		{
			name:    "loopback folding",
			api:     fakeAPI{ip: "::1", allowlist: []string{"127.0.0.1"}},
			allowed: true,
			primary: "127.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewVerifier(&tt.api).Verify(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, res.Allowed)
			assert.Equal(t, tt.primary, res.PrimaryIP)
		})
	}
}

func TestVerifier_FailsClosed(t *testing.T) {
	boom := errors.New("network down")

	res, err := NewVerifier(&fakeAPI{ipErr: boom}).Verify(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, res.Allowed)

	res, err = NewVerifier(&fakeAPI{ip: "192.168.1.10", listErr: boom}).Verify(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, res.Allowed)
}
