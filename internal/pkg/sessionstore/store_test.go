package sessionstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/staffsync/attendance-go/internal/domain/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, employeeID string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewBuilder().
		Subject("user-1").
		Claim("employee_id", employeeID).
		Expiration(exp).
		Build()
	require.NoError(t, err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, []byte("test-secret")))
	require.NoError(t, err)
	return string(signed)
}

func TestFileStore_RoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.json"))

	_, err := store.Load()
	assert.ErrorIs(t, err, session.ErrNoSession)

	sess := session.Session{
		Token: signedToken(t, "EMP-7", time.Now().Add(time.Hour)),
		User:  session.User{EmployeeID: "EMP-7", Name: "Dana", Role: "employee"},
	}
	require.NoError(t, store.Save(sess))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, session.ErrNoSession)

	// Clearing twice stays quiet.
	assert.NoError(t, store.Clear())
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	claims, err := ParseClaims(signedToken(t, "EMP-7", exp))
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "EMP-7", claims.EmployeeID)
	assert.WithinDuration(t, exp, claims.ExpiresAt, time.Second)
	assert.False(t, claims.Expired(time.Now()))
	assert.True(t, claims.Expired(exp.Add(time.Minute)))
}

func TestParseClaims_Garbage(t *testing.T) {
	_, err := ParseClaims("not-a-jwt")
	assert.ErrorIs(t, err, session.ErrInvalidToken)
}

func TestLoadValid_ExpiredToken(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	sess := session.Session{Token: signedToken(t, "EMP-7", time.Now().Add(-time.Hour))}
	require.NoError(t, store.Save(sess))

	_, err := store.LoadValid(time.Now())
	assert.ErrorIs(t, err, session.ErrTokenExpired)
}
