// Package sessionstore persists the login session between CLI invocations
// and inspects the stored token's claims. The client holds no signing key,
// so tokens are parsed without verification and used only for expiry checks
// and display; the backend remains the authority on token validity.
package sessionstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/staffsync/attendance-go/internal/domain/session"
)

// FileStore keeps the session in a mode-0600 JSON file.
type FileStore struct {
	path string
}

// NewFileStore builds a store at path. The parent directory is created on
// the first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns the per-user session file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".attend", "session.json"), nil
}

// Load implements session.Store.
func (s *FileStore) Load() (session.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return session.Session{}, session.ErrNoSession
		}
		return session.Session{}, fmt.Errorf("failed to read session file: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return session.Session{}, fmt.Errorf("failed to decode session file: %w", err)
	}
	if sess.Token == "" {
		return session.Session{}, session.ErrNoSession
	}
	return sess, nil
}

// Save implements session.Store.
func (s *FileStore) Save(sess session.Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// Clear implements session.Store. Clearing an absent session is not an
// error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// ParseClaims extracts the claims the client cares about from a stored
// token without verifying its signature.
func ParseClaims(token string) (session.Claims, error) {
	tok, err := jwt.ParseString(token, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return session.Claims{}, fmt.Errorf("%w: %v", session.ErrInvalidToken, err)
	}

	claims := session.Claims{
		Subject:   tok.Subject(),
		ExpiresAt: tok.Expiration(),
	}
	if v, ok := tok.Get("employee_id"); ok {
		if id, ok := v.(string); ok {
			claims.EmployeeID = id
		}
	}
	return claims, nil
}

// LoadValid loads the stored session and rejects it when the token has
// already expired, so the CLI can route straight to login.
func (s *FileStore) LoadValid(now time.Time) (session.Session, error) {
	sess, err := s.Load()
	if err != nil {
		return session.Session{}, err
	}
	claims, err := ParseClaims(sess.Token)
	if err != nil {
		return session.Session{}, err
	}
	if claims.Expired(now) {
		return session.Session{}, session.ErrTokenExpired
	}
	return sess, nil
}
