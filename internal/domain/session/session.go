package session

import "time"

// User is the profile stored alongside the token at login.
type User struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}

// Session is the explicit authentication context handed to the client and
// the view host. Engine packages never read it from ambient storage.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Claims are the token claims the client inspects locally. The client holds
// no signing key, so these are parsed without verification and used for
// display and expiry checks only.
type Claims struct {
	Subject    string
	EmployeeID string
	ExpiresAt  time.Time
}

// Expired reports whether the token expiry has passed.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Store persists the session between CLI invocations.
type Store interface {
	// Load returns the stored session, or ErrNoSession when absent.
	Load() (Session, error)

	// Save persists the session.
	Save(Session) error

	// Clear removes any stored session.
	Clear() error
}
