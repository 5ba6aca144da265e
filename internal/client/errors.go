package client

import "errors"

// Client errors
var (
	// ErrUnauthorized means the backend rejected the token (401/403). The
	// session is finished; the configured unauthorized callback has fired.
	ErrUnauthorized = errors.New("session is no longer authorized")
)
