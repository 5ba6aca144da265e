package session

import "errors"

// Session domain errors
var (
	ErrNoSession    = errors.New("no stored session, login first")
	ErrTokenExpired = errors.New("stored session token has expired")
	ErrInvalidToken = errors.New("stored session token is not a valid JWT")
)
