package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("missing or expired session")
	ErrUpstream           = errors.New("auth service unavailable")
)
