// Package auth authenticates users and tracks their sessions.
package auth

import (
	"context"
	"time"

	"github.com/okian/zodiachr/internal/domain/zodiac"
)

// User is the authenticated principal.
type User struct {
	ID            int64          `json:"id"`
	Username      string         `json:"username"`
	FullName      string         `json:"fullName"`
	Email         string         `json:"email,omitempty"`
	DateOfBirth   string         `json:"dateOfBirth,omitempty"`
	ZodiacSign    zodiac.Sign    `json:"zodiacSign,omitempty"`
	ZodiacElement zodiac.Element `json:"zodiacElement,omitempty"`
	LastLogin     time.Time      `json:"lastLogin"`
}

// withZodiac fills the zodiac fields from DateOfBirth when it parses.
func (u User) withZodiac() User {
	if u.DateOfBirth == "" {
		return u
	}
	if c, err := zodiac.ClassifyString(u.DateOfBirth); err == nil {
		u.ZodiacSign, u.ZodiacElement = c.Sign, c.Element
	}
	return u
}

// Authenticator verifies credentials.
type Authenticator interface {
	// Authenticate returns ErrInvalidCredentials for a bad username or
	// password and ErrUpstream when verification itself failed.
	Authenticate(ctx context.Context, username, password string) (User, error)
}
