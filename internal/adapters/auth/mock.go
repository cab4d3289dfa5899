package auth

import (
	"context"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MockAuthenticator accepts a single configured user. Only a bcrypt hash of
// the password is kept in memory.
type MockAuthenticator struct {
	user User
	hash []byte
	cost int
}

// MockOption configures a MockAuthenticator.
type MockOption func(*MockAuthenticator)

// WithBcryptCost overrides the hashing cost.
func WithBcryptCost(cost int) MockOption {
	return func(m *MockAuthenticator) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			m.cost = cost
		}
	}
}

// NewMockAuthenticator hashes password for user.Username.
func NewMockAuthenticator(user User, password string, opts ...MockOption) (*MockAuthenticator, error) {
	m := &MockAuthenticator{user: user.withZodiac(), cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(m)
	}
	if m.user.ID == 0 {
		m.user.ID = 1
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return nil, fmt.Errorf("hash mock password: %w", err)
	}
	m.hash = hash
	return m, nil
}

func (m *MockAuthenticator) Authenticate(_ context.Context, username, password string) (User, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(m.user.Username)) == 1
	// Always run bcrypt so timing does not reveal whether the username matched.
	passErr := bcrypt.CompareHashAndPassword(m.hash, []byte(password))
	if !userOK || passErr != nil {
		return User{}, ErrInvalidCredentials
	}
	return m.user, nil
}
