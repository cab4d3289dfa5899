package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/zodiachr/pkg/metrics"
)

// DefaultSessionTTL is used when NewSessionStore receives a non-positive TTL.
const DefaultSessionTTL = 24 * time.Hour

type session struct {
	user    User
	expires time.Time
}

// SessionStore issues opaque bearer tokens and resolves them back to users.
// Expired sessions are dropped lazily on lookup and on every login.
type SessionStore struct {
	mu       sync.Mutex
	auth     Authenticator
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]session
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithSessionClock overrides the clock.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSessionStore wraps an Authenticator with token sessions.
func NewSessionStore(a Authenticator, ttl time.Duration, opts ...SessionOption) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &SessionStore{
		auth:     a,
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates and returns a new token for the user.
func (s *SessionStore) Login(ctx context.Context, username, password string) (string, User, error) {
	u, err := s.auth.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			metrics.RecordLoginAttempt("invalid")
		} else {
			metrics.RecordLoginAttempt("error")
		}
		return "", User{}, err
	}
	metrics.RecordLoginAttempt("ok")

	now := s.now()
	u.LastLogin = now.UTC()
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep(now)
	s.sessions[token] = session{user: u, expires: now.Add(s.ttl)}
	metrics.UpdateActiveSessions(len(s.sessions))
	return token, u, nil
}

// Lookup resolves a token. Unknown and expired tokens yield ErrUnauthorized.
func (s *SessionStore) Lookup(token string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return User{}, ErrUnauthorized
	}
	if !s.now().Before(sess.expires) {
		delete(s.sessions, token)
		metrics.UpdateActiveSessions(len(s.sessions))
		return User{}, ErrUnauthorized
	}
	return sess.user, nil
}

// Logout drops a token. Unknown tokens are ignored.
func (s *SessionStore) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	metrics.UpdateActiveSessions(len(s.sessions))
}

// Active returns the number of live sessions.
func (s *SessionStore) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep(s.now())
	return len(s.sessions)
}

// Must be called with s.mu held.
func (s *SessionStore) sweep(now time.Time) {
	for tok, sess := range s.sessions {
		if !now.Before(sess.expires) {
			delete(s.sessions, tok)
		}
	}
}
