package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/zodiachr/internal/adapters/auth"
	"github.com/okian/zodiachr/pkg/metrics"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  auth.User `json:"user"`
}

// handleLogin handles POST /api/auth/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.allow(r) {
		metrics.RecordLoginAttempt("throttled")
		w.Header().Set("Retry-After", "1")
		s.fail(w, r, ErrRateLimited)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		s.fail(w, r, fmt.Errorf("%w: username and password are required", ErrBadRequest))
		return
	}
	tok, u, err := s.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.ok(w, http.StatusOK, "Login successful", loginResponse{Token: tok, User: u})
}

// handleLogout handles POST /api/auth/logout.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	s.sessions.Logout(p.token)
	s.ok(w, http.StatusOK, "Logged out", nil)
}

// handleMe handles GET /api/auth/me.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	s.ok(w, http.StatusOK, "Current user", p.user)
}
