package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RemoteAuthenticator delegates to an external service exposing
// POST {base}/auth/login with the {success,message,data} envelope.
type RemoteAuthenticator struct {
	baseURL string
	client  *http.Client
}

// RemoteOption configures a RemoteAuthenticator.
type RemoteOption func(*RemoteAuthenticator)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemoteAuthenticator) {
		if c != nil {
			r.client = c
		}
	}
}

// NewRemoteAuthenticator creates a client for baseURL.
func NewRemoteAuthenticator(baseURL string, timeout time.Duration, opts ...RemoteOption) *RemoteAuthenticator {
	r := &RemoteAuthenticator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type remoteEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	} `json:"data"`
}

func (r *RemoteAuthenticator) Authenticate(ctx context.Context, username, password string) (User, error) {
	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	if err != nil {
		return User{}, fmt.Errorf("encode login: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		return User{}, ErrInvalidCredentials
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		return User{}, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var env remoteEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err != nil {
		return User{}, fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}
	if !env.Success {
		return User{}, ErrInvalidCredentials
	}
	u := env.Data.User
	if u.Username == "" {
		u.Username = username
	}
	return u.withZodiac(), nil
}
