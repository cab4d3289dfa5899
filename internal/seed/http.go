package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// idempotencyHeader matches the API's create-member replay header.
const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
)

// envelope is the API success wrapper.
type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// client calls the member directory API.
type client struct {
	http    *http.Client
	baseURL string
	token   string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// do sends body as JSON (when non-nil) and decodes a success envelope into
// out. It returns the response headers for callers that inspect them.
func (c *client) do(ctx context.Context, method, path string, body any, header http.Header, out any) (int, http.Header, error) {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request body: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, resp.Header, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var e apiError
		_ = json.Unmarshal(raw, &e)
		return resp.StatusCode, resp.Header, &ResponseError{
			Method: method, Path: path, Status: resp.StatusCode,
			Code: e.Code, Message: e.Message,
		}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, resp.Header, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, resp.Header, nil
}

// get decodes the data field of a GET response.
func get[T any](ctx context.Context, c *client, path string) (T, error) {
	var env envelope[T]
	_, _, err := c.do(ctx, http.MethodGet, path, nil, nil, &env)
	return env.Data, err
}

// post decodes the data field of a POST response.
func post[T any](ctx context.Context, c *client, path string, body any) (T, error) {
	var env envelope[T]
	_, _, err := c.do(ctx, http.MethodPost, path, body, nil, &env)
	return env.Data, err
}

type loginData struct {
	Token string `json:"token"`
}

// login stores a bearer token for later requests.
func (c *client) login(ctx context.Context, username, password string) error {
	data, err := post[loginData](ctx, c, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return err
	}
	c.token = data.Token
	return nil
}

// health checks the metrics endpoint, which is always public.
func (c *client) health(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}
