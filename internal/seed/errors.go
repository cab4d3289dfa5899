package seed

import (
	"errors"
	"fmt"
)

var (
	// ErrUnhealthy is returned when the service health check fails.
	ErrUnhealthy = errors.New("service unhealthy")
	// ErrRequest is wrapped by every non-success API response.
	ErrRequest = errors.New("request failed")
)

// ResponseError is a decoded API error envelope.
type ResponseError struct {
	Method  string
	Path    string
	Status  int
	Code    string
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.Status, e.Code, e.Message)
}

func (e *ResponseError) Unwrap() error { return ErrRequest }

// retryable reports whether resubmitting with the same Idempotency-Key can
// succeed: transport failures, server errors and in-flight duplicates.
func retryable(err error) bool {
	var re *ResponseError
	if !errors.As(err, &re) {
		return true
	}
	return re.Status >= 500 || re.Code == "in_flight"
}
