package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/zodiachr/internal/adapters/auth"
	"github.com/okian/zodiachr/internal/adapters/repository"
	service "github.com/okian/zodiachr/internal/app"
	"github.com/okian/zodiachr/internal/domain/model"
	"github.com/okian/zodiachr/internal/domain/zodiac"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrRateLimited = errors.New("too many login attempts, retry later")

	errMissingValue = fmt.Errorf("%w: value is required", ErrBadRequest)
)

// classify maps an error to its HTTP status and machine code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, service.ErrImportNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrInFlight):
		return http.StatusConflict, "in_flight"
	case errors.Is(err, service.ErrBusy):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, model.ErrInvalidMember),
		errors.Is(err, model.ErrInvalidQuery),
		errors.Is(err, model.ErrInvalidNote),
		errors.Is(err, model.ErrInvalidSetting),
		errors.Is(err, zodiac.ErrInvalidInput),
		errors.Is(err, zodiac.ErrUnknownSign),
		errors.Is(err, zodiac.ErrUnknownElement):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, auth.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
