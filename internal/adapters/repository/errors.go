package repository

import (
	"errors"

	"github.com/okian/zodiachr/internal/domain/model"
)

// Sentinel kinds for member store errors.
var (
	ErrNotFound = errors.New("member not found")
	ErrConflict = errors.New("member conflicts with an existing one")
	// ErrInvalidQuery aliases the model error so callers can match either.
	ErrInvalidQuery = model.ErrInvalidQuery
)
