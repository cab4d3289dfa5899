package zodiac

import (
	"errors"
	"fmt"
)

// Sentinel kinds for zodiac errors.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnknownSign    = errors.New("unknown zodiac sign")
	ErrUnknownElement = errors.New("unknown zodiac element")
)

// InvalidInputError describes a date that could not be classified.
// It matches ErrInvalidInput under errors.Is.
type InvalidInputError struct {
	Input  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid date %q: %s", e.Input, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

func invalid(input, reason string) error {
	return &InvalidInputError{Input: input, Reason: reason}
}
