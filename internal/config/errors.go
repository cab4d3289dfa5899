// Package config defines, loads and validates the directory service settings.
//
// Every validation failure wraps ErrInvalidConfig. Failures that callers may
// want to report specifically also wrap one of the narrower kinds below.
package config

import (
	"errors"
)

var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")

	// ErrInvalidSchedule marks a scheduler.birthday_cron that cron cannot parse.
	ErrInvalidSchedule = errors.New("invalid cron schedule")
	// ErrUnknownTimezone marks a scheduler.timezone missing from the tz database.
	ErrUnknownTimezone = errors.New("unknown timezone")
	// ErrUnknownMode marks an unsupported store.driver or auth.mode.
	ErrUnknownMode     = errors.New("unknown mode")
)
