package config

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/robfig/cron/v3"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr            string        `koanf:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// IdempotencyKeys bounds the Idempotency-Key cache for member creates.
	IdempotencyKeys int `koanf:"idempotency_keys"`

	// UpcomingDays is the default window for upcoming birthdays.
	UpcomingDays int `koanf:"upcoming_days"`

	Store     StoreConfig     `koanf:"store"`
	Import    ImportConfig    `koanf:"import"`
	Auth      AuthConfig      `koanf:"auth"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
}

// StoreConfig selects the member store.
type StoreConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string `koanf:"driver"`
	// Path is the SQLite database file.
	Path string `koanf:"path"`
}

// ImportConfig sizes the bulk import pipeline.
type ImportConfig struct {
	QueueSize   int `koanf:"queue_size"`
	WorkerCount int `koanf:"worker_count"`
	// MaxRows caps a single import request.
	MaxRows int `koanf:"max_rows"`
}

// AuthConfig configures login and session gating.
type AuthConfig struct {
	// Mode is "mock" or "remote".
	Mode string `koanf:"mode"`
	// Required gates every /api route except login behind a bearer token.
	Required   bool          `koanf:"required"`
	SessionTTL time.Duration `koanf:"session_ttl"`

	// Remote mode.
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`

	// Mock mode user.
	Username    string `koanf:"username"`
	Password    string `koanf:"password"`
	FullName    string `koanf:"full_name"`
	Email       string `koanf:"email"`
	DateOfBirth string `koanf:"date_of_birth"`

	// Login throttling: sustained attempts per second and burst.
	LoginRate  float64 `koanf:"login_rate"`
	LoginBurst int     `koanf:"login_burst"`
}

// SchedulerConfig configures the birthday digest job.
type SchedulerConfig struct {
	Enabled      bool   `koanf:"enabled"`
	BirthdayCron string `koanf:"birthday_cron"`
	// Timezone is an IANA name; birthdays are evaluated in it.
	Timezone string `koanf:"timezone"`
}

// New returns a Config holding the defaults. The context is reserved for
// loaders that need it.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		ShutdownTimeout: 10 * time.Second,
		IdempotencyKeys: 10_000,
		UpcomingDays:    30,
		Store: StoreConfig{
			Driver: "memory",
			Path:   "data/members.db",
		},
		Import: ImportConfig{
			QueueSize:   10_000,
			WorkerCount: runtime.NumCPU(),
			MaxRows:     1_000,
		},
		Auth: AuthConfig{
			Mode:        "mock",
			Required:    false,
			SessionTTL:  24 * time.Hour,
			Timeout:     10 * time.Second,
			Username:    "admin",
			Password:    "password123",
			FullName:    "Vice President - Membership & Training",
			Email:       "vp.membership@jcidanang.com",
			DateOfBirth: "2003-12-04",
			LoginRate:   1,
			LoginBurst:  5,
		},
		Scheduler: SchedulerConfig{
			Enabled:      true,
			BirthdayCron: "0 8 * * *",
			Timezone:     "Local",
		},
	}
}

// Validate checks cross-field rules. Errors wrap ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.IdempotencyKeys < 0:
		return fmt.Errorf("%w: idempotency_keys must be >= 0", ErrInvalidConfig)
	case c.UpcomingDays < 1 || c.UpcomingDays > 366:
		return fmt.Errorf("%w: upcoming_days must be in [1,366]", ErrInvalidConfig)
	case c.Import.QueueSize < 1:
		return fmt.Errorf("%w: import.queue_size must be positive", ErrInvalidConfig)
	case c.Import.MaxRows < 1:
		return fmt.Errorf("%w: import.max_rows must be positive", ErrInvalidConfig)
	}

	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("%w: store.path is required for sqlite", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: %w: store.driver %q", ErrInvalidConfig, ErrUnknownMode, c.Store.Driver)
	}

	switch c.Auth.Mode {
	case "mock":
		if c.Auth.Username == "" || c.Auth.Password == "" {
			return fmt.Errorf("%w: auth.username and auth.password are required in mock mode", ErrInvalidConfig)
		}
	case "remote":
		if c.Auth.BaseURL == "" {
			return fmt.Errorf("%w: auth.base_url is required in remote mode", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: %w: auth.mode %q", ErrInvalidConfig, ErrUnknownMode, c.Auth.Mode)
	}
	if c.Auth.SessionTTL <= 0 {
		return fmt.Errorf("%w: auth.session_ttl must be positive", ErrInvalidConfig)
	}
	if c.Auth.LoginRate <= 0 || c.Auth.LoginBurst < 1 {
		return fmt.Errorf("%w: auth.login_rate and auth.login_burst must be positive", ErrInvalidConfig)
	}

	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.BirthdayCron); err != nil {
			return fmt.Errorf("%w: %w: scheduler.birthday_cron: %w", ErrInvalidConfig, ErrInvalidSchedule, err)
		}
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: scheduler.timezone: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Location resolves Scheduler.Timezone. Errors wrap ErrUnknownTimezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Scheduler.Timezone == "" || c.Scheduler.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrUnknownTimezone, c.Scheduler.Timezone, err)
	}
	return loc, nil
}
