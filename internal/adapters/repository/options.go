package repository

import (
	"time"

	"github.com/okian/zodiachr/pkg/logger"
)

type options struct {
	now    func() time.Time
	logger logger.Logger
}

func defaultOptions() options {
	return options{
		now:    time.Now,
		logger: logger.Get().Named("repository"),
	}
}

// Option applies a configuration option to a Store.
type Option func(*options)

// WithClock overrides the time source used for CreatedAt/UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
