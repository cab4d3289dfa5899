package scheduler

import (
	"context"
	"fmt"

	service "github.com/okian/zodiachr/internal/app"
	"github.com/okian/zodiachr/pkg/logger"
	"github.com/okian/zodiachr/pkg/metrics"
)

// BirthdaySource lists today's birthdays.
type BirthdaySource interface {
	BirthdaysToday(ctx context.Context) ([]service.Birthday, error)
}

// BirthdayDigest logs the members celebrating today.
type BirthdayDigest struct {
	src BirthdaySource
	log logger.Logger
}

func NewBirthdayDigest(src BirthdaySource, log logger.Logger) *BirthdayDigest {
	if log == nil {
		log = logger.Get().Named("birthday-digest")
	}
	return &BirthdayDigest{src: src, log: log}
}

func (d *BirthdayDigest) Name() string { return "birthday-digest" }

func (d *BirthdayDigest) Run(ctx context.Context) error {
	metrics.RecordBirthdayDigestRun()
	list, err := d.src.BirthdaysToday(ctx)
	if err != nil {
		metrics.RecordErrorByComponent("scheduler", "birthday_digest")
		return fmt.Errorf("load birthdays: %w", err)
	}
	metrics.UpdateBirthdaysToday(len(list))
	if len(list) == 0 {
		d.log.Info(ctx, "no birthdays today")
		return nil
	}
	for _, b := range list {
		d.log.Info(ctx, "birthday today",
			logger.Int64("id", b.ID),
			logger.String("code", b.MemberCode),
			logger.String("name", b.FullName),
			logger.Int("turning", b.TurningAge),
			logger.String("sign", b.ZodiacSign.Display()),
		)
	}
	return nil
}
