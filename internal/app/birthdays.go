package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/zodiachr/internal/domain/model"
	"github.com/okian/zodiachr/internal/domain/zodiac"
	"github.com/okian/zodiachr/pkg/metrics"
)

// Birthday is a member with their next birthday relative to today.
type Birthday struct {
	model.Member
	NextBirthday string `json:"nextBirthday"`
	DaysUntil    int    `json:"daysUntilBirthday"`
	TurningAge   int    `json:"turningAge"`
	Today        bool   `json:"isBirthdayToday"`
}

// today returns the current calendar date in the service timezone.
func (s *Service) today() zodiac.CalendarDate {
	return zodiac.DateOf(s.now().In(s.loc))
}

// BirthdaysToday lists members whose birthday falls on today.
func (s *Service) BirthdaysToday(ctx context.Context) ([]Birthday, error) {
	out, err := s.birthdaysWithin(ctx, 0)
	if err != nil {
		return nil, err
	}
	metrics.UpdateBirthdaysToday(len(out))
	return out, nil
}

// UpcomingBirthdays lists birthdays from today through days ahead, soonest
// first. days == 0 uses the configured default.
func (s *Service) UpcomingBirthdays(ctx context.Context, days int) ([]Birthday, error) {
	if days == 0 {
		days = s.upcomingDays
	}
	if days < 0 || days > maxUpcomingDays {
		return nil, fmt.Errorf("%w: daysAhead must be in [0,%d]", ErrInvalidArgument, maxUpcomingDays)
	}
	return s.birthdaysWithin(ctx, days)
}

func (s *Service) birthdaysWithin(ctx context.Context, days int) ([]Birthday, error) {
	all, err := s.store.All(ctx)
	if err != nil {
		return nil, err
	}
	today := s.today()
	out := []Birthday{}
	for _, m := range all {
		dob, err := m.Birthday()
		if err != nil {
			continue
		}
		next, until := nextBirthday(dob, today)
		if until > days {
			continue
		}
		out = append(out, Birthday{
			Member:       m,
			NextBirthday: next.String(),
			DaysUntil:    until,
			TurningAge:   next.Year - dob.Year,
			Today:        until == 0,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DaysUntil != out[j].DaysUntil {
			return out[i].DaysUntil < out[j].DaysUntil
		}
		return out[i].FullName < out[j].FullName
	})
	return out, nil
}

// nextBirthday returns the first occurrence of dob on or after today and the
// days until it. Feb 29 birthdays are observed on Feb 28 in common years.
func nextBirthday(dob, today zodiac.CalendarDate) (zodiac.CalendarDate, int) {
	from := time.Date(today.Year, today.Month, today.Day, 0, 0, 0, 0, time.UTC)
	next := occurrence(dob, today.Year)
	at := time.Date(next.Year, next.Month, next.Day, 0, 0, 0, 0, time.UTC)
	if at.Before(from) {
		next = occurrence(dob, today.Year+1)
		at = time.Date(next.Year, next.Month, next.Day, 0, 0, 0, 0, time.UTC)
	}
	return next, int(at.Sub(from).Hours() / 24)
}

func occurrence(dob zodiac.CalendarDate, year int) zodiac.CalendarDate {
	d := zodiac.CalendarDate{Year: year, Month: dob.Month, Day: dob.Day}
	if d.Month == time.February && d.Day == 29 && !leap(year) {
		d.Day = 28
	}
	return d
}

func leap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
