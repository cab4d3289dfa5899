package zodiac

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout accepted by ClassifyString.
const DateLayout = "2006-01-02"

// CalendarDate is a structured date of birth. Year 0 means "year unknown";
// it is treated as a leap year so Feb 29 stays classifiable.
type CalendarDate struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// DateOf converts a time to a CalendarDate in the time's own location.
func DateOf(t time.Time) CalendarDate {
	return CalendarDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate parses a "YYYY-MM-DD" string. RFC 3339 timestamps are accepted
// too; only their calendar date in the stated offset is kept.
func ParseDate(s string) (CalendarDate, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return CalendarDate{}, invalid(s, "empty date")
	}
	t, err := time.Parse(DateLayout, raw)
	if err == nil {
		return DateOf(t), nil
	}
	if ts, tsErr := time.Parse(time.RFC3339, raw); tsErr == nil {
		return DateOf(ts), nil
	}
	var pe *time.ParseError
	if errors.As(err, &pe) && strings.Contains(pe.Message, "out of range") {
		return CalendarDate{}, invalid(s, strings.TrimPrefix(pe.Message, ": "))
	}
	return CalendarDate{}, invalid(s, "expected YYYY-MM-DD")
}

// Validate checks that the date exists on the calendar.
func (d CalendarDate) Validate() error {
	if d.Month < time.January || d.Month > time.December {
		return invalid(d.String(), "month out of range")
	}
	if d.Day < 1 || d.Day > daysIn(d.Month, d.Year) {
		return invalid(d.String(), "day out of range")
	}
	return nil
}

// MonthDay drops the year.
func (d CalendarDate) MonthDay() MonthDay {
	return MonthDay{Month: d.Month, Day: d.Day}
}

// String renders the date in DateLayout.
func (d CalendarDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func daysIn(m time.Month, year int) int {
	// Day 0 of the next month normalizes to the last day of m.
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Classification is the sign bundle derived from a date.
type Classification struct {
	Sign    Sign    `json:"sign"`
	Element Element `json:"element"`
	Symbol  string  `json:"symbol"`
}

// Classify maps a calendar date to its sign. Only month and day decide the
// sign; the year is used solely to validate Feb 29.
func Classify(d CalendarDate) (Classification, error) {
	if err := d.Validate(); err != nil {
		return Classification{}, err
	}
	s, ok := SignFor(d.MonthDay())
	if !ok {
		return Classification{}, invalid(d.String(), "no sign covers date")
	}
	return Classification{Sign: s, Element: ElementOf(s), Symbol: s.Symbol()}, nil
}

// ClassifyString parses an ISO-8601 date and classifies it.
func ClassifyString(s string) (Classification, error) {
	d, err := ParseDate(s)
	if err != nil {
		return Classification{}, err
	}
	return Classify(d)
}

// SignFor returns the sign whose range contains md. The bool is false for a
// day that is not on the calendar; Feb 29 is accepted.
func SignFor(md MonthDay) (Sign, bool) {
	if md.Month < time.January || md.Month > time.December || md.Day < 1 || md.Day > daysIn(md.Month, 0) {
		return "", false
	}
	for _, s := range signOrder {
		if signTable[s].dates.Contains(md) {
			return s, true
		}
	}
	return "", false
}
