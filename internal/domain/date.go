package domain

import (
	"fmt"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// Date is a calendar date with no time of day, stored as the number of days
// since 1970-01-01. Arithmetic on dates is plain integer arithmetic.
type Date int64

// NewDate returns the Date for the given year, month and day. Out of range
// values are normalised the same way time.Date normalises them.
func NewDate(year int, month time.Month, day int) Date {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay)
}

// DateOf projects an instant to the calendar date it falls on in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return NewDate(t.Date()), nil
}

// Time returns midnight of the date in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	u := time.Unix(int64(d)*secondsPerDay, 0).UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, loc)
}

// Weekday returns the day of the week. 1970-01-01 was a Thursday.
func (d Date) Weekday() time.Weekday {
	return time.Weekday(((int64(d)+4)%7 + 7) % 7)
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return d + Date(n)
}

// Sunday returns the Sunday on or before d.
func (d Date) Sunday() Date {
	return d - Date(d.Weekday())
}

// Saturday returns the Saturday on or after d.
func (d Date) Saturday() Date {
	return d + Date(time.Saturday-d.Weekday())
}

func (d Date) String() string {
	return d.Time(time.UTC).Format(time.DateOnly)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
