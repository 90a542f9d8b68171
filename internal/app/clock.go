package app

import (
	"fmt"
	"time"
)

// Clock returns the current instant; swapped out in tests.
type Clock func() time.Time

// CivilDate strips the time of day, keeping t's calendar date at 00:00 UTC.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the civil date of now in the UTC+9 reference zone.
func Today(now time.Time) time.Time {
	return CivilDate(now.In(CivilZone))
}

// MonthStart returns the 1st of the given month.
// Out-of-range values are rejected instead of being normalized by time.Date.
func MonthStart(year, month int) (time.Time, error) {
	if year < 1 || year > 9999 {
		return time.Time{}, fmt.Errorf("year %d: %w", year, ErrInvalidDate)
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month %d: %w", month, ErrInvalidDate)
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}

// DayOf returns the given calendar date, failing when the day does not exist in that month.
func DayOf(year, month, day int) (time.Time, error) {
	first, err := MonthStart(year, month)
	if err != nil {
		return time.Time{}, err
	}
	d := first.AddDate(0, 0, day-1)
	if day < 1 || d.Month() != first.Month() {
		return time.Time{}, fmt.Errorf("day %d of %04d-%02d: %w", day, year, month, ErrInvalidDate)
	}
	return d, nil
}

// ParseDate parses a YYYY-MM-DD form value into a civil date.
func ParseDate(value string) (time.Time, error) {
	d, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: %w", value, ErrInvalidDate)
	}
	return d, nil
}
