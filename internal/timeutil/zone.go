package timeutil

import (
	"time"
)

// Zone is the business time zone used for "today" and report ranges. Defaults to UTC.
var Zone = time.UTC

// SetZone switches the business zone. Unknown names fall back to UTC.
func SetZone(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		Zone = time.UTC
		return err
	}
	Zone = loc
	return nil
}

// Now returns the current time in the business zone
func Now() time.Time {
	return time.Now().In(Zone)
}

// ParseDate parses a YYYY-MM-DD date as midnight in the business zone
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, Zone)
}

// StartOfDay returns 00:00:00 of t's day in the business zone
func StartOfDay(t time.Time) time.Time {
	z := t.In(Zone)
	return time.Date(z.Year(), z.Month(), z.Day(), 0, 0, 0, 0, Zone)
}

// EndOfDay returns the last nanosecond of t's day in the business zone
func EndOfDay(t time.Time) time.Time {
	z := t.In(Zone)
	return time.Date(z.Year(), z.Month(), z.Day(), 23, 59, 59, 999999999, Zone)
}

// DayRange resolves optional from/to query values (YYYY-MM-DD) into an inclusive range.
// Missing bounds default to today.
func DayRange(from, to string) (time.Time, time.Time, error) {
	today := Now()
	start, end := StartOfDay(today), EndOfDay(today)

	if from != "" {
		t, err := ParseDate(from)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = StartOfDay(t)
	}
	if to != "" {
		t, err := ParseDate(to)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = EndOfDay(t)
	}
	return start, end, nil
}

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
	DisplayLayout  = "02 Jan 2006, 03:04 PM"
)
