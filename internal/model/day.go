package model

import (
	"fmt"
	"time"
)

// DayLayout is the calendar-date format stored for habits and the ledger.
const DayLayout = "2006-01-02"

// Day formats t as a calendar date in t's own location.
func Day(t time.Time) string {
	return t.Format(DayLayout)
}

func ParseDay(v string) (time.Time, error) {
	d, err := time.Parse(DayLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("model: invalid day %q: %w", v, err)
	}
	return d, nil
}

// AddDays shifts a calendar date by n days.
func AddDays(day string, n int) (string, error) {
	d, err := ParseDay(day)
	if err != nil {
		return "", err
	}
	return d.AddDate(0, 0, n).Format(DayLayout), nil
}

// SameDay reports whether a and b fall on the same calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return Day(a.In(loc)) == Day(b.In(loc))
}
