// Package engine consolidates class instances into recurring series and
// derives enrollment state, expiration proposals and bulk mutation plans.
// Every function here is pure over a snapshot plus a reference "now".
package engine

import (
	"fmt"
	"strconv"
	"time"

	"github.com/noah-isme/class-series-api/internal/models"
)

// Today returns the calendar date of now in the studio location.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return models.DateOf(now.In(loc))
}

// ParseClock splits an "HH:MM" value.
func ParseClock(v string) (hour, minute int, err error) {
	if !models.ValidClock(v) {
		return 0, 0, fmt.Errorf("invalid clock %q", v)
	}
	hour, _ = strconv.Atoi(v[:2])
	minute, _ = strconv.Atoi(v[3:])
	return hour, minute, nil
}

// EndTimestamp places the wall-clock endTime on date in loc. Malformed
// clocks resolve to the end of that day.
func EndTimestamp(date time.Time, endTime string, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	hour, minute, err := ParseClock(endTime)
	if err != nil {
		return time.Date(y, m, d, 23, 59, 59, 0, loc)
	}
	return time.Date(y, m, d, hour, minute, 0, 0, loc)
}

// AddMonth advances a date by one calendar month, normalising overflow the
// way time.AddDate does (Jan 31 becomes Mar 2 or 3).
func AddMonth(date time.Time) time.Time {
	return date.AddDate(0, 1, 0)
}
