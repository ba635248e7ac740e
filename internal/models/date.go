package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for date-only values.
const DateLayout = "2006-01-02"

// DateOf drops the time-of-day of t as observed in t's own location and
// returns the calendar date as midnight UTC. All date-only values in the
// engine use this representation so they compare with Before/After/Equal.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a date-only value.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", raw, err)
	}
	return t, nil
}

// FormatDate renders a date-only value.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Window is the visibility range of a snapshot, both ends inclusive.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Key returns a stable identifier for caching.
func (w Window) Key() string {
	return FormatDate(w.From) + ":" + FormatDate(w.To)
}
