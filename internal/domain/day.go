package domain

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the persisted form of a calendar day.
const DayLayout = "2006-01-02"

// Day truncates t to midnight UTC of its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string, ignoring surrounding whitespace.
func ParseDay(s string) (time.Time, error) {
	day, err := time.Parse(DayLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", s, err)
	}
	return day, nil
}

// FormatDay renders a day as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return Day(t).Format(DayLayout)
}

// AddDays moves a day forward (or back for negative n) by calendar days.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}
