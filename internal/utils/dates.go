package utils

import (
	"math"
	"strings"
	"time"
)

// DayLayout is the ISO calendar day format used for day buckets.
const DayLayout = "2006-01-02"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DayLayout,
}

// ParseDate parses a GitHub timestamp or a bare calendar day. Empty or
// malformed input reports false instead of failing. Results are in UTC.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseDeadline parses a due date. A bare calendar day is due until the end
// of that UTC day, so the returned instant is the following midnight.
func ParseDeadline(value string) (time.Time, bool) {
	t, ok := ParseDate(value)
	if !ok {
		return t, false
	}
	if _, err := time.Parse(DayLayout, strings.TrimSpace(value)); err == nil {
		return t.AddDate(0, 0, 1), true
	}
	return t, true
}

// ParseDatePtr is ParseDate returning nil for absent dates.
func ParseDatePtr(value string) *time.Time {
	t, ok := ParseDate(value)
	if !ok {
		return nil
	}
	return &t
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey returns the UTC calendar day of t.
func DayKey(t time.Time) string {
	return t.UTC().Format(DayLayout)
}

// InDay reports whether t falls within [day, day+24h).
func InDay(t, day time.Time) bool {
	start := StartOfDay(day)
	return !t.Before(start) && t.Before(start.AddDate(0, 0, 1))
}

// Earliest folds t into cur keeping the minimum.
func Earliest(cur *time.Time, t time.Time) *time.Time {
	if cur == nil || t.Before(*cur) {
		return &t
	}
	return cur
}

// Latest folds t into cur keeping the maximum.
func Latest(cur *time.Time, t time.Time) *time.Time {
	if cur == nil || t.After(*cur) {
		return &t
	}
	return cur
}

// DaysBetween returns the fractional number of days from start to end.
func DaysBetween(start, end time.Time) float64 {
	return end.Sub(start).Hours() / 24
}

// Round2 rounds f to two decimals.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
