package timeutils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseClock parses a 24-hour "HH:MM" string into its hour and minute parts.
func ParseClock(value string) (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time format %q, expected HH:MM", value)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}

	if hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("hour must be between 0 and 23, got %d", hour)
	}
	if minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("minute must be between 0 and 59, got %d", minute)
	}

	return hour, minute, nil
}

// WeekdayName returns the lowercase English weekday name used as a key in
// stored schedules ("monday"..."sunday").
func WeekdayName(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// IsWeekdayName reports whether name is a lowercase English weekday name.
func IsWeekdayName(name string) bool {
	switch name {
	case "monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday":
		return true
	}
	return false
}

// WindowKey formats the hour bucket a scheduler run is responsible for,
// e.g. "2026-08-28-14". Always UTC.
func WindowKey(t time.Time) string {
	return t.UTC().Format("2006-01-02-15")
}

// TargetInstant returns today's date (relative to ref, UTC) at hour:minute.
func TargetInstant(ref time.Time, hour, minute int) time.Time {
	ref = ref.UTC()
	return time.Date(ref.Year(), ref.Month(), ref.Day(), hour, minute, 0, 0, time.UTC)
}
