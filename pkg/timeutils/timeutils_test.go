package timeutils

import (
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in         string
		hour, min  int
		expectsErr bool
	}{
		{"14:00", 14, 0, false},
		{"00:05", 0, 5, false},
		{"23:59", 23, 59, false},
		{" 09:30 ", 9, 30, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"-1:00", 0, 0, true},
		{"12", 0, 0, true},
		{"ab:cd", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, c := range cases {
		h, m, err := ParseClock(c.in)
		if c.expectsErr {
			if err == nil {
				t.Errorf("ParseClock(%q) expected error, got %d:%d", c.in, h, m)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q) unexpected error: %v", c.in, err)
			continue
		}
		if h != c.hour || m != c.min {
			t.Errorf("ParseClock(%q) = %d:%d, want %d:%d", c.in, h, m, c.hour, c.min)
		}
	}
}

func TestWeekdayName(t *testing.T) {
	if got := WeekdayName(time.Monday); got != "monday" {
		t.Fatalf("WeekdayName(Monday) = %q", got)
	}
	if got := WeekdayName(time.Sunday); got != "sunday" {
		t.Fatalf("WeekdayName(Sunday) = %q", got)
	}
}

func TestWindowKey(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	ts := time.Date(2026, 3, 9, 1, 30, 0, 0, loc) // 2026-03-08 23:30 UTC

	if got := WindowKey(ts); got != "2026-03-08-23" {
		t.Fatalf("WindowKey() = %q, want %q", got, "2026-03-08-23")
	}
}

func TestTargetInstant(t *testing.T) {
	ref := time.Date(2026, 8, 28, 19, 45, 12, 0, time.UTC)
	got := TargetInstant(ref, 14, 30)
	want := time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("TargetInstant() = %v, want %v", got, want)
	}
}
