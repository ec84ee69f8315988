package domain

import (
	"encoding/json"
	"fmt"

	clientsDomain "github.com/blogsmith/blogsmith/clients/domain"
	"github.com/blogsmith/blogsmith/pkg/timeutils"
)

var validWeekdays = map[string]bool{
	"monday":    true,
	"tuesday":   true,
	"wednesday": true,
	"thursday":  true,
	"friday":    true,
	"saturday":  true,
	"sunday":    true,
}

// TimeSlot is a single (weekday, time-of-day) entry in a user's schedule.
type TimeSlot struct {
	Weekday string
	Hour    int
	Minute  int
	Raw     string // original "HH:MM" string
}

// WeekSchedule maps lowercase weekday names to the parsed time slots
// configured for that day, in stored order.
type WeekSchedule map[string][]TimeSlot

// SlotsFor returns the slots configured for a weekday ("monday"..."sunday").
func (ws WeekSchedule) SlotsFor(weekday string) []TimeSlot {
	return ws[weekday]
}

// ParseWeekSchedule decodes the serialized schedule of one user. The stored
// format is a JSON object mapping lowercase English weekday names to arrays
// of "HH:MM" 24-hour strings. Any malformed entry fails the whole parse:
// the caller skips that user for the run rather than acting on a partial
// schedule.
func ParseWeekSchedule(raw string) (WeekSchedule, error) {
	if raw == "" {
		return WeekSchedule{}, nil
	}

	var decoded map[string][]string
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("decode week schedule: %w", err)
	}

	schedule := make(WeekSchedule, len(decoded))
	for day, times := range decoded {
		if !validWeekdays[day] {
			return nil, fmt.Errorf("unknown weekday %q in schedule", day)
		}
		slots := make([]TimeSlot, 0, len(times))
		for _, t := range times {
			hour, minute, err := timeutils.ParseClock(t)
			if err != nil {
				return nil, fmt.Errorf("weekday %q: %w", day, err)
			}
			slots = append(slots, TimeSlot{Weekday: day, Hour: hour, Minute: minute, Raw: t})
		}
		schedule[day] = slots
	}

	return schedule, nil
}

// Candidate is a scheduling candidate whose raw schedule has already been
// parsed. Produced by the orchestrator from repository rows, consumed by the
// window matcher.
type Candidate struct {
	User     clientsDomain.User
	Schedule WeekSchedule
	Target   clientsDomain.PublishingTarget
	Plan     clientsDomain.PlanTier
}
