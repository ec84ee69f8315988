package application

import (
	"testing"

	clientsDomain "github.com/blogsmith/blogsmith/clients/domain"
	"github.com/blogsmith/blogsmith/scheduler/domain"
)

func mustSchedule(t *testing.T, raw string) domain.WeekSchedule {
	t.Helper()
	schedule, err := domain.ParseWeekSchedule(raw)
	if err != nil {
		t.Fatalf("bad test schedule %q: %v", raw, err)
	}
	return schedule
}

func TestMatchDueHourGranular(t *testing.T) {
	candidates := []domain.Candidate{
		{
			User:     clientsDomain.User{ID: "exact"},
			Schedule: mustSchedule(t, `{"monday":["09:00"]}`),
		},
		{
			User:     clientsDomain.User{ID: "same-hour-late-minute"},
			Schedule: mustSchedule(t, `{"monday":["09:45"]}`),
		},
		{
			User:     clientsDomain.User{ID: "other-hour"},
			Schedule: mustSchedule(t, `{"monday":["10:00"]}`),
		},
		{
			User:     clientsDomain.User{ID: "other-day"},
			Schedule: mustSchedule(t, `{"tuesday":["09:00"]}`),
		},
	}

	due := MatchDue(candidates, "monday", 9)
	if len(due) != 2 {
		t.Fatalf("expected 2 due slots, got %d", len(due))
	}
	if due[0].Candidate.User.ID != "exact" || due[1].Candidate.User.ID != "same-hour-late-minute" {
		t.Fatalf("unexpected order or selection: %s, %s", due[0].Candidate.User.ID, due[1].Candidate.User.ID)
	}
	// Minutes are preserved on the slot for the target instant.
	if due[1].Slot.Minute != 45 {
		t.Fatalf("expected minute 45 preserved, got %d", due[1].Slot.Minute)
	}
}

func TestMatchDueMultipleSlotsSameHour(t *testing.T) {
	candidates := []domain.Candidate{
		{
			User:     clientsDomain.User{ID: "busy"},
			Schedule: mustSchedule(t, `{"friday":["17:00","17:30"]}`),
		},
	}

	due := MatchDue(candidates, "friday", 17)
	if len(due) != 2 {
		t.Fatalf("two slots in the same hour must both match, got %d", len(due))
	}
	if due[0].Slot.Raw != "17:00" || due[1].Slot.Raw != "17:30" {
		t.Fatalf("slots must come back in stored order: %s, %s", due[0].Slot.Raw, due[1].Slot.Raw)
	}
}

func TestMatchDueEmptyInputs(t *testing.T) {
	if due := MatchDue(nil, "monday", 9); len(due) != 0 {
		t.Fatalf("expected no slots for no candidates, got %d", len(due))
	}

	candidates := []domain.Candidate{
		{User: clientsDomain.User{ID: "no-schedule"}, Schedule: domain.WeekSchedule{}},
	}
	if due := MatchDue(candidates, "monday", 9); len(due) != 0 {
		t.Fatalf("expected no slots for an empty schedule, got %d", len(due))
	}
}
