package application

import (
	"github.com/blogsmith/blogsmith/scheduler/domain"
)

// DueSlot pairs a candidate with one of their time slots due this run.
type DueSlot struct {
	Candidate domain.Candidate
	Slot      domain.TimeSlot
}

// MatchDue filters candidates down to the (user, slot) pairs due for the
// given weekday and hour. Matching is hour-granular: a slot's minutes are
// ignored for the match decision but preserved on the slot for computing
// the exact target instant. A user configured with several times inside the
// same hour matches once per time; pairs come back in discovery order.
func MatchDue(candidates []domain.Candidate, weekday string, hour int) []DueSlot {
	var due []DueSlot
	for _, candidate := range candidates {
		for _, slot := range candidate.Schedule.SlotsFor(weekday) {
			if slot.Hour == hour {
				due = append(due, DueSlot{Candidate: candidate, Slot: slot})
			}
		}
	}
	return due
}
