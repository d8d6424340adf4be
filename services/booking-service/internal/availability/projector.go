package availability

import (
	"sort"
	"time"

	"github.com/vibeseat/vibeseat/services/booking-service/internal/model"
)

// Projection is the partition of a day's candidate slots for one chair.
// Both lists are ascending; a slot appears in exactly one of them.
type Projection struct {
	Available   []model.TimeOfDay
	Unavailable []model.TimeOfDay
}

func (p Projection) TotalSlots() int {
	return len(p.Available) + len(p.Unavailable)
}

// Project computes the availability partition for one chair on one calendar
// date. appointments must be the chair's appointments on that date; their
// start-time clock values (UTC) mark slots unavailable when the appointment
// still blocks (scheduled or confirmed).
//
// An inactive chair or a schedule that does not apply to the date yields an
// empty projection, not an error: callers render "no slots" for both.
// A backwards time range inside an applicable schedule is a configuration
// error and surfaces as ErrInvalidRange.
func Project(chair model.Chair, sched model.Schedule, date time.Time, appointments []model.Appointment) (Projection, error) {
	if chair.Status != model.ChairActive || !AppliesOn(sched, date) {
		return Projection{}, nil
	}

	var candidates []model.TimeOfDay
	for _, r := range sched.Ranges {
		slots, err := GenerateSlots(r.Start, r.End)
		if err != nil {
			return Projection{}, err
		}
		candidates = append(candidates, slots...)
	}

	occupied := make(map[model.TimeOfDay]bool, len(appointments))
	for _, appt := range appointments {
		if appt.Status.Blocks() {
			occupied[model.TimeOfDayOf(appt.StartTime.UTC())] = true
		}
	}

	var p Projection
	for _, slot := range candidates {
		if occupied[slot] {
			p.Unavailable = append(p.Unavailable, slot)
		} else {
			p.Available = append(p.Available, slot)
		}
	}
	sort.Slice(p.Available, func(i, j int) bool { return p.Available[i] < p.Available[j] })
	sort.Slice(p.Unavailable, func(i, j int) bool { return p.Unavailable[i] < p.Unavailable[j] })
	return p, nil
}
