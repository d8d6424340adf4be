package model

import "time"

// Schedule is the weekly availability template: one or more time ranges that
// apply on a set of weekdays, optionally bounded by an inclusive validity
// window. The management API keeps at most one current schedule.
type Schedule struct {
	ID        string
	Ranges    []TimeRange
	Days      []time.Weekday
	ValidFrom *time.Time
	ValidTo   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s Schedule) HasDay(d time.Weekday) bool {
	for _, day := range s.Days {
		if day == d {
			return true
		}
	}
	return false
}
