package availability

import (
	"time"

	"github.com/vibeseat/vibeseat/services/booking-service/internal/model"
)

// Active reports whether the schedule's validity window covers now.
// Comparisons are exact timestamps with inclusive bounds; the schedule CRUD
// handlers normalize valid_from to 00:00:00 and valid_to to 23:59:59.999 UTC
// before storage, so whole-day inclusivity holds for stored schedules.
func Active(s model.Schedule, now time.Time) bool {
	if s.ValidFrom != nil && now.Before(*s.ValidFrom) {
		return false
	}
	if s.ValidTo != nil && now.After(*s.ValidTo) {
		return false
	}
	return true
}

// AppliesOn reports whether the schedule produces slots on the given calendar
// date: the date's weekday is one of the schedule's days and the validity
// window covers the date.
func AppliesOn(s model.Schedule, date time.Time) bool {
	return s.HasDay(date.Weekday()) && Active(s, date)
}
