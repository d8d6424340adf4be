// Package eligibility holds the booking-eligibility rules: whether a user may
// create a new appointment and whether an existing one may be cancelled or
// confirmed. All checks are pure predicates over snapshots with an injected
// clock; the database remains the authority and re-validates every mutation.
package eligibility

import (
	"time"

	"github.com/vibeseat/vibeseat/services/booking-service/internal/model"
)

// CancelLeadTime is the minimum interval required between now and an
// appointment's start before the user may cancel it.
const CancelLeadTime = 3 * time.Hour

// Decision is a user-facing verdict. Reason is set only when not allowed.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// CanCreate decides whether a user holding the given appointments may book a
// new slot. A scheduled appointment always blocks; a confirmed one blocks
// only while its start has not passed. Cancelled, completed and
// confirmed-but-past appointments never block.
func CanCreate(existing []model.Appointment, now time.Time) Decision {
	for _, appt := range existing {
		switch EffectiveStatus(appt, now) {
		case model.StatusScheduled:
			return deny("you already have a scheduled appointment")
		case model.StatusConfirmed:
			if !appt.StartTime.Before(now) {
				return deny("you already have a confirmed upcoming appointment")
			}
		}
	}
	return allow()
}

// CanCancel reports whether the user may cancel the appointment: it must
// still be scheduled and start at least CancelLeadTime from now. This is the
// single canonical cancellation rule; confirmed appointments require an
// admin override at the persistence layer.
func CanCancel(appt model.Appointment, now time.Time) bool {
	if appt.Status != model.StatusScheduled {
		return false
	}
	return appt.StartTime.Sub(now) >= CancelLeadTime
}

// CanConfirm reports whether an attendant may confirm presence for the
// appointment. Role enforcement happens at the gateway, not here.
func CanConfirm(appt model.Appointment) bool {
	return appt.Status == model.StatusScheduled
}

// EffectiveStatus classifies an appointment at the given instant: a confirmed
// appointment whose end has passed reads as completed even before the
// background sweep persists the transition.
func EffectiveStatus(appt model.Appointment, now time.Time) model.Status {
	if appt.Status == model.StatusConfirmed && appt.EndTime.Before(now) {
		return model.StatusCompleted
	}
	return appt.Status
}
