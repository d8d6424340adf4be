package eligibility

import "github.com/vibeseat/vibeseat/services/booking-service/internal/model"

// CanTransition reports whether the appointment state machine permits moving
// from one status to another. Cancelled and completed are terminal.
func CanTransition(from, to model.Status) bool {
	switch from {
	case model.StatusScheduled:
		return to == model.StatusConfirmed || to == model.StatusCancelled
	case model.StatusConfirmed:
		return to == model.StatusCancelled || to == model.StatusCompleted
	default:
		return false
	}
}
