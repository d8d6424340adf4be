// Package availability computes the bookable slot grid for a chair on a
// calendar date: a weekly schedule template expanded into discrete 30-minute
// slot start times, partitioned into available and occupied by the existing
// appointments. Everything here is pure; "now" and all snapshots come from
// the caller.
package availability

import (
	"errors"
	"time"

	"github.com/vibeseat/vibeseat/services/booking-service/internal/model"
)

// SlotLength is the fixed duration of every bookable slot.
const SlotLength = 30 * time.Minute

const slotMinutes = 30

// ErrInvalidRange is returned for a range whose start is not strictly before
// its end. An empty day is a normal result; a backwards range is a
// misconfigured schedule and is reported as such.
var ErrInvalidRange = errors.New("availability: range start must be before end")

// GenerateSlots expands [start, end) into the ordered sequence of slot start
// times: start, start+30m, ... while strictly less than end. The end boundary
// itself never starts a slot. When the range is not a whole number of slots,
// the leftover tail after the last emitted start is not a slot of its own.
func GenerateSlots(start, end model.TimeOfDay) ([]model.TimeOfDay, error) {
	if start >= end {
		return nil, ErrInvalidRange
	}
	slots := make([]model.TimeOfDay, 0, CountSlots(start, end))
	for t := start; t < end; t += slotMinutes {
		slots = append(slots, t)
	}
	return slots, nil
}

// CountSlots returns the number of slot starts in [start, end).
// It always equals len(GenerateSlots(start, end)) for a valid range.
func CountSlots(start, end model.TimeOfDay) int {
	if start >= end {
		return 0
	}
	return (int(end-start) + slotMinutes - 1) / slotMinutes
}
