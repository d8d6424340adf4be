package model

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Blocks reports whether an appointment in this status occupies its slot.
// Cancelled appointments free the slot; completed ones lie in the past.
func (s Status) Blocks() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// StatusFilter is the explicit filter used by list queries: "all" or one
// concrete status. Unknown strings are rejected rather than ignored.
type StatusFilter struct {
	All    bool
	Status Status
}

func FilterAll() StatusFilter {
	return StatusFilter{All: true}
}

func ParseStatusFilter(raw string) (StatusFilter, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "all":
		return StatusFilter{All: true}, nil
	case string(StatusScheduled):
		return StatusFilter{Status: StatusScheduled}, nil
	case string(StatusConfirmed):
		return StatusFilter{Status: StatusConfirmed}, nil
	case string(StatusCancelled):
		return StatusFilter{Status: StatusCancelled}, nil
	case string(StatusCompleted):
		return StatusFilter{Status: StatusCompleted}, nil
	default:
		return StatusFilter{}, fmt.Errorf("unknown status filter %q", raw)
	}
}

func (f StatusFilter) Matches(s Status) bool {
	return f.All || f.Status == s
}

// Appointment is a booking of one chair for one slot by one user.
// Timestamps are stored and compared in UTC.
type Appointment struct {
	ID                string
	UserID            string
	ChairID           string
	StartTime         time.Time
	EndTime           time.Time
	Status            Status
	PresenceConfirmed bool
	CancelledAt       *time.Time
	CancelReason      string
	CreatedAt         time.Time
}
