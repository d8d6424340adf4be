package model

import (
	"fmt"
	"time"
)

// TimeOfDay is a clock time within a day, stored as minutes since midnight.
// It is the currency of the availability engine: slots, schedule ranges and
// wire payloads all use the zero-padded 24h "HH:MM" rendering.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses a zero-padded 24h "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%02d:%02d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return NewTimeOfDay(hour, minute), nil
}

// TimeOfDayOf extracts the clock time of t in its own location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return NewTimeOfDay(t.Hour(), t.Minute())
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// At anchors the clock time on the given calendar date in loc.
func (t TimeOfDay) At(date time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

// TimeRange is a half-open bookable window [Start, End) within a day.
type TimeRange struct {
	Start TimeOfDay
	End   TimeOfDay
}

func (r TimeRange) Valid() bool {
	return r.End > r.Start
}
