package availability

import (
	"testing"
	"time"

	"github.com/vibeseat/vibeseat/services/booking-service/internal/model"
)

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02T15:04:05.999", value)
	if err != nil {
		t.Fatalf("bad timestamp %q: %v", value, err)
	}
	return parsed.UTC()
}

func TestActive_WindowBoundaries(t *testing.T) {
	from := ts(t, "2025-01-10T00:00:00")
	to := ts(t, "2025-01-20T23:59:59.999")
	sched := model.Schedule{ValidFrom: &from, ValidTo: &to}

	cases := []struct {
		now  string
		want bool
	}{
		{"2025-01-09T23:59:59", false},
		{"2025-01-10T00:00:00", true},
		{"2025-01-10T00:00:01", true},
		{"2025-01-20T23:59:59", true},
		{"2025-01-21T00:00:01", false},
	}
	for _, tc := range cases {
		if got := Active(sched, ts(t, tc.now)); got != tc.want {
			t.Fatalf("Active at %s: expected %v, got %v", tc.now, tc.want, got)
		}
	}
}

func TestActive_UnboundedSides(t *testing.T) {
	now := ts(t, "2025-06-15T12:00:00")

	if !Active(model.Schedule{}, now) {
		t.Fatal("schedule with no bounds should always be active")
	}

	from := ts(t, "2025-01-01T00:00:00")
	if !Active(model.Schedule{ValidFrom: &from}, now) {
		t.Fatal("open-ended schedule past validFrom should be active")
	}

	to := ts(t, "2025-03-01T23:59:59.999")
	if Active(model.Schedule{ValidTo: &to}, now) {
		t.Fatal("schedule past validTo should be inactive")
	}
}

func TestAppliesOn_WeekdayMembership(t *testing.T) {
	sched := model.Schedule{
		Days: []time.Weekday{time.Monday, time.Wednesday},
	}

	monday := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)
	wednesday := monday.AddDate(0, 0, 2)

	if !AppliesOn(sched, monday) {
		t.Fatal("expected schedule to apply on Monday")
	}
	if AppliesOn(sched, tuesday) {
		t.Fatal("expected schedule not to apply on Tuesday")
	}
	if !AppliesOn(sched, wednesday) {
		t.Fatal("expected schedule to apply on Wednesday")
	}
}

func TestAppliesOn_RespectsWindow(t *testing.T) {
	from := ts(t, "2025-02-01T00:00:00")
	sched := model.Schedule{
		Days:      []time.Weekday{time.Monday},
		ValidFrom: &from,
	}

	// Monday before the window opens.
	early := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	if AppliesOn(sched, early) {
		t.Fatal("schedule should not apply before validFrom")
	}
	// Monday inside the window.
	later := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	if !AppliesOn(sched, later) {
		t.Fatal("schedule should apply after validFrom")
	}
}
