package availability

import (
	"testing"
	"time"

	"github.com/vibeseat/vibeseat/services/booking-service/internal/model"
)

func weeklySchedule(t *testing.T, days []time.Weekday, ranges ...[2]string) model.Schedule {
	t.Helper()
	sched := model.Schedule{ID: "sched-1", Days: days}
	for _, r := range ranges {
		sched.Ranges = append(sched.Ranges, model.TimeRange{
			Start: mustTime(t, r[0]),
			End:   mustTime(t, r[1]),
		})
	}
	return sched
}

func appt(t *testing.T, start time.Time, status model.Status) model.Appointment {
	t.Helper()
	return model.Appointment{
		ID:        "appt-" + start.Format("1504"),
		ChairID:   "chair-1",
		StartTime: start,
		EndTime:   start.Add(SlotLength),
		Status:    status,
	}
}

func TestProject_EndToEnd(t *testing.T) {
	// Monday schedule 08:00-09:00, one confirmed appointment at 08:30.
	monday := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	sched := weeklySchedule(t, []time.Weekday{time.Monday}, [2]string{"08:00", "09:00"})
	chair := model.Chair{ID: "chair-1", Status: model.ChairActive}
	booked := appt(t, monday.Add(8*time.Hour+30*time.Minute), model.StatusConfirmed)

	p, err := Project(chair, sched, monday, []model.Appointment{booked})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if len(p.Available) != 1 || p.Available[0].String() != "08:00" {
		t.Fatalf("expected available=[08:00], got %v", p.Available)
	}
	if len(p.Unavailable) != 1 || p.Unavailable[0].String() != "08:30" {
		t.Fatalf("expected unavailable=[08:30], got %v", p.Unavailable)
	}
}

func TestProject_InactiveChairAlwaysEmpty(t *testing.T) {
	monday := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	sched := weeklySchedule(t, []time.Weekday{time.Monday}, [2]string{"08:00", "12:00"})

	for _, status := range []model.ChairStatus{model.ChairMaintenance, model.ChairInactive} {
		chair := model.Chair{ID: "chair-1", Status: status}
		p, err := Project(chair, sched, monday, nil)
		if err != nil {
			t.Fatalf("Project failed for %s chair: %v", status, err)
		}
		if len(p.Available) != 0 || len(p.Unavailable) != 0 {
			t.Fatalf("%s chair should project no slots, got %+v", status, p)
		}
	}
}

func TestProject_InapplicableDateEmpty(t *testing.T) {
	sunday := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	sched := weeklySchedule(t, []time.Weekday{time.Monday}, [2]string{"08:00", "12:00"})
	chair := model.Chair{ID: "chair-1", Status: model.ChairActive}

	p, err := Project(chair, sched, sunday, nil)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if p.TotalSlots() != 0 {
		t.Fatalf("expected empty projection on inapplicable day, got %+v", p)
	}
}

func TestProject_CancelledFreesSlot(t *testing.T) {
	monday := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	sched := weeklySchedule(t, []time.Weekday{time.Monday}, [2]string{"08:00", "09:00"})
	chair := model.Chair{ID: "chair-1", Status: model.ChairActive}
	cancelled := appt(t, monday.Add(8*time.Hour), model.StatusCancelled)

	p, err := Project(chair, sched, monday, []model.Appointment{cancelled})
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}
	if len(p.Unavailable) != 0 {
		t.Fatalf("cancelled appointment must not block, got unavailable=%v", p.Unavailable)
	}
	if len(p.Available) != 2 {
		t.Fatalf("expected both slots available, got %v", p.Available)
	}
}

func TestProject_PartitionCompleteness(t *testing.T) {
	monday := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	sched := weeklySchedule(t, []time.Weekday{time.Monday},
		[2]string{"08:00", "12:00"}, [2]string{"13:00", "17:00"})
	chair := model.Chair{ID: "chair-1", Status: model.ChairActive}

	appts := []model.Appointment{
		appt(t, monday.Add(9*time.Hour), model.StatusScheduled),
		appt(t, monday.Add(14*time.Hour+30*time.Minute), model.StatusConfirmed),
	}

	p, err := Project(chair, sched, monday, appts)
	if err != nil {
		t.Fatalf("Project failed: %v", err)
	}

	wantTotal := CountSlots(mustTime(t, "08:00"), mustTime(t, "12:00")) +
		CountSlots(mustTime(t, "13:00"), mustTime(t, "17:00"))
	if p.TotalSlots() != wantTotal {
		t.Fatalf("expected %d slots total, got %d", wantTotal, p.TotalSlots())
	}

	seen := map[model.TimeOfDay]bool{}
	for _, s := range append(append([]model.TimeOfDay{}, p.Available...), p.Unavailable...) {
		if seen[s] {
			t.Fatalf("slot %s appears in both partitions", s)
		}
		seen[s] = true
	}
	if len(p.Unavailable) != 2 {
		t.Fatalf("expected 2 occupied slots, got %v", p.Unavailable)
	}
}

func TestProject_BackwardsRangeSurfacesError(t *testing.T) {
	monday := time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)
	sched := weeklySchedule(t, []time.Weekday{time.Monday}, [2]string{"12:00", "08:00"})
	chair := model.Chair{ID: "chair-1", Status: model.ChairActive}

	if _, err := Project(chair, sched, monday, nil); err == nil {
		t.Fatal("expected error for backwards range")
	}
}
