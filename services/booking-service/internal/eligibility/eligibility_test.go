package eligibility

import (
	"testing"
	"time"

	"github.com/vibeseat/vibeseat/services/booking-service/internal/model"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func futureAppt(status model.Status, startIn time.Duration) model.Appointment {
	start := now.Add(startIn)
	return model.Appointment{
		ID:        "appt-1",
		UserID:    "user-1",
		ChairID:   "chair-1",
		StartTime: start,
		EndTime:   start.Add(30 * time.Minute),
		Status:    status,
	}
}

func TestCanCreate_ScheduledBlocks(t *testing.T) {
	existing := []model.Appointment{futureAppt(model.StatusScheduled, 24*time.Hour)}
	d := CanCreate(existing, now)
	if d.Allowed {
		t.Fatal("expected creation to be blocked by scheduled appointment")
	}
	if d.Reason == "" {
		t.Fatal("expected a rejection reason")
	}
}

func TestCanCreate_ConfirmedUpcomingBlocks(t *testing.T) {
	d := CanCreate([]model.Appointment{futureAppt(model.StatusConfirmed, time.Hour)}, now)
	if d.Allowed {
		t.Fatal("expected creation to be blocked by confirmed upcoming appointment")
	}

	// Start exactly now still counts as upcoming.
	d = CanCreate([]model.Appointment{futureAppt(model.StatusConfirmed, 0)}, now)
	if d.Allowed {
		t.Fatal("expected creation to be blocked by appointment starting now")
	}
}

func TestCanCreate_PastAndTerminalDoNotBlock(t *testing.T) {
	existing := []model.Appointment{
		futureAppt(model.StatusCancelled, 2*time.Hour),
		futureAppt(model.StatusCompleted, -48*time.Hour),
		futureAppt(model.StatusConfirmed, -2*time.Hour), // done, reads as completed
	}
	if d := CanCreate(existing, now); !d.Allowed {
		t.Fatalf("expected creation allowed, got reason %q", d.Reason)
	}
}

func TestCanCreate_AllowedAfterCancellation(t *testing.T) {
	appt := futureAppt(model.StatusScheduled, 24*time.Hour)
	if d := CanCreate([]model.Appointment{appt}, now); d.Allowed {
		t.Fatal("expected block while scheduled")
	}
	appt.Status = model.StatusCancelled
	if d := CanCreate([]model.Appointment{appt}, now); !d.Allowed {
		t.Fatalf("expected creation allowed after cancellation, got %q", d.Reason)
	}
}

func TestCanCancel_LeadTime(t *testing.T) {
	if CanCancel(futureAppt(model.StatusScheduled, 2*time.Hour+59*time.Minute), now) {
		t.Fatal("2h59m before start must not be cancellable")
	}
	if !CanCancel(futureAppt(model.StatusScheduled, 3*time.Hour), now) {
		t.Fatal("exactly 3h before start must be cancellable")
	}
	if !CanCancel(futureAppt(model.StatusScheduled, 72*time.Hour), now) {
		t.Fatal("3 days before start must be cancellable")
	}
}

func TestCanCancel_OnlyScheduled(t *testing.T) {
	for _, status := range []model.Status{model.StatusConfirmed, model.StatusCancelled, model.StatusCompleted} {
		if CanCancel(futureAppt(status, 48*time.Hour), now) {
			t.Fatalf("%s appointment must not be user-cancellable", status)
		}
	}
}

func TestCanConfirm(t *testing.T) {
	if !CanConfirm(futureAppt(model.StatusScheduled, time.Hour)) {
		t.Fatal("scheduled appointment must be confirmable")
	}
	for _, status := range []model.Status{model.StatusConfirmed, model.StatusCancelled, model.StatusCompleted} {
		if CanConfirm(futureAppt(status, time.Hour)) {
			t.Fatalf("%s appointment must not be confirmable", status)
		}
	}
}

func TestEffectiveStatus_DerivedCompletion(t *testing.T) {
	past := futureAppt(model.StatusConfirmed, -time.Hour)
	if got := EffectiveStatus(past, now); got != model.StatusCompleted {
		t.Fatalf("confirmed-past should read as completed, got %s", got)
	}
	upcoming := futureAppt(model.StatusConfirmed, time.Hour)
	if got := EffectiveStatus(upcoming, now); got != model.StatusConfirmed {
		t.Fatalf("confirmed-upcoming should stay confirmed, got %s", got)
	}
	scheduledPast := futureAppt(model.StatusScheduled, -time.Hour)
	if got := EffectiveStatus(scheduledPast, now); got != model.StatusScheduled {
		t.Fatalf("scheduled stays scheduled until swept or cancelled, got %s", got)
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]model.Status{
		{model.StatusScheduled, model.StatusConfirmed},
		{model.StatusScheduled, model.StatusCancelled},
		{model.StatusConfirmed, model.StatusCancelled},
		{model.StatusConfirmed, model.StatusCompleted},
	}
	for _, tr := range allowed {
		if !CanTransition(tr[0], tr[1]) {
			t.Fatalf("expected %s -> %s to be allowed", tr[0], tr[1])
		}
	}
	denied := [][2]model.Status{
		{model.StatusCancelled, model.StatusScheduled},
		{model.StatusCancelled, model.StatusConfirmed},
		{model.StatusCompleted, model.StatusCancelled},
		{model.StatusConfirmed, model.StatusScheduled},
	}
	for _, tr := range denied {
		if CanTransition(tr[0], tr[1]) {
			t.Fatalf("expected %s -> %s to be denied", tr[0], tr[1])
		}
	}
}
