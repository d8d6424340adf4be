package main

import "testing"

func TestReminderBody(t *testing.T) {
	body := reminderBody(reminderPayload{
		RemindAt: "2025-03-01T09:00:00Z",
		TemplateData: map[string]any{
			"start_time": "2025-03-01T10:00:00Z",
			"chair_id":   "chair-1",
		},
	})
	want := "Reminder: your massage chair session starts at 2025-03-01T10:00:00Z. Chair: chair-1."
	if body != want {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestReminderBodyFallsBackToRemindAt(t *testing.T) {
	body := reminderBody(reminderPayload{RemindAt: "2025-03-01T09:00:00Z"})
	want := "Reminder: your massage chair session starts at 2025-03-01T09:00:00Z."
	if body != want {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestBookedBody(t *testing.T) {
	body := bookedBody(lifecyclePayload{
		StartTime: "2025-03-01T10:00:00Z",
		ChairID:   "chair-1",
	})
	want := "Your massage chair session is booked for 2025-03-01T10:00:00Z. Chair: chair-1."
	if body != want {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestCancelledBody(t *testing.T) {
	body := cancelledBody(lifecyclePayload{
		StartTime: "2025-03-01T10:00:00Z",
		Reason:    "schedule change",
	})
	want := "Your massage chair session on 2025-03-01T10:00:00Z was cancelled. Reason: schedule change."
	if body != want {
		t.Fatalf("unexpected body: %q", body)
	}

	body = cancelledBody(lifecyclePayload{StartTime: "2025-03-01T10:00:00Z"})
	want = "Your massage chair session on 2025-03-01T10:00:00Z was cancelled."
	if body != want {
		t.Fatalf("unexpected body: %q", body)
	}
}

func TestUserEmail(t *testing.T) {
	if got := userEmail("u-1", "vibeseat.local"); got != "u-1@vibeseat.local" {
		t.Fatalf("unexpected address: %q", got)
	}
}
