package availability

import (
	"errors"
	"testing"

	"github.com/vibeseat/vibeseat/services/booking-service/internal/model"
)

func mustTime(t *testing.T, s string) model.TimeOfDay {
	t.Helper()
	tod, err := model.ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q) failed: %v", s, err)
	}
	return tod
}

func TestGenerateSlots_WholeHour(t *testing.T) {
	slots, err := GenerateSlots(mustTime(t, "09:00"), mustTime(t, "10:00"))
	if err != nil {
		t.Fatalf("GenerateSlots failed: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if slots[0].String() != "09:00" || slots[1].String() != "09:30" {
		t.Fatalf("unexpected slots: %v", slots)
	}
}

func TestGenerateSlots_DropsPartialTail(t *testing.T) {
	slots, err := GenerateSlots(mustTime(t, "09:00"), mustTime(t, "10:15"))
	if err != nil {
		t.Fatalf("GenerateSlots failed: %v", err)
	}
	want := []string{"09:00", "09:30", "10:00"}
	if len(slots) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(slots))
	}
	for i, w := range want {
		if slots[i].String() != w {
			t.Fatalf("slot %d: expected %s, got %s", i, w, slots[i])
		}
	}
}

func TestGenerateSlots_EndBoundaryNotEmitted(t *testing.T) {
	slots, err := GenerateSlots(mustTime(t, "08:00"), mustTime(t, "08:30"))
	if err != nil {
		t.Fatalf("GenerateSlots failed: %v", err)
	}
	if len(slots) != 1 || slots[0].String() != "08:00" {
		t.Fatalf("expected single 08:00 slot, got %v", slots)
	}
}

func TestGenerateSlots_InvalidRange(t *testing.T) {
	if _, err := GenerateSlots(mustTime(t, "10:00"), mustTime(t, "09:00")); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := GenerateSlots(mustTime(t, "09:00"), mustTime(t, "09:00")); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for empty range, got %v", err)
	}
}

func TestGenerateSlots_CountInvariant(t *testing.T) {
	cases := []struct{ start, end string }{
		{"00:00", "23:59"},
		{"09:00", "09:31"},
		{"09:15", "17:45"},
		{"08:00", "12:00"},
		{"22:30", "23:00"},
	}
	for _, tc := range cases {
		start, end := mustTime(t, tc.start), mustTime(t, tc.end)
		slots, err := GenerateSlots(start, end)
		if err != nil {
			t.Fatalf("GenerateSlots(%s, %s) failed: %v", tc.start, tc.end, err)
		}
		if len(slots) != CountSlots(start, end) {
			t.Fatalf("GenerateSlots(%s, %s): %d slots but CountSlots says %d",
				tc.start, tc.end, len(slots), CountSlots(start, end))
		}
	}
}

func TestGenerateSlots_StrictlyAscendingNoDuplicates(t *testing.T) {
	slots, err := GenerateSlots(mustTime(t, "06:05"), mustTime(t, "21:40"))
	if err != nil {
		t.Fatalf("GenerateSlots failed: %v", err)
	}
	for i := 1; i < len(slots); i++ {
		if slots[i] <= slots[i-1] {
			t.Fatalf("slots not strictly ascending at %d: %s then %s", i, slots[i-1], slots[i])
		}
	}
}
