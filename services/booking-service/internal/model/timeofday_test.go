package model

import (
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"00:00", "00:00", false},
		{"09:05", "09:05", false},
		{"23:59", "23:59", false},
		{"24:00", "", true},
		{"12:60", "", true},
		{"9am", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseTimeOfDay(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q) failed: %v", tc.in, err)
		}
		if got.String() != tc.want {
			t.Fatalf("ParseTimeOfDay(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestTimeOfDayAt(t *testing.T) {
	date := time.Date(2025, 5, 20, 22, 45, 11, 0, time.UTC)
	tod := NewTimeOfDay(9, 30)
	anchored := tod.At(date, time.UTC)
	if anchored.Hour() != 9 || anchored.Minute() != 30 {
		t.Fatalf("unexpected anchored time %s", anchored)
	}
	if anchored.Year() != 2025 || anchored.Month() != time.May || anchored.Day() != 20 {
		t.Fatalf("anchored time lost the date: %s", anchored)
	}
	if TimeOfDayOf(anchored) != tod {
		t.Fatalf("round trip mismatch: %s", TimeOfDayOf(anchored))
	}
}

func TestParseStatusFilter(t *testing.T) {
	if f, err := ParseStatusFilter(""); err != nil || !f.All {
		t.Fatalf("empty filter should mean all, got %+v err %v", f, err)
	}
	if f, err := ParseStatusFilter("Scheduled"); err != nil || f.All || f.Status != StatusScheduled {
		t.Fatalf("unexpected scheduled filter %+v err %v", f, err)
	}
	if _, err := ParseStatusFilter("booked"); err == nil {
		t.Fatal("unknown filter must be rejected")
	}
	f, _ := ParseStatusFilter("cancelled")
	if f.Matches(StatusScheduled) || !f.Matches(StatusCancelled) {
		t.Fatal("filter matching broken")
	}
}
