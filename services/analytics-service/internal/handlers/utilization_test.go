package handlers

import "testing"

func TestUtilizationPct(t *testing.T) {
	pct, ok := utilizationPct(240, 480)
	if !ok {
		t.Fatal("expected percentage to be computed")
	}
	if pct != 50 {
		t.Fatalf("expected 50, got %v", pct)
	}
}

func TestUtilizationPctDisabled(t *testing.T) {
	if _, ok := utilizationPct(240, 0); ok {
		t.Fatal("expected percentage to be disabled when open minutes is zero")
	}
}

func TestUtilizationPctClamped(t *testing.T) {
	pct, ok := utilizationPct(600, 480)
	if !ok {
		t.Fatal("expected percentage to be computed")
	}
	if pct != 100 {
		t.Fatalf("expected clamp to 100, got %v", pct)
	}

	pct, ok = utilizationPct(-30, 480)
	if !ok {
		t.Fatal("expected percentage to be computed")
	}
	if pct != 0 {
		t.Fatalf("expected 0 for negative minutes, got %v", pct)
	}
}
