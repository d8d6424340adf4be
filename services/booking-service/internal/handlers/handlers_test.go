package handlers

import (
	"testing"
	"time"
)

func TestBuildPaginationMeta(t *testing.T) {
	meta := buildPaginationMeta(2, 10, 35)
	if meta.TotalPages != 4 || meta.LastPage != 4 {
		t.Fatalf("expected 4 pages, got %+v", meta)
	}
	if !meta.HasNextPage || !meta.HasPrevPage {
		t.Fatalf("page 2 of 4 should have both neighbours: %+v", meta)
	}
	if meta.NextPage == nil || *meta.NextPage != 3 {
		t.Fatalf("expected next_page 3, got %v", meta.NextPage)
	}
	if meta.PrevPage == nil || *meta.PrevPage != 1 {
		t.Fatalf("expected prev_page 1, got %v", meta.PrevPage)
	}
}

func TestBuildPaginationMetaFirstAndLast(t *testing.T) {
	first := buildPaginationMeta(1, 10, 35)
	if first.HasPrevPage || first.PrevPage != nil {
		t.Fatalf("first page should have no prev: %+v", first)
	}
	last := buildPaginationMeta(4, 10, 35)
	if last.HasNextPage || last.NextPage != nil {
		t.Fatalf("last page should have no next: %+v", last)
	}
}

func TestBuildPaginationMetaEmpty(t *testing.T) {
	meta := buildPaginationMeta(1, 10, 0)
	if meta.TotalPages != 0 || meta.HasNextPage || meta.HasPrevPage {
		t.Fatalf("empty result should have no pages: %+v", meta)
	}
}

func TestParseValidityWindowNormalizesDayEdges(t *testing.T) {
	from, to, err := parseValidityWindow("2025-01-10", "2025-01-20")
	if err != nil {
		t.Fatalf("parseValidityWindow failed: %v", err)
	}
	if from == nil || !from.Equal(time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("valid_from not normalized to midnight: %v", from)
	}
	want := time.Date(2025, 1, 20, 23, 59, 59, 999000000, time.UTC)
	if to == nil || !to.Equal(want) {
		t.Fatalf("valid_to not normalized to end of day: %v", to)
	}
}

func TestParseValidityWindowOptionalBounds(t *testing.T) {
	from, to, err := parseValidityWindow("", "")
	if err != nil || from != nil || to != nil {
		t.Fatalf("empty bounds should yield nils: %v %v %v", from, to, err)
	}
	if _, _, err := parseValidityWindow("2025-01-20", "2025-01-10"); err == nil {
		t.Fatal("expected error for inverted window")
	}
	if _, _, err := parseValidityWindow("not-a-date", ""); err == nil {
		t.Fatal("expected error for malformed valid_from")
	}
}

func TestParseValidityWindowSingleDay(t *testing.T) {
	from, to, err := parseValidityWindow("2025-01-10", "2025-01-10")
	if err != nil {
		t.Fatalf("single-day window should be valid: %v", err)
	}
	if !from.Before(*to) {
		t.Fatalf("normalized single-day window must span the day: %v .. %v", from, to)
	}
}
