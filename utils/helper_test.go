package utils

import (
	"testing"
	"time"
)

func TestDayRange(t *testing.T) {
	from := time.Date(2026, 8, 1, 14, 30, 0, 0, time.UTC)
	to := time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)

	start, end := DayRange(from, to)
	if !start.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start: %v", start)
	}
	// Half-open: the end is midnight after the last day.
	if !end.Equal(time.Date(2026, 8, 4, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end: %v", end)
	}
}

func TestUniqueSlice(t *testing.T) {
	got := UniqueSlice([]int{3, 1, 3, 2, 1})
	if len(got) != 3 {
		t.Fatalf("expected 3 unique values, got %v", got)
	}
}

func TestNewCorrelationId_Distinct(t *testing.T) {
	if NewCorrelationId() == NewCorrelationId() {
		t.Fatal("correlation ids must be unique")
	}
}
