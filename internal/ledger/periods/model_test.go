package periods

import (
	"testing"
	"time"

	_ "github.com/meridian-erp/meridian-erp/testing"
)

func TestKey(t *testing.T) {
	if got := Key(2026, time.January); got != "2026-01" {
		t.Fatalf("got %s", got)
	}
	if got := Key(999, time.December); got != "0999-12" {
		t.Fatalf("got %s", got)
	}
}

func TestBoundsHalfOpen(t *testing.T) {
	start, end := Bounds(2026, time.January)
	if !start.Equal(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %s", start)
	}
	if !end.Equal(time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %s", end)
	}

	// December rolls into the next year.
	_, end = Bounds(2026, time.December)
	if !end.Equal(time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("december end = %s", end)
	}
}

func TestOfDate(t *testing.T) {
	year, month := OfDate(time.Date(2026, time.March, 31, 23, 59, 0, 0, time.UTC))
	if year != 2026 || month != time.March {
		t.Fatalf("got %d-%d", year, month)
	}
}

func TestPolicyResolveUndefined(t *testing.T) {
	now := func() time.Time { return time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC) }
	policy := Policy{RetentionYears: 10, Now: now}

	if got := policy.ResolveUndefined(2026, time.July); got != StatusOpen {
		t.Fatalf("recent period should be open, got %s", got)
	}
	if got := policy.ResolveUndefined(2017, time.January); got != StatusOpen {
		t.Fatalf("period inside horizon should be open, got %s", got)
	}
	if got := policy.ResolveUndefined(2015, time.December); got != StatusClosed {
		t.Fatalf("period outside horizon should be closed, got %s", got)
	}

	unbounded := Policy{RetentionYears: 0, Now: now}
	if got := unbounded.ResolveUndefined(1900, time.January); got != StatusOpen {
		t.Fatalf("zero retention disables the horizon, got %s", got)
	}
}
