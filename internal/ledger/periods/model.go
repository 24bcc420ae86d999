package periods

import (
	"fmt"
	"time"
)

// Status enumerates fiscal period states.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Period is a calendar month gating whether entries dated within it may still
// be created or modified.
type Period struct {
	Year       int
	Month      time.Month
	Status     Status
	ClosedAt   *time.Time
	ClosedBy   string
	ReopenedAt *time.Time
	ReopenedBy string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Key renders the canonical period label, e.g. "2026-01".
func (p Period) Key() string {
	return Key(p.Year, p.Month)
}

// Key formats a (year, month) pair as the canonical period label.
func Key(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// Bounds returns the half-open date interval [start, end) covered by the period.
func Bounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// OfDate returns the (year, month) period containing the given date.
func OfDate(date time.Time) (int, time.Month) {
	return date.Year(), date.Month()
}

// Policy resolves the status of periods that were never explicitly created.
// Inside the retention horizon an undefined period is implicitly OPEN; dates
// older than the horizon are treated as CLOSED so ancient history cannot be
// written to by accident.
type Policy struct {
	RetentionYears int
	Now            func() time.Time
}

// ResolveUndefined returns the implicit status for a period with no stored row.
func (p Policy) ResolveUndefined(year int, month time.Month) Status {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	if p.RetentionYears <= 0 {
		return StatusOpen
	}
	_, end := Bounds(year, month)
	horizon := now().UTC().AddDate(-p.RetentionYears, 0, 0)
	if end.Before(horizon) {
		return StatusClosed
	}
	return StatusOpen
}
