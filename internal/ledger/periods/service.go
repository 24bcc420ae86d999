package periods

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

var (
	// ErrInvalidMonth indicates a month outside 1..12.
	ErrInvalidMonth = errors.New("periods: month must be between 1 and 12")
	// ErrAlreadyClosed indicates the period is already closed.
	ErrAlreadyClosed = errors.New("periods: period already closed")
	// ErrNotClosed indicates a reopen on a period that is not closed.
	ErrNotClosed = errors.New("periods: period is not closed")
)

// DraftsRemainError rejects a close while unposted drafts are dated inside the
// period; drafts must be posted or discarded first.
type DraftsRemainError struct {
	Year   int
	Month  time.Month
	Drafts int64
}

func (e DraftsRemainError) Error() string {
	return fmt.Sprintf("periods: %s has %d draft entries; post or discard them before closing", Key(e.Year, e.Month), e.Drafts)
}

// AuditPort records period lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service is the fiscal period controller: it owns the OPEN/CLOSED state
// machine and the implicit-status policy for periods never created.
type Service struct {
	repo   *Repository
	audit  AuditPort
	policy Policy
	now    func() time.Time
}

// NewService constructs the controller.
func NewService(repo *Repository, audit AuditPort, policy Policy) *Service {
	s := &Service{repo: repo, audit: audit, policy: policy, now: time.Now}
	if policy.Now != nil {
		s.now = policy.Now
	}
	return s
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
		s.policy.Now = now
	}
}

// Policy exposes the implicit-status policy for callers that must resolve
// period state inside their own transaction.
func (s *Service) Policy() Policy {
	return s.policy
}

// Status reports the effective status of a period, resolving undefined
// periods through the retention policy.
func (s *Service) Status(ctx context.Context, year int, month time.Month) (Status, error) {
	if month < time.January || month > time.December {
		return "", ErrInvalidMonth
	}
	period, found, err := s.repo.Get(ctx, year, month)
	if err != nil {
		return "", err
	}
	if !found {
		return s.policy.ResolveUndefined(year, month), nil
	}
	return period.Status, nil
}

// List returns all explicitly created periods.
func (s *Service) List(ctx context.Context) ([]Period, error) {
	return s.repo.List(ctx)
}

// Close transitions a period to CLOSED. It fails while DRAFT entries remain
// dated inside the period so unposted work is never silently orphaned.
func (s *Service) Close(ctx context.Context, year int, month time.Month, actor string) error {
	if month < time.January || month > time.December {
		return ErrInvalidMonth
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		period, err := s.repo.LockPeriod(ctx, tx, year, month, s.policy.ResolveUndefined(year, month))
		if err != nil {
			return err
		}
		if period.Status == StatusClosed {
			return ErrAlreadyClosed
		}
		from, to := Bounds(year, month)
		drafts, err := s.repo.CountDraftEntries(ctx, tx, from, to)
		if err != nil {
			return err
		}
		if drafts > 0 {
			return DraftsRemainError{Year: year, Month: month, Drafts: drafts}
		}
		return s.repo.SetClosed(ctx, tx, year, month, actor, s.now())
	})
	if err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Actor:    actor,
			Action:   "period.close",
			Entity:   "fiscal_period",
			EntityID: Key(year, month),
			At:       s.now(),
		})
	}
	return nil
}

// Reopen transitions a CLOSED period back to OPEN. It is always permitted but
// is a privileged escape hatch: every invocation is individually audited with
// the supplied reason.
func (s *Service) Reopen(ctx context.Context, year int, month time.Month, actor, reason string) error {
	if month < time.January || month > time.December {
		return ErrInvalidMonth
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		period, err := s.repo.LockPeriod(ctx, tx, year, month, s.policy.ResolveUndefined(year, month))
		if err != nil {
			return err
		}
		if period.Status != StatusClosed {
			return ErrNotClosed
		}
		return s.repo.SetOpen(ctx, tx, year, month, actor, s.now())
	})
	if err != nil {
		return err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Actor:    actor,
			Action:   "period.reopen",
			Entity:   "fiscal_period",
			EntityID: Key(year, month),
			Meta:     map[string]any{"reason": reason},
			At:       s.now(),
		})
	}
	return nil
}
