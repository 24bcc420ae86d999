package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/ledger/periods"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, entryID uuid.UUID) (JournalEntry, error)
	Find(ctx context.Context, filter Filter) ([]JournalEntry, error)
}

// AuditPort records ledger events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts posting-engine outcomes and detected stored
// inconsistencies.
type MetricsPort interface {
	RecordPosting(action, outcome string)
	RecordIntegrityFault()
}

// CacheBuster invalidates read models after a successful state transition.
type CacheBuster interface {
	Bump(ctx context.Context) error
}

// Service is the posting engine: the sole authority for creating, posting,
// voiding, and reversing journal entries. Each state transition is one
// repeatable-read transaction; nothing outside this service mutates entries.
type Service struct {
	repo    RepositoryPort
	audit   AuditPort
	metrics MetricsPort
	reports CacheBuster
	policy  periods.Policy
	now     func() time.Time
}

// NewService constructs the posting engine.
func NewService(repo RepositoryPort, audit AuditPort, policy periods.Policy) *Service {
	return &Service{repo: repo, audit: audit, policy: policy, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
		s.policy.Now = now
	}
}

// WithMetrics attaches a posting-outcome recorder.
func (s *Service) WithMetrics(m MetricsPort) { s.metrics = m }

// WithReportCache attaches the read-model cache busted after every transition.
func (s *Service) WithReportCache(c CacheBuster) { s.reports = c }

func (s *Service) record(action string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	s.metrics.RecordPosting(action, outcome)
}

func (s *Service) auditLog(ctx context.Context, actor, action string, entry JournalEntry, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Actor:    actor,
		Action:   action,
		Entity:   "journal_entry",
		EntityID: entry.ID.String(),
		Meta:     meta,
		At:       s.now(),
	})
}

func (s *Service) bustReports(ctx context.Context) {
	if s.reports != nil {
		_ = s.reports.Bump(ctx)
	}
}

// integrityFault counts and wraps a stored inconsistency. The ledger is never
// auto-corrected; the fault is surfaced to the caller and the metric.
func (s *Service) integrityFault(entry JournalEntry, cause error) error {
	if s.metrics != nil {
		s.metrics.RecordIntegrityFault()
	}
	return IntegrityFaultError{EntryID: entry.ID, Detail: cause.Error()}
}

// ensurePeriodOpen locks the fiscal period inside the transaction,
// materializing it with the policy-resolved implicit status when no row
// exists yet. Locking (rather than just reading) means a concurrent close of
// the same period serializes against this posting instead of racing it.
func (s *Service) ensurePeriodOpen(ctx context.Context, tx TxRepository, date time.Time) error {
	year, month := periods.OfDate(date)
	period, err := tx.LockPeriod(ctx, year, month, s.policy.ResolveUndefined(year, month))
	if err != nil {
		return err
	}
	if period.Status == periods.StatusClosed {
		return PeriodClosedError{Year: year, Month: month}
	}
	return nil
}

func (s *Service) ensureAccountsExist(ctx context.Context, tx TxRepository, in EntryInput) error {
	missing, err := tx.MissingAccounts(ctx, in.accountIDs())
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return AccountNotFoundError{AccountIDs: missing}
	}
	return nil
}

// CreateDraft stores a new DRAFT entry after structural validation only.
// Balance is not required yet; drafts may be built up incrementally.
func (s *Service) CreateDraft(ctx context.Context, in EntryInput) (JournalEntry, error) {
	if err := in.ValidateStructural(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.ensureAccountsExist(ctx, tx, in); err != nil {
			return err
		}
		inserted, err := tx.InsertEntry(ctx, in, EntryStatusDraft, nil)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, inserted.ID, in.Lines); err != nil {
			return err
		}
		entry = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.auditLog(ctx, in.CreatedBy, "journal.draft", entry, map[string]any{
		"number":    FormatEntryNumber(entry.Number),
		"reference": in.Reference,
	})
	return entry, nil
}

// Post transitions a DRAFT entry to POSTED. All five posting invariants are
// re-validated against current registry and period state inside a single
// transaction; concurrent posts of the same draft leave exactly one winner.
func (s *Service) Post(ctx context.Context, entryID uuid.UUID, actor string) (JournalEntry, error) {
	if entryID == uuid.Nil {
		return JournalEntry{}, errors.New("ledger: entry id required")
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, lines, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		switch current.Status {
		case EntryStatusPosted:
			return ErrAlreadyPosted
		case EntryStatusVoided:
			return ErrVoided
		}
		in := EntryInput{Date: current.Date, Lines: linesToInput(lines)}
		if err := in.ValidateStructural(); err != nil {
			return err
		}
		if err := in.ValidateBalanced(); err != nil {
			return err
		}
		if err := s.ensureAccountsExist(ctx, tx, in); err != nil {
			return err
		}
		if err := s.ensurePeriodOpen(ctx, tx, current.Date); err != nil {
			return err
		}
		now := s.now()
		updated, err := tx.MarkPosted(ctx, entryID, now)
		if err != nil {
			return err
		}
		if !updated {
			return ErrAlreadyPosted
		}
		entry = current
		entry.Status = EntryStatusPosted
		entry.PostedAt = &now
		entry.Lines = lines
		return nil
	})
	s.record("post", err)
	if err != nil {
		return JournalEntry{}, err
	}
	s.bustReports(ctx)
	s.auditLog(ctx, actor, "journal.post", entry, map[string]any{
		"number": FormatEntryNumber(entry.Number),
	})
	return entry, nil
}

// Submit creates and posts a fully-specified entry in one transaction. This
// is the surface collaborating modules call; they never see a half-born
// entry.
func (s *Service) Submit(ctx context.Context, in EntryInput) (JournalEntry, error) {
	if err := in.ValidateStructural(); err != nil {
		return JournalEntry{}, err
	}
	if err := in.ValidateBalanced(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := s.ensureAccountsExist(ctx, tx, in); err != nil {
			return err
		}
		if err := s.ensurePeriodOpen(ctx, tx, in.Date); err != nil {
			return err
		}
		now := s.now()
		inserted, err := tx.InsertEntry(ctx, in, EntryStatusPosted, &now)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, inserted.ID, in.Lines); err != nil {
			return err
		}
		entry = inserted
		return nil
	})
	s.record("submit", err)
	if err != nil {
		return JournalEntry{}, err
	}
	s.bustReports(ctx)
	s.auditLog(ctx, in.CreatedBy, "journal.post", entry, map[string]any{
		"number":    FormatEntryNumber(entry.Number),
		"reference": in.Reference,
	})
	return entry, nil
}

// Void marks a POSTED entry as VOIDED. Lines are preserved unchanged for the
// audit trail; only entries dated in a non-closed period can be voided.
func (s *Service) Void(ctx context.Context, entryID uuid.UUID, reason, actor string) (JournalEntry, error) {
	if entryID == uuid.Nil {
		return JournalEntry{}, errors.New("ledger: entry id required")
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, lines, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if current.Status != EntryStatusPosted {
			return ErrNotPosted
		}
		if err := s.ensurePeriodOpen(ctx, tx, current.Date); err != nil {
			return err
		}
		updated, err := tx.MarkVoided(ctx, entryID, reason, s.now())
		if err != nil {
			return err
		}
		if !updated {
			return ErrConcurrencyConflict
		}
		entry = current
		entry.Status = EntryStatusVoided
		entry.VoidReason = reason
		entry.Lines = lines
		return nil
	})
	s.record("void", err)
	if err != nil {
		return JournalEntry{}, err
	}
	s.bustReports(ctx)
	s.auditLog(ctx, actor, "journal.void", entry, map[string]any{
		"number": FormatEntryNumber(entry.Number),
		"reason": reason,
	})
	return entry, nil
}

// Reverse creates and posts a fresh entry with every line's debit and credit
// swapped. It is the correction path when the original period is closed: the
// compensating effect lands in a currently open period instead of rewriting
// history. targetDate defaults to the current time.
func (s *Service) Reverse(ctx context.Context, entryID uuid.UUID, targetDate *time.Time, actor string) (JournalEntry, error) {
	if entryID == uuid.Nil {
		return JournalEntry{}, errors.New("ledger: entry id required")
	}
	var reversal JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		original, lines, err := tx.GetEntryForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if original.Status != EntryStatusPosted {
			return ErrNotPosted
		}
		date := s.now()
		if targetDate != nil {
			date = *targetDate
		}
		if err := s.ensurePeriodOpen(ctx, tx, date); err != nil {
			return err
		}
		posting := EntryInput{
			Date:        date,
			Description: fmt.Sprintf("Reversal of %s", FormatEntryNumber(original.Number)),
			Reference:   original.Reference,
			CreatedBy:   actor,
			Lines:       reverseLines(lines),
		}
		// The stored lines already passed validation at posting time, so a
		// failure here means the stored entry is corrupt. Surface it instead
		// of reposting the corruption.
		if err := posting.ValidateStructural(); err != nil {
			return s.integrityFault(original, err)
		}
		if err := posting.ValidateBalanced(); err != nil {
			return s.integrityFault(original, err)
		}
		now := s.now()
		inserted, err := tx.InsertEntry(ctx, posting, EntryStatusPosted, &now)
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, inserted.ID, posting.Lines); err != nil {
			return err
		}
		reversal = inserted
		return nil
	})
	s.record("reverse", err)
	if err != nil {
		return JournalEntry{}, err
	}
	s.bustReports(ctx)
	s.auditLog(ctx, actor, "journal.reverse", reversal, map[string]any{
		"number":   FormatEntryNumber(reversal.Number),
		"reversed": entryID.String(),
	})
	return reversal, nil
}

// Get returns an entry with its lines.
func (s *Service) Get(ctx context.Context, entryID uuid.UUID) (JournalEntry, error) {
	if entryID == uuid.Nil {
		return JournalEntry{}, errors.New("ledger: entry id required")
	}
	return s.repo.Get(ctx, entryID)
}

// Find returns entries matching the filter.
func (s *Service) Find(ctx context.Context, filter Filter) ([]JournalEntry, error) {
	return s.repo.Find(ctx, filter)
}
