/*
accounts.go - Student fee account operations

PURPOSE:
  The service layer between transport and the computation core. Loads one
  consistent snapshot of a student's inputs (slab, concession, cumulative
  paid), invokes the pure pipeline, and persists the only mutable facts:
  new payment entries (append-only) and concession grants/revokes.

WHAT IS NEVER STORED:
  Installment status, paid/remaining amounts, and overdue totals are
  derived on every query. Persisting them would let stored status drift
  from the actual payment ledger.

SEE ALSO:
  - store.go: Persistence contract
  - fees/ledger.go: The pipeline this drives
*/
package school

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campusworks/fee-engine/fees"
)

// AccountService executes student-facing fee operations against a Store.
type AccountService struct {
	Store Store
}

func NewAccountService(store Store) *AccountService {
	return &AccountService{Store: store}
}

// =============================================================================
// ENROLLMENT & CONCESSIONS
// =============================================================================

// RegisterStudent saves a student after validating the slab reference and
// the concession range against that slab's total.
func (s *AccountService) RegisterStudent(ctx context.Context, student StudentAccount) error {
	slab, err := s.Store.Slab(ctx, student.SlabID)
	if err != nil {
		return err
	}
	if student.ConcessionAmount.IsNegative() || student.ConcessionAmount.GreaterThan(slab.TotalAmount) {
		return &fees.ConcessionRangeError{
			Concession:  student.ConcessionAmount,
			TotalAmount: slab.TotalAmount,
		}
	}
	return s.Store.SaveStudent(ctx, student)
}

// GrantConcession sets a student's concession after range validation.
// Revoking is granting zero.
func (s *AccountService) GrantConcession(ctx context.Context, id fees.StudentID, amount decimal.Decimal) error {
	student, err := s.Store.Student(ctx, id)
	if err != nil {
		return err
	}
	slab, err := s.Store.Slab(ctx, student.SlabID)
	if err != nil {
		return err
	}
	if amount.IsNegative() || amount.GreaterThan(slab.TotalAmount) {
		return &fees.ConcessionRangeError{Concession: amount, TotalAmount: slab.TotalAmount}
	}
	return s.Store.UpdateConcession(ctx, id, amount)
}

// RevokeConcession clears a student's concession.
func (s *AccountService) RevokeConcession(ctx context.Context, id fees.StudentID) error {
	return s.GrantConcession(ctx, id, decimal.Zero)
}

// =============================================================================
// SCHEDULE & PAYMENTS
// =============================================================================

// Schedule derives a student's full installment schedule from one
// consistent read of their inputs.
func (s *AccountService) Schedule(ctx context.Context, id fees.StudentID) (StudentSchedule, error) {
	student, err := s.Store.Student(ctx, id)
	if err != nil {
		return StudentSchedule{}, err
	}
	slab, err := s.Store.Slab(ctx, student.SlabID)
	if err != nil {
		return StudentSchedule{}, err
	}
	paid, err := s.Store.TotalPaid(ctx, id)
	if err != nil {
		return StudentSchedule{}, err
	}

	views, err := fees.BuildSchedule(slab, student.ConcessionAmount, paid)
	if err != nil {
		return StudentSchedule{}, fmt.Errorf("schedule for %s: %w", id, err)
	}

	return StudentSchedule{
		Student:      student,
		Slab:         slab,
		FeesPaid:     paid,
		Installments: views,
	}, nil
}

// RecordPayment appends a payment entry and returns the recomputed
// schedule. The amount must be positive; corrections go through reversal
// entries, not edits. An empty idempotency key defaults to the generated
// entry id, so only caller-supplied keys deduplicate retries.
func (s *AccountService) RecordPayment(ctx context.Context, id fees.StudentID, entry fees.PaymentLedgerEntry) (StudentSchedule, error) {
	if !entry.Amount.IsPositive() {
		return StudentSchedule{}, fees.ErrInvalidPayment
	}
	if _, err := s.Store.Student(ctx, id); err != nil {
		return StudentSchedule{}, err
	}

	entry.StudentID = id
	if entry.ID == "" {
		entry.ID = fees.EntryID(uuid.NewString())
	}
	if entry.IdempotencyKey == "" {
		entry.IdempotencyKey = string(entry.ID)
	}
	if entry.PaymentDate.IsZero() {
		return StudentSchedule{}, fmt.Errorf("payment for %s: missing payment date", id)
	}

	if err := s.Store.AppendPayment(ctx, entry); err != nil {
		return StudentSchedule{}, err
	}
	return s.Schedule(ctx, id)
}

// =============================================================================
// OVERDUE REPORTING
// =============================================================================

// Overdue computes one student's overdue rollup as of referenceDate.
func (s *AccountService) Overdue(ctx context.Context, id fees.StudentID, referenceDate fees.Date) (StudentOverdue, error) {
	sched, err := s.Schedule(ctx, id)
	if err != nil {
		return StudentOverdue{}, err
	}
	return StudentOverdue{
		StudentID: sched.Student.ID,
		Name:      sched.Student.Name,
		ClassID:   sched.Student.ClassID,
		Summary:   fees.Overdue(sched.Installments, referenceDate),
	}, nil
}

// Report aggregates overdue summaries across a class (or the whole school
// when classID is empty). It only sums per-student results; no payment
// amount ever crosses student boundaries.
func (s *AccountService) Report(ctx context.Context, classID string, referenceDate fees.Date) (OverdueReport, error) {
	students, err := s.Store.ListStudents(ctx, classID)
	if err != nil {
		return OverdueReport{}, err
	}

	report := OverdueReport{
		ReferenceDate: referenceDate,
		ClassID:       classID,
		Total:         fees.ZeroSummary(),
	}
	summaries := make([]fees.OverdueSummary, 0, len(students))

	for _, student := range students {
		so, err := s.Overdue(ctx, student.ID, referenceDate)
		if err != nil {
			return OverdueReport{}, fmt.Errorf("overdue for %s: %w", student.ID, err)
		}
		report.Students = append(report.Students, so)
		summaries = append(summaries, so.Summary)
	}

	report.Total = fees.AggregateOverdue(summaries)
	return report, nil
}
