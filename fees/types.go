/*
Package fees provides the fee installment and concession computation core.

PURPOSE:
  This package contains the pure algorithms that turn a fee-slab definition
  (total amount + percentage-based installments) into a per-student payment
  schedule: percentage normalization with rounding correction, proportional
  concession redistribution, chronological payment allocation, and derived
  overdue computation.

KEY CONCEPTS IN THIS FILE (types.go):
  - FeeSlab / InstallmentSpec: A named fee plan split into installments
  - InstallmentDraft: Raw admin input before normalization
  - AdjustedInstallment: Installment after concession redistribution
  - InstallmentView: Final derived object with paid/remaining/status
  - PaymentLedgerEntry: Immutable record of money received
  - Date: Day-granularity time point (due dates, payment dates)

DESIGN PRINCIPLES:
  1. Purity: Every algorithm is a function of its arguments. No clock reads,
     no I/O, no shared state. Safe for concurrent callers.
  2. Precision: Uses decimal.Decimal for all money and percentage arithmetic.
  3. Derivation over storage: InstallmentView is recomputed on every query,
     never persisted as authoritative state.
  4. Determinism: Rounding and allocation tie-breaks follow fixed rules so
     the same inputs always produce the same schedule.

USAGE:
  specs, err := fees.Normalize(drafts, total)
  adjusted, err := fees.ApplyConcession(specs, total, concession)
  views := fees.Allocate(adjusted, feesPaid)
  summary := fees.Overdue(views, refDate)

SEE ALSO:
  - normalize.go: Percentage normalization and drift correction
  - concession.go: Proportional discount redistribution
  - allocate.go: Chronological payment allocation
  - overdue.go: Overdue amount derivation
  - ledger.go: Facade composing the pipeline
*/
package fees

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DECIMAL HELPERS - Money is always 2dp, round-half-up
// =============================================================================

// MoneyPlaces is the scale used for all monetary amounts.
const MoneyPlaces = 2

// PercentPlaces is the scale used for installment percentages.
const PercentPlaces = 2

// Epsilon is the tolerance for percentage-sum checks, one paisa.
var Epsilon = decimal.NewFromFloat(0.01)

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds to 2 decimal places, half away from zero.
// All amounts in this package are non-negative, so this is round-half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal { return d.Round(MoneyPlaces) }

// RoundPercent rounds a percentage to 2 decimal places, half-up.
func RoundPercent(d decimal.Decimal) decimal.Decimal { return d.Round(PercentPlaces) }

// MustDecimal parses a decimal literal, returning zero on malformed input.
// Intended for constants and tests, not for untrusted data.
func MustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// =============================================================================
// DATE - Day-granularity time point
// =============================================================================

// Date is a calendar day in UTC. Due dates and payment dates are always
// day-granular; hours never influence installment ordering or overdue checks.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary time to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// ParseDate parses an ISO date (2006-01-02).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

func (d Date) Before(other Date) bool { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool  { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool  { return d.normalize().Equal(other.normalize()) }
func (d Date) IsZero() bool           { return d.Time.IsZero() }

func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }

func (d Date) String() string { return d.normalize().Format("2006-01-02") }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type SlabID string
type StudentID string
type EntryID string

// =============================================================================
// FEE SLAB - Named fee plan split into installments
// =============================================================================

// InstallmentDraft is the raw admin input for one installment, before
// normalization. Percentage is optional; when nil it is derived from Amount.
type InstallmentDraft struct {
	Amount      decimal.Decimal
	Percentage  *decimal.Decimal
	DueDate     Date
	Description string
}

// InstallmentSpec is one normalized installment of a fee slab.
//
// INVARIANTS (guaranteed by Normalize):
//   - InstallmentNumber is the 1-based position in the admin's input order
//   - sum(Percentage) across the slab == 100.00 exactly
//   - Percentage has at most 2 decimal places
type InstallmentSpec struct {
	InstallmentNumber int
	Amount            decimal.Decimal
	Percentage        decimal.Decimal
	DueDate           Date
	Description       string
}

// FeeSlab is a named, year-scoped fee plan. Created once per academic
// year/grade and referenced by many students. Immutable once referenced,
// except through an explicit update that re-normalizes.
type FeeSlab struct {
	ID           SlabID
	Name         string
	AcademicYear string
	TotalAmount  decimal.Decimal
	Installments []InstallmentSpec
}

// Drafts converts the slab's installments back into draft form so the
// schedule can be re-normalized. Normalization is idempotent, so round
// tripping an already-normalized slab is a no-op.
func (s FeeSlab) Drafts() []InstallmentDraft {
	drafts := make([]InstallmentDraft, len(s.Installments))
	for i, inst := range s.Installments {
		pct := inst.Percentage
		drafts[i] = InstallmentDraft{
			Amount:      inst.Amount,
			Percentage:  &pct,
			DueDate:     inst.DueDate,
			Description: inst.Description,
		}
	}
	return drafts
}

// =============================================================================
// ADJUSTED INSTALLMENT - After concession redistribution
// =============================================================================

// AdjustedInstallment is derived, never stored independently.
// AdjustedAmount = round(pct/100 * (total - concession))
// DiscountAmount = round(pct/100 * concession)
type AdjustedInstallment struct {
	InstallmentNumber int
	OriginalAmount    decimal.Decimal
	DiscountAmount    decimal.Decimal
	AdjustedAmount    decimal.Decimal
	DueDate           Date
}

// =============================================================================
// PAYMENT LEDGER ENTRY - Immutable record of money received
// =============================================================================

type PaymentMethod string

const (
	MethodCash     PaymentMethod = "cash"
	MethodCard     PaymentMethod = "card"
	MethodCheque   PaymentMethod = "cheque"
	MethodTransfer PaymentMethod = "bank_transfer"
	MethodOnline   PaymentMethod = "online"
)

// PaymentLedgerEntry records one payment event. The ordered sequence of
// entries is the sole source of truth for how much a student has paid.
// Entries are appended, never rewritten; corrections are negative-amount
// reversal entries.
type PaymentLedgerEntry struct {
	ID             EntryID
	StudentID      StudentID
	Amount         decimal.Decimal
	PaymentDate    Date
	Method         PaymentMethod
	TransactionID  string
	IdempotencyKey string
	Note           string
}

// SumEntries reduces a ledger to the cumulative paid scalar the allocator
// consumes. Reversal entries (negative amounts) net out here.
func SumEntries(entries []PaymentLedgerEntry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}

// =============================================================================
// INSTALLMENT VIEW - Final derived object exposed to callers
// =============================================================================

type PaymentStatus string

const (
	StatusPending PaymentStatus = "pending"
	StatusPartial PaymentStatus = "partial"
	StatusPaid    PaymentStatus = "paid"
)

// InstallmentView is AdjustedInstallment plus allocation results.
// Recomputed on every query; never persisted as authoritative state.
type InstallmentView struct {
	AdjustedInstallment
	PaidAmount      decimal.Decimal
	RemainingAmount decimal.Decimal
	Status          PaymentStatus
}

// =============================================================================
// OVERDUE SUMMARY
// =============================================================================

// OverdueSummary is the overdue rollup for one student, or (via Add) for a
// class or school. A student with nothing overdue is {0, 0}, not an error.
type OverdueSummary struct {
	TotalOverdueAmount decimal.Decimal
	OverdueCount       int
}

// Add combines two summaries. Used by aggregate reporting; it only sums
// per-student results, never re-allocates payments across students.
func (s OverdueSummary) Add(other OverdueSummary) OverdueSummary {
	return OverdueSummary{
		TotalOverdueAmount: s.TotalOverdueAmount.Add(other.TotalOverdueAmount),
		OverdueCount:       s.OverdueCount + other.OverdueCount,
	}
}

// ZeroSummary returns the empty rollup with a properly-initialized amount.
func ZeroSummary() OverdueSummary {
	return OverdueSummary{TotalOverdueAmount: decimal.Zero}
}
