/*
allocate.go - Chronological payment allocation

PURPOSE:
  Spreads a student's cumulative paid amount across installments. This is
  the one genuinely order-sensitive algorithm in the core: the same total
  payment produces different paid/pending statuses under a different sort
  order, so the ordering rule below is a hard contract, not an
  implementation detail.

ORDERING CONTRACT:
  Installments are allocated earliest-due-first. Ties on due date are
  broken by original installment number (stable). This single rule is used
  everywhere paid/remaining amounts are derived - there is no second
  allocation path that could disagree with this one.

ALGORITHM (greedy):
  remaining = feesPaid
  for each installment in due-date order:
      paid = min(remaining, adjustedAmount)
      remaining -= paid

INVARIANTS:
  - sum(paidAmount) == min(feesPaid, sum(adjustedAmount))
  - no installment's paidAmount is negative
  - no payment is allocated beyond total dues

STATUS RULES:
  paid    remaining <= 0 and adjustedAmount > 0
  partial 0 < paidAmount < adjustedAmount
  pending otherwise (including zero-amount installments)

SEE ALSO:
  - overdue.go: Consumes the allocated views
*/
package fees

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Allocate distributes feesPaid across the adjusted schedule in due-date
// order and derives each installment's status. feesPaid must not be
// negative; a negative cumulative total means the ledger feed is corrupt.
//
// The returned views are sorted by due date ascending (the allocation
// order); original installment numbers are preserved on each view.
func Allocate(adjusted []AdjustedInstallment, feesPaid decimal.Decimal) ([]InstallmentView, error) {
	if feesPaid.IsNegative() {
		return nil, ErrInvalidPayment
	}

	ordered := make([]AdjustedInstallment, len(adjusted))
	copy(ordered, adjusted)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].DueDate.Equal(ordered[j].DueDate) {
			return ordered[i].DueDate.Before(ordered[j].DueDate)
		}
		return ordered[i].InstallmentNumber < ordered[j].InstallmentNumber
	})

	views := make([]InstallmentView, len(ordered))
	remaining := feesPaid

	for i, inst := range ordered {
		paid := decimal.Min(remaining, inst.AdjustedAmount)
		if paid.IsNegative() {
			paid = decimal.Zero
		}
		remaining = remaining.Sub(paid)

		views[i] = InstallmentView{
			AdjustedInstallment: inst,
			PaidAmount:          paid,
			RemainingAmount:     inst.AdjustedAmount.Sub(paid),
			Status:              statusOf(paid, inst.AdjustedAmount),
		}
	}
	return views, nil
}

// AllocateEntries is Allocate over a payment ledger instead of a scalar.
// The entries are summed first; allocation itself only ever depends on the
// cumulative total, never on individual entry dates.
func AllocateEntries(adjusted []AdjustedInstallment, entries []PaymentLedgerEntry) ([]InstallmentView, error) {
	return Allocate(adjusted, SumEntries(entries))
}

func statusOf(paid, due decimal.Decimal) PaymentStatus {
	switch {
	case due.IsPositive() && paid.GreaterThanOrEqual(due):
		return StatusPaid
	case paid.IsPositive() && paid.LessThan(due):
		return StatusPartial
	default:
		return StatusPending
	}
}
