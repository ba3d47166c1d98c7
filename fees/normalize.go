/*
normalize.go - Installment percentage normalization

PURPOSE:
  Converts a raw list of installment amounts/percentages into a canonical,
  sum-exact percentage schedule. This is the entry gate for every slab:
  nothing downstream (concession, allocation, overdue) runs on a schedule
  that has not passed through here.

ALGORITHM:
  1. Reject non-positive totals (InvalidSlab) and empty lists (EmptySchedule).
  2. Derive missing percentages from amounts: amount/total*100, rounded
     half-up to 2 places. Explicit percentages are kept (rounded to 2dp).
  3. Number installments 1-based in INPUT order. Ordering by due date
     happens later, at allocation time; numbering never changes.
  4. Single-point drift correction: drift = 100 - sum(rounded percentages)
     is added to the LAST installment. One entry absorbs the rounding
     remainder, which keeps the correction deterministic and reproducible.
     Drift beyond 1.00 means the amounts and percentages contradict each
     other, and fails with DriftError instead.

IDEMPOTENCE:
  Normalizing an already-normalized schedule is a no-op: percentages are
  already 2dp and sum to exactly 100, so no rounding or correction applies.

SEE ALSO:
  - concession.go: Next pipeline stage
  - errors.go: SlabError, DriftError
*/
package fees

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// maxCorrectableDrift bounds the drift the last-installment correction may
// absorb. Rounding 2dp percentages can drift at most 0.005 per installment,
// so anything past 1.00 is conflicting input data, not rounding.
var maxCorrectableDrift = decimal.NewFromInt(1)

// Normalize converts installment drafts into a canonical schedule whose
// percentages sum to exactly 100.00.
func Normalize(drafts []InstallmentDraft, totalAmount decimal.Decimal) ([]InstallmentSpec, error) {
	if totalAmount.LessThanOrEqual(decimal.Zero) {
		return nil, &SlabError{Field: "totalAmount", Reason: "must be positive"}
	}
	if len(drafts) == 0 {
		return nil, ErrEmptySchedule
	}

	specs := make([]InstallmentSpec, len(drafts))
	sum := decimal.Zero

	for i, d := range drafts {
		if d.Amount.IsNegative() {
			return nil, &SlabError{
				Field:  fmt.Sprintf("installments[%d].amount", i),
				Reason: "must not be negative",
			}
		}

		var pct decimal.Decimal
		switch {
		case d.Percentage != nil:
			if d.Percentage.IsNegative() {
				return nil, &SlabError{
					Field:  fmt.Sprintf("installments[%d].percentage", i),
					Reason: "must not be negative",
				}
			}
			pct = RoundPercent(*d.Percentage)
		default:
			pct = RoundPercent(d.Amount.Div(totalAmount).Mul(hundred))
		}

		amount := d.Amount
		if amount.IsZero() && !pct.IsZero() {
			// Percentage-only input: derive the rupee amount.
			amount = RoundMoney(pct.Div(hundred).Mul(totalAmount))
		}

		specs[i] = InstallmentSpec{
			InstallmentNumber: i + 1,
			Amount:            amount,
			Percentage:        pct,
			DueDate:           d.DueDate,
			Description:       d.Description,
		}
		sum = sum.Add(pct)
	}

	drift := hundred.Sub(sum)
	if drift.Abs().GreaterThan(maxCorrectableDrift) {
		return nil, &DriftError{Sum: sum, Drift: drift}
	}
	if !drift.IsZero() {
		last := len(specs) - 1
		specs[last].Percentage = specs[last].Percentage.Add(drift)
	}

	// Post-correction the sum is exact. A failure here means an installment
	// absorbed a correction it could not hold (e.g. correction drove it
	// negative), which again points at contradictory inputs.
	check := decimal.Zero
	for _, s := range specs {
		if s.Percentage.IsNegative() {
			return nil, &DriftError{Sum: sum, Drift: drift}
		}
		check = check.Add(s.Percentage)
	}
	if !check.Sub(hundred).Abs().LessThanOrEqual(Epsilon) {
		return nil, &DriftError{Sum: check, Drift: hundred.Sub(check)}
	}

	return specs, nil
}

// NewSlab builds and normalizes a fee slab in one step.
func NewSlab(id SlabID, name, academicYear string, totalAmount decimal.Decimal, drafts []InstallmentDraft) (FeeSlab, error) {
	specs, err := Normalize(drafts, totalAmount)
	if err != nil {
		return FeeSlab{}, err
	}
	return FeeSlab{
		ID:           id,
		Name:         name,
		AcademicYear: academicYear,
		TotalAmount:  totalAmount,
		Installments: specs,
	}, nil
}
