/*
concession.go - Proportional concession redistribution

PURPOSE:
  Applies a student's concession (scholarship/discount) across a normalized
  installment schedule. The concession is never earmarked to a specific
  installment; every installment gives up the same percentage share.

ROUNDING:
  Unlike normalization, no cross-installment reconciliation is performed
  here. Each installment's adjusted and discount amounts are rounded
  independently, so sum(adjustedAmount) can differ from total-concession
  by up to 0.01 per installment. Downstream consumers must not assume the
  discounted sum is exact to the paisa.

IDENTITY PATH:
  A zero concession copies original amounts through untouched - no rounding
  is introduced for the common no-concession case.

SEE ALSO:
  - normalize.go: Produces the schedule this consumes
  - allocate.go: Consumes the adjusted schedule
*/
package fees

import "github.com/shopspring/decimal"

// ApplyConcession produces the discounted per-installment amounts for a
// normalized schedule. concession must lie in [0, totalAmount].
func ApplyConcession(specs []InstallmentSpec, totalAmount, concession decimal.Decimal) ([]AdjustedInstallment, error) {
	if concession.IsNegative() || concession.GreaterThan(totalAmount) {
		return nil, &ConcessionRangeError{Concession: concession, TotalAmount: totalAmount}
	}

	adjusted := make([]AdjustedInstallment, len(specs))

	if concession.IsZero() {
		for i, s := range specs {
			adjusted[i] = AdjustedInstallment{
				InstallmentNumber: s.InstallmentNumber,
				OriginalAmount:    s.Amount,
				DiscountAmount:    decimal.Zero,
				AdjustedAmount:    s.Amount,
				DueDate:           s.DueDate,
			}
		}
		return adjusted, nil
	}

	discountedTotal := totalAmount.Sub(concession)
	for i, s := range specs {
		share := s.Percentage.Div(hundred)
		adjusted[i] = AdjustedInstallment{
			InstallmentNumber: s.InstallmentNumber,
			OriginalAmount:    s.Amount,
			DiscountAmount:    RoundMoney(share.Mul(concession)),
			AdjustedAmount:    RoundMoney(share.Mul(discountedTotal)),
			DueDate:           s.DueDate,
		}
	}
	return adjusted, nil
}
