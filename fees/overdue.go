/*
overdue.go - Overdue amount derivation

PURPOSE:
  Computes what a student owes past-due as of an explicit reference date.
  The reference date is always a parameter - this package never reads the
  system clock - so overdue reports are reproducible and testable.

RULES:
  - An installment counts only when dueDate < referenceDate (strictly).
    Installments due ON the reference date are not yet overdue.
  - Only the unpaid remainder counts; fully-paid past installments
    contribute nothing.
  - Future installments are never overdue regardless of payment status.
  - Nothing overdue yields {0, 0}, not an error.

MONOTONICITY:
  For fixed payment data, a later reference date never reports fewer
  overdue installments or a smaller overdue amount than an earlier one.

SEE ALSO:
  - allocate.go: Produces the views this consumes
  - ledger.go: Facade wiring and aggregation
*/
package fees

// Overdue rolls up unpaid past-due remainders across an allocated schedule.
func Overdue(views []InstallmentView, referenceDate Date) OverdueSummary {
	summary := ZeroSummary()
	for _, v := range views {
		if !v.DueDate.Before(referenceDate) {
			continue
		}
		if v.RemainingAmount.IsPositive() {
			summary.TotalOverdueAmount = summary.TotalOverdueAmount.Add(v.RemainingAmount)
			summary.OverdueCount++
		}
	}
	return summary
}
