/*
ledger.go - Facade composing the computation pipeline

PURPOSE:
  The two operations the rest of the system needs, wired end to end:

    BuildSchedule:  slab -> normalize -> concession -> allocate
    ComputeOverdue: BuildSchedule + overdue rollup

  plus AggregateOverdue for class/school dashboard totals.

PIPELINE:
  Data flows one direction through pure stages; no stage holds state
  between calls, so the facade is safe for any number of concurrent
  callers. Either a full, consistent schedule is returned or an error is -
  never both.

AGGREGATION:
  AggregateOverdue only sums per-student summaries. It performs no
  allocation of its own, so one student's payments can never leak into
  another student's schedule.

SEE ALSO:
  - normalize.go, concession.go, allocate.go, overdue.go: The stages
*/
package fees

import "github.com/shopspring/decimal"

// BuildSchedule runs the full pipeline for one student: the slab is
// re-normalized (idempotent for already-normalized slabs), the concession
// is redistributed, and the cumulative paid amount is allocated in
// due-date order.
func BuildSchedule(slab FeeSlab, concession, feesPaid decimal.Decimal) ([]InstallmentView, error) {
	specs, err := Normalize(slab.Drafts(), slab.TotalAmount)
	if err != nil {
		return nil, err
	}
	adjusted, err := ApplyConcession(specs, slab.TotalAmount, concession)
	if err != nil {
		return nil, err
	}
	return Allocate(adjusted, feesPaid)
}

// ComputeOverdue builds the schedule and rolls up what is past due as of
// the explicit reference date.
func ComputeOverdue(slab FeeSlab, concession, feesPaid decimal.Decimal, referenceDate Date) (OverdueSummary, error) {
	views, err := BuildSchedule(slab, concession, feesPaid)
	if err != nil {
		return OverdueSummary{}, err
	}
	return Overdue(views, referenceDate), nil
}

// AggregateOverdue sums per-student summaries for class or school totals.
func AggregateOverdue(summaries []OverdueSummary) OverdueSummary {
	total := ZeroSummary()
	for _, s := range summaries {
		total = total.Add(s)
	}
	return total
}
