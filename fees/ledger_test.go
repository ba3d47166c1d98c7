package fees_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/fee-engine/fees"
)

func termSlab(t *testing.T) fees.FeeSlab {
	t.Helper()
	slab, err := fees.NewSlab("slab-term", "Grade 5 Annual", "2024-25", dec("20000"),
		[]fees.InstallmentDraft{
			{Amount: dec("10000"), DueDate: fees.NewDate(2024, time.January, 1), Description: "Term 1"},
			{Amount: dec("10000"), DueDate: fees.NewDate(2024, time.June, 1), Description: "Term 2"},
		})
	require.NoError(t, err)
	return slab
}

// =============================================================================
// FACADE PIPELINE
// =============================================================================

func TestBuildSchedule_EndToEnd(t *testing.T) {
	// GIVEN: 20000 slab, 2000 concession, 12000 paid
	// THEN: two 9000 installments; first paid, second partial at 3000
	views, err := fees.BuildSchedule(termSlab(t), dec("2000"), dec("12000"))
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.True(t, views[0].AdjustedAmount.Equal(dec("9000")))
	assert.True(t, views[0].DiscountAmount.Equal(dec("1000")))
	assert.Equal(t, fees.StatusPaid, views[0].Status)

	assert.True(t, views[1].PaidAmount.Equal(dec("3000")))
	assert.Equal(t, fees.StatusPartial, views[1].Status)
}

func TestBuildSchedule_PropagatesStageErrors(t *testing.T) {
	slab := termSlab(t)

	_, err := fees.BuildSchedule(slab, dec("-5"), dec("0"))
	assert.ErrorIs(t, err, fees.ErrInvalidConcession)

	_, err = fees.BuildSchedule(slab, dec("0"), dec("-5"))
	assert.ErrorIs(t, err, fees.ErrInvalidPayment)

	bad := slab
	bad.TotalAmount = decimal.Zero
	_, err = fees.BuildSchedule(bad, dec("0"), dec("0"))
	assert.ErrorIs(t, err, fees.ErrInvalidSlab)
}

func TestComputeOverdue_EndToEnd(t *testing.T) {
	summary, err := fees.ComputeOverdue(termSlab(t), dec("2000"), dec("12000"),
		fees.NewDate(2024, time.July, 1))
	require.NoError(t, err)

	assert.True(t, summary.TotalOverdueAmount.Equal(dec("6000")))
	assert.Equal(t, 1, summary.OverdueCount)
}

// =============================================================================
// AGGREGATION
// =============================================================================

func TestAggregateOverdue_SumsPerStudentResults(t *testing.T) {
	summaries := []fees.OverdueSummary{
		{TotalOverdueAmount: dec("6000"), OverdueCount: 1},
		{TotalOverdueAmount: dec("0"), OverdueCount: 0},
		{TotalOverdueAmount: dec("18000"), OverdueCount: 2},
	}

	total := fees.AggregateOverdue(summaries)
	assert.True(t, total.TotalOverdueAmount.Equal(dec("24000")))
	assert.Equal(t, 3, total.OverdueCount)
}

func TestAggregateOverdue_Empty(t *testing.T) {
	total := fees.AggregateOverdue(nil)
	assert.True(t, total.TotalOverdueAmount.IsZero())
	assert.Equal(t, 0, total.OverdueCount)
}
