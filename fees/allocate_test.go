package fees_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/fee-engine/fees"
)

func adjusted2x9000() []fees.AdjustedInstallment {
	return []fees.AdjustedInstallment{
		{InstallmentNumber: 1, OriginalAmount: dec("10000"), DiscountAmount: dec("1000"),
			AdjustedAmount: dec("9000"), DueDate: fees.NewDate(2024, time.January, 1)},
		{InstallmentNumber: 2, OriginalAmount: dec("10000"), DiscountAmount: dec("1000"),
			AdjustedAmount: dec("9000"), DueDate: fees.NewDate(2024, time.June, 1)},
	}
}

func sumPaid(views []fees.InstallmentView) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range views {
		sum = sum.Add(v.PaidAmount)
	}
	return sum
}

// =============================================================================
// GREEDY EARLIEST-DUE-FIRST
// =============================================================================

func TestAllocate_PartialSecondInstallment(t *testing.T) {
	// GIVEN: two 9000 installments due Jan 1 and Jun 1, 12000 paid
	// THEN: installment 1 fully paid, installment 2 partial at 3000
	views, err := fees.Allocate(adjusted2x9000(), dec("12000"))
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.True(t, views[0].PaidAmount.Equal(dec("9000")))
	assert.Equal(t, fees.StatusPaid, views[0].Status)
	assert.True(t, views[0].RemainingAmount.IsZero())

	assert.True(t, views[1].PaidAmount.Equal(dec("3000")))
	assert.Equal(t, fees.StatusPartial, views[1].Status)
	assert.True(t, views[1].RemainingAmount.Equal(dec("6000")))
}

func TestAllocate_NothingPaid(t *testing.T) {
	views, err := fees.Allocate(adjusted2x9000(), decimal.Zero)
	require.NoError(t, err)

	for _, v := range views {
		assert.Equal(t, fees.StatusPending, v.Status)
		assert.True(t, v.PaidAmount.IsZero())
		assert.True(t, v.RemainingAmount.Equal(v.AdjustedAmount))
	}
}

func TestAllocate_OverpaymentClampedToTotalDues(t *testing.T) {
	// Payment beyond total dues is never allocated.
	views, err := fees.Allocate(adjusted2x9000(), dec("25000"))
	require.NoError(t, err)

	assert.True(t, sumPaid(views).Equal(dec("18000")))
	for _, v := range views {
		assert.Equal(t, fees.StatusPaid, v.Status)
	}
}

func TestAllocate_ConservationInvariant(t *testing.T) {
	// sum(paidAmount) == min(feesPaid, sum(adjustedAmount)) for a sweep of
	// payment levels, and no paid amount ever goes negative.
	totalDue := dec("18000")
	for _, paid := range []string{"0", "0.01", "4500", "9000", "9000.01", "17999.99", "18000", "50000"} {
		views, err := fees.Allocate(adjusted2x9000(), dec(paid))
		require.NoError(t, err)

		expect := decimal.Min(dec(paid), totalDue)
		assert.True(t, sumPaid(views).Equal(expect), "feesPaid=%s got %v", paid, sumPaid(views))
		for _, v := range views {
			assert.False(t, v.PaidAmount.IsNegative())
		}
	}
}

// =============================================================================
// ORDERING CONTRACT
// =============================================================================

func TestAllocate_DueDateOrderNotInputOrder(t *testing.T) {
	// GIVEN: input order is reversed relative to due dates
	// THEN: the earlier-due installment still absorbs the payment
	reversed := []fees.AdjustedInstallment{
		{InstallmentNumber: 1, AdjustedAmount: dec("9000"), DueDate: fees.NewDate(2024, time.June, 1)},
		{InstallmentNumber: 2, AdjustedAmount: dec("9000"), DueDate: fees.NewDate(2024, time.January, 1)},
	}

	views, err := fees.Allocate(reversed, dec("9000"))
	require.NoError(t, err)

	// Views come back in allocation (due-date) order.
	assert.Equal(t, 2, views[0].InstallmentNumber)
	assert.Equal(t, fees.StatusPaid, views[0].Status)
	assert.Equal(t, 1, views[1].InstallmentNumber)
	assert.Equal(t, fees.StatusPending, views[1].Status)
}

func TestAllocate_TieBrokenByInstallmentNumber(t *testing.T) {
	same := fees.NewDate(2024, time.March, 1)
	tied := []fees.AdjustedInstallment{
		{InstallmentNumber: 2, AdjustedAmount: dec("5000"), DueDate: same},
		{InstallmentNumber: 1, AdjustedAmount: dec("5000"), DueDate: same},
	}

	views, err := fees.Allocate(tied, dec("5000"))
	require.NoError(t, err)

	assert.Equal(t, 1, views[0].InstallmentNumber)
	assert.Equal(t, fees.StatusPaid, views[0].Status)
	assert.Equal(t, fees.StatusPending, views[1].Status)
}

// =============================================================================
// EDGE CASES
// =============================================================================

func TestAllocate_ZeroAmountInstallmentStaysPending(t *testing.T) {
	// A fully-concessioned (zero-amount) installment is pending, not paid.
	zeroed := []fees.AdjustedInstallment{
		{InstallmentNumber: 1, AdjustedAmount: decimal.Zero, DueDate: fees.NewDate(2024, time.January, 1)},
	}
	views, err := fees.Allocate(zeroed, dec("100"))
	require.NoError(t, err)
	assert.Equal(t, fees.StatusPending, views[0].Status)
	assert.True(t, views[0].PaidAmount.IsZero())
}

func TestAllocate_NegativeFeesPaidRejected(t *testing.T) {
	_, err := fees.Allocate(adjusted2x9000(), dec("-1"))
	assert.ErrorIs(t, err, fees.ErrInvalidPayment)
	assert.True(t, fees.IsClientError(err))
}

func TestAllocateEntries_SumsLedger(t *testing.T) {
	entries := []fees.PaymentLedgerEntry{
		{Amount: dec("5000"), PaymentDate: fees.NewDate(2024, time.January, 5)},
		{Amount: dec("7000"), PaymentDate: fees.NewDate(2024, time.February, 5)},
		// Reversal entry nets out.
		{Amount: dec("-1000"), PaymentDate: fees.NewDate(2024, time.February, 6)},
		{Amount: dec("1000"), PaymentDate: fees.NewDate(2024, time.February, 7)},
	}

	views, err := fees.AllocateEntries(adjusted2x9000(), entries)
	require.NoError(t, err)
	assert.True(t, sumPaid(views).Equal(dec("12000")))
}
