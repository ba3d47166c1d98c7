package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusworks/fee-engine/fees"
	"github.com/campusworks/fee-engine/school"
	"github.com/campusworks/fee-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func dec(s string) decimal.Decimal { return fees.MustDecimal(s) }

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testSlab(t *testing.T) fees.FeeSlab {
	t.Helper()
	slab, err := fees.NewSlab("slab-g5", "Grade 5 Annual", "2024-25", dec("20000"),
		[]fees.InstallmentDraft{
			{Amount: dec("10000"), DueDate: fees.NewDate(2024, time.January, 1), Description: "Term 1"},
			{Amount: dec("10000"), DueDate: fees.NewDate(2024, time.June, 1), Description: "Term 2"},
		})
	require.NoError(t, err)
	return slab
}

// =============================================================================
// SLABS
// =============================================================================

func TestSlab_SaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	slab := testSlab(t)

	require.NoError(t, store.SaveSlab(ctx, slab))

	loaded, err := store.Slab(ctx, "slab-g5")
	require.NoError(t, err)

	assert.Equal(t, slab.Name, loaded.Name)
	assert.True(t, loaded.TotalAmount.Equal(slab.TotalAmount))
	require.Len(t, loaded.Installments, 2)
	for i := range slab.Installments {
		assert.True(t, loaded.Installments[i].Amount.Equal(slab.Installments[i].Amount))
		assert.True(t, loaded.Installments[i].Percentage.Equal(slab.Installments[i].Percentage))
		assert.True(t, loaded.Installments[i].DueDate.Equal(slab.Installments[i].DueDate))
		assert.Equal(t, slab.Installments[i].InstallmentNumber, loaded.Installments[i].InstallmentNumber)
	}
}

func TestSlab_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Slab(context.Background(), "missing")
	assert.ErrorIs(t, err, school.ErrSlabNotFound)
}

func TestSlab_UpdateReplacesSchedule(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	slab := testSlab(t)
	require.NoError(t, store.SaveSlab(ctx, slab))

	slab.Name = "Grade 5 Annual (revised)"
	require.NoError(t, store.SaveSlab(ctx, slab))

	slabs, err := store.ListSlabs(ctx)
	require.NoError(t, err)
	require.Len(t, slabs, 1)
	assert.Equal(t, "Grade 5 Annual (revised)", slabs[0].Name)
}

// =============================================================================
// STUDENTS
// =============================================================================

func TestStudent_SaveLoadAndConcession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	student := school.StudentAccount{
		ID: "s-1", Name: "Asha", ClassID: "5A", AcademicYear: "2024-25",
		SlabID: "slab-g5", ConcessionAmount: dec("2000"),
	}
	require.NoError(t, store.SaveStudent(ctx, student))

	loaded, err := store.Student(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, loaded.ConcessionAmount.Equal(dec("2000")))

	require.NoError(t, store.UpdateConcession(ctx, "s-1", dec("0")))
	loaded, err = store.Student(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, loaded.ConcessionAmount.IsZero())

	err = store.UpdateConcession(ctx, "ghost", dec("10"))
	assert.ErrorIs(t, err, school.ErrStudentNotFound)
}

func TestListStudents_ClassFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, s := range []school.StudentAccount{
		{ID: "s-1", Name: "A", ClassID: "5A", SlabID: "slab-g5", ConcessionAmount: decimal.Zero},
		{ID: "s-2", Name: "B", ClassID: "5A", SlabID: "slab-g5", ConcessionAmount: decimal.Zero},
		{ID: "s-3", Name: "C", ClassID: "5B", SlabID: "slab-g5", ConcessionAmount: decimal.Zero},
	} {
		require.NoError(t, store.SaveStudent(ctx, s))
	}

	class, err := store.ListStudents(ctx, "5A")
	require.NoError(t, err)
	assert.Len(t, class, 2)

	all, err := store.ListStudents(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// =============================================================================
// PAYMENT LEDGER
// =============================================================================

func TestPayments_AppendAndTotal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entries := []fees.PaymentLedgerEntry{
		{ID: "p-1", StudentID: "s-1", Amount: dec("5000"),
			PaymentDate: fees.NewDate(2024, time.February, 1), Method: fees.MethodOnline,
			IdempotencyKey: "k-1"},
		{ID: "p-2", StudentID: "s-1", Amount: dec("7000"),
			PaymentDate: fees.NewDate(2024, time.March, 1), Method: fees.MethodCash,
			IdempotencyKey: "k-2"},
	}
	for _, e := range entries {
		require.NoError(t, store.AppendPayment(ctx, e))
	}

	total, err := store.TotalPaid(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("12000")))

	loaded, err := store.PaymentsByStudent(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.True(t, loaded[0].PaymentDate.Before(loaded[1].PaymentDate))
}

func TestPayments_DuplicateIdempotencyKeyRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := fees.PaymentLedgerEntry{
		ID: "p-1", StudentID: "s-1", Amount: dec("5000"),
		PaymentDate: fees.NewDate(2024, time.February, 1), Method: fees.MethodOnline,
		IdempotencyKey: "receipt-001",
	}
	require.NoError(t, store.AppendPayment(ctx, entry))

	entry.ID = "p-2"
	err := store.AppendPayment(ctx, entry)
	assert.ErrorIs(t, err, school.ErrDuplicatePayment)

	total, err := store.TotalPaid(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("5000")))
}

func TestPayments_ReversalEntryNetsOut(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AppendPayment(ctx, fees.PaymentLedgerEntry{
		ID: "p-1", StudentID: "s-1", Amount: dec("5000"),
		PaymentDate: fees.NewDate(2024, time.February, 1), Method: fees.MethodCash,
	}))
	// Correction: the ledger is never rewritten, a negative entry is added.
	require.NoError(t, store.AppendPayment(ctx, fees.PaymentLedgerEntry{
		ID: "p-2", StudentID: "s-1", Amount: dec("-5000"),
		PaymentDate: fees.NewDate(2024, time.February, 2), Method: fees.MethodCash,
		Note: "reversal of p-1, wrong student",
	}))

	total, err := store.TotalPaid(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

// =============================================================================
// FULL SERVICE OVER SQLITE
// =============================================================================

func TestAccountService_OverSQLite(t *testing.T) {
	// GIVEN: the same end-to-end flow the API runs, against :memory: sqlite
	store := newTestStore(t)
	ctx := context.Background()
	svc := school.NewAccountService(store)

	require.NoError(t, store.SaveSlab(ctx, testSlab(t)))
	require.NoError(t, svc.RegisterStudent(ctx, school.StudentAccount{
		ID: "s-1", Name: "Asha", ClassID: "5A", AcademicYear: "2024-25",
		SlabID: "slab-g5", ConcessionAmount: dec("2000"),
	}))

	_, err := svc.RecordPayment(ctx, "s-1", fees.PaymentLedgerEntry{
		Amount: dec("12000"), PaymentDate: fees.NewDate(2024, time.February, 1),
		Method: fees.MethodOnline,
	})
	require.NoError(t, err)

	so, err := svc.Overdue(ctx, "s-1", fees.NewDate(2024, time.July, 1))
	require.NoError(t, err)
	assert.True(t, so.Summary.TotalOverdueAmount.Equal(dec("6000")))
	assert.Equal(t, 1, so.Summary.OverdueCount)
}
