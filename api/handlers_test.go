/*
handlers_test.go - Unit tests for API handler flows

Tests for:
- Slab creation through the factory (normalizer-validated)
- Payment recording with idempotency conflicts
- Concession grant and revoke
- Overdue summaries with explicit reference dates
*/
package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/campusworks/fee-engine/factory"
	"github.com/campusworks/fee-engine/fees"
	"github.com/campusworks/fee-engine/school"
)

func seedSlabAndStudent(t *testing.T, h *Handler) {
	t.Helper()
	ctx := context.Background()

	def := factory.TermScheduleJSON("slab-api", "Grade 7 Two-Term", "2024-25",
		decimal.NewFromInt(20000),
		fees.NewDate(2024, time.January, 1), fees.NewDate(2024, time.June, 1))
	slab, err := h.Slabs.ParseSlab(def)
	if err != nil {
		t.Fatalf("Failed to parse slab: %v", err)
	}
	if err := h.Store.SaveSlab(ctx, slab); err != nil {
		t.Fatalf("Failed to save slab: %v", err)
	}

	err = h.Accounts.RegisterStudent(ctx, school.StudentAccount{
		ID: "st-api", Name: "Test Student", ClassID: "7A",
		AcademicYear: "2024-25", SlabID: "slab-api", ConcessionAmount: decimal.Zero,
	})
	if err != nil {
		t.Fatalf("Failed to register student: %v", err)
	}
}

func TestSlabCreation_InvalidDefinitionRejected(t *testing.T) {
	// GIVEN: A definition whose installments exceed the total
	// WHEN: Building it through the factory
	// THEN: The normalizer error surfaces and nothing is stored

	handler := setupTestHandler(t)
	ctx := context.Background()

	_, err := handler.Slabs.BuildSlab(factory.SlabJSON{
		ID:           "slab-bad",
		SlabName:     "Broken",
		AcademicYear: "2024-25",
		TotalAmount:  decimal.NewFromInt(10000),
		Installments: []factory.InstallmentJSON{
			{Amount: decimal.NewFromInt(8000), DueDate: "2024-01-01"},
			{Amount: decimal.NewFromInt(8000), DueDate: "2024-06-01"},
		},
	})
	if err == nil {
		t.Fatal("Expected normalizer rejection, got nil")
	}
	if !fees.IsClientError(err) {
		t.Errorf("Expected a client error, got %v", err)
	}

	if _, err := handler.Store.Slab(ctx, "slab-bad"); !school.IsNotFound(err) {
		t.Errorf("Invalid slab must not be stored, lookup returned %v", err)
	}
}

func TestRecordPayment_ReturnsRecomputedSchedule(t *testing.T) {
	// GIVEN: An enrolled student on a 12000/8000 two-term slab
	// WHEN: Recording a 13000 payment
	// THEN: The returned schedule shows term 1 paid and term 2 partial

	handler := setupTestHandler(t)
	seedSlabAndStudent(t, handler)
	ctx := context.Background()

	sched, err := handler.Accounts.RecordPayment(ctx, "st-api", fees.PaymentLedgerEntry{
		Amount:      fees.MustDecimal("13000"),
		PaymentDate: fees.NewDate(2024, time.January, 10),
		Method:      fees.MethodCard,
	})
	if err != nil {
		t.Fatalf("Failed to record payment: %v", err)
	}

	if sched.Installments[0].Status != fees.StatusPaid {
		t.Errorf("Expected paid term 1, got %s", sched.Installments[0].Status)
	}
	if sched.Installments[1].Status != fees.StatusPartial {
		t.Errorf("Expected partial term 2, got %s", sched.Installments[1].Status)
	}
	if sched.Installments[1].RemainingAmount.StringFixed(2) != "7000.00" {
		t.Errorf("Expected 7000.00 remaining on term 2, got %s",
			sched.Installments[1].RemainingAmount.StringFixed(2))
	}
}

func TestRecordPayment_DuplicateIdempotencyKeyConflicts(t *testing.T) {
	// GIVEN: A recorded payment with an explicit idempotency key
	// WHEN: Recording the same key again
	// THEN: The second attempt fails and the ledger holds one entry

	handler := setupTestHandler(t)
	seedSlabAndStudent(t, handler)
	ctx := context.Background()

	entry := fees.PaymentLedgerEntry{
		Amount:         fees.MustDecimal("5000"),
		PaymentDate:    fees.NewDate(2024, time.January, 10),
		Method:         fees.MethodOnline,
		IdempotencyKey: "pay-2024-01-10-5000",
	}
	if _, err := handler.Accounts.RecordPayment(ctx, "st-api", entry); err != nil {
		t.Fatalf("Failed to record payment: %v", err)
	}

	_, err := handler.Accounts.RecordPayment(ctx, "st-api", entry)
	if !errors.Is(err, school.ErrDuplicatePayment) {
		t.Fatalf("Expected ErrDuplicatePayment, got %v", err)
	}

	entries, err := handler.Store.PaymentsByStudent(ctx, "st-api")
	if err != nil {
		t.Fatalf("Failed to list payments: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected 1 ledger entry, got %d", len(entries))
	}
}

func TestConcession_GrantThenRevoke(t *testing.T) {
	// GIVEN: A student granted a 2000 concession
	// WHEN: Revoking it
	// THEN: The schedule returns to the undiscounted amounts

	handler := setupTestHandler(t)
	seedSlabAndStudent(t, handler)
	ctx := context.Background()

	if err := handler.Accounts.GrantConcession(ctx, "st-api", fees.MustDecimal("2000")); err != nil {
		t.Fatalf("Failed to grant concession: %v", err)
	}
	sched, err := handler.Accounts.Schedule(ctx, "st-api")
	if err != nil {
		t.Fatalf("Failed to compute schedule: %v", err)
	}
	if sched.Installments[0].AdjustedAmount.StringFixed(2) != "10800.00" {
		t.Errorf("Expected discounted term 1 of 10800.00, got %s",
			sched.Installments[0].AdjustedAmount.StringFixed(2))
	}

	if err := handler.Accounts.RevokeConcession(ctx, "st-api"); err != nil {
		t.Fatalf("Failed to revoke concession: %v", err)
	}
	sched, err = handler.Accounts.Schedule(ctx, "st-api")
	if err != nil {
		t.Fatalf("Failed to compute schedule: %v", err)
	}
	if sched.Installments[0].AdjustedAmount.StringFixed(2) != "12000.00" {
		t.Errorf("Expected undiscounted term 1 of 12000.00, got %s",
			sched.Installments[0].AdjustedAmount.StringFixed(2))
	}
}

func TestStudentOverdue_ReferenceDateControlsResult(t *testing.T) {
	// GIVEN: A student with term 1 (Jan 1) unpaid
	// WHEN: Asking for overdue before and after the due date
	// THEN: Only the later reference date reports an overdue amount

	handler := setupTestHandler(t)
	seedSlabAndStudent(t, handler)
	ctx := context.Background()

	before, err := handler.Accounts.Overdue(ctx, "st-api", fees.NewDate(2024, time.January, 1))
	if err != nil {
		t.Fatalf("Failed to compute overdue: %v", err)
	}
	if !before.Summary.TotalOverdueAmount.IsZero() {
		t.Errorf("Due date itself must not be overdue, got %s", before.Summary.TotalOverdueAmount)
	}

	after, err := handler.Accounts.Overdue(ctx, "st-api", fees.NewDate(2024, time.March, 1))
	if err != nil {
		t.Fatalf("Failed to compute overdue: %v", err)
	}
	if after.Summary.TotalOverdueAmount.StringFixed(2) != "12000.00" {
		t.Errorf("Expected 12000.00 overdue, got %s", after.Summary.TotalOverdueAmount.StringFixed(2))
	}
	if after.Summary.OverdueCount != 1 {
		t.Errorf("Expected 1 overdue installment, got %d", after.Summary.OverdueCount)
	}
}
