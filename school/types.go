// Package school implements student fee accounts on top of the fees
// computation core: payment recording, concession grant/revoke, and
// class/school overdue reporting. It owns the persistence contract the
// core itself stays free of.
package school

import (
	"github.com/shopspring/decimal"

	"github.com/campusworks/fee-engine/fees"
)

// =============================================================================
// STUDENT ACCOUNT
// =============================================================================

// StudentAccount links a student to a fee slab plus the per-student inputs
// of the computation core. FeesPaid is never stored here; it is always the
// sum of the student's payment ledger.
type StudentAccount struct {
	ID               fees.StudentID
	Name             string
	ClassID          string
	AcademicYear     string
	SlabID           fees.SlabID
	ConcessionAmount decimal.Decimal
}

// StudentSchedule is a student's fully-derived schedule plus the inputs it
// was derived from, for response shaping.
type StudentSchedule struct {
	Student      StudentAccount
	Slab         fees.FeeSlab
	FeesPaid     decimal.Decimal
	Installments []fees.InstallmentView
}

// StudentOverdue pairs a student with their overdue rollup.
type StudentOverdue struct {
	StudentID fees.StudentID
	Name      string
	ClassID   string
	Summary   fees.OverdueSummary
}

// OverdueReport is the class- or school-level dashboard aggregate.
type OverdueReport struct {
	ReferenceDate fees.Date
	ClassID       string // empty = whole school
	Students      []StudentOverdue
	Total         fees.OverdueSummary
}
