/*
store.go - Persistence interface for slabs, students, and the payment ledger

PURPOSE:
  Defines the contract between the domain layer and the database. The
  computation core works on plain values; everything it needs (slab,
  concession, cumulative paid) is loaded through this interface, and one
  consistent read per invocation is this layer's responsibility.

APPEND-ONLY CONTRACT:
  The payment ledger is append-only. There is no UpdatePayment and no
  DeletePayment; corrections are negative-amount reversal entries. Each
  entry carries an idempotency key so network retries and double-clicks
  cannot record the same payment twice.

IMPLEMENTATIONS:
  - school/store/memory.go: In-memory, for tests and dev
  - store/sqlite/sqlite.go: Production SQLite

SEE ALSO:
  - accounts.go: AccountService built on this interface
*/
package school

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/campusworks/fee-engine/fees"
)

// =============================================================================
// STORE ERRORS
// =============================================================================

var (
	// ErrSlabNotFound is returned when a referenced fee slab doesn't exist.
	ErrSlabNotFound = errors.New("fee slab not found")

	// ErrStudentNotFound is returned when a referenced student doesn't exist.
	ErrStudentNotFound = errors.New("student not found")

	// ErrDuplicatePayment is returned when a payment with the same
	// idempotency key already exists. Expected behavior for retries.
	ErrDuplicatePayment = errors.New("duplicate payment idempotency key")
)

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSlabNotFound) || errors.Is(err, ErrStudentNotFound)
}

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store persists fee slabs, student accounts, and the payment ledger.
//
// INVARIANTS:
//   - Payments are append-only: no update, no delete. Ever.
//   - AppendPayment rejects a duplicate idempotency key.
//   - TotalPaid reflects every previously committed payment for the
//     student before the next core invocation for that student.
type Store interface {
	// Slabs
	SaveSlab(ctx context.Context, slab fees.FeeSlab) error
	Slab(ctx context.Context, id fees.SlabID) (fees.FeeSlab, error)
	ListSlabs(ctx context.Context) ([]fees.FeeSlab, error)

	// Students
	SaveStudent(ctx context.Context, student StudentAccount) error
	Student(ctx context.Context, id fees.StudentID) (StudentAccount, error)
	ListStudents(ctx context.Context, classID string) ([]StudentAccount, error)
	UpdateConcession(ctx context.Context, id fees.StudentID, amount decimal.Decimal) error

	// Payment ledger (append-only)
	AppendPayment(ctx context.Context, entry fees.PaymentLedgerEntry) error
	PaymentsByStudent(ctx context.Context, id fees.StudentID) ([]fees.PaymentLedgerEntry, error)
	TotalPaid(ctx context.Context, id fees.StudentID) (decimal.Decimal, error)
}
