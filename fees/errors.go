/*
errors.go - Centralized error types for the fee computation core

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Every error here is a caller-input problem: non-retriable, detected
  synchronously at the boundary of each component, never recovered
  internally. The core never produces partial results on error.

ERROR CATEGORIES:
  1. Slab errors - Malformed fee slab definitions
  2. Concession errors - Out-of-range concession amounts
  3. Payment errors - Corrupt cumulative payment data

USAGE:
  Callers branch with errors.Is():

    if errors.Is(err, fees.ErrInvalidConcession) {
        // reject the grant request
    }

SEE ALSO:
  - normalize.go: Returns slab and drift errors
  - concession.go: Returns concession errors
  - ledger.go: Returns payment errors
*/
package fees

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidSlab is returned for a non-positive total amount or a
	// malformed installment (e.g. negative amount).
	ErrInvalidSlab = errors.New("invalid fee slab")

	// ErrEmptySchedule is returned when a slab defines no installments.
	ErrEmptySchedule = errors.New("empty installment schedule")

	// ErrInvalidConcession is returned when a concession is negative or
	// exceeds the slab total.
	ErrInvalidConcession = errors.New("concession out of range")

	// ErrPercentageDrift is returned when installment percentages are too
	// far from 100 for single-point correction. This indicates conflicting
	// amount/percentage inputs upstream, not a rounding artifact.
	ErrPercentageDrift = errors.New("percentage drift exceeded")

	// ErrInvalidPayment is returned when the cumulative paid amount is
	// negative. A negative total means the ledger feed is corrupt.
	ErrInvalidPayment = errors.New("invalid payment amount")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// SlabError describes which part of a slab definition is malformed.
type SlabError struct {
	Field  string // e.g. "totalAmount", "installments[2].amount"
	Reason string
}

func (e *SlabError) Error() string {
	return fmt.Sprintf("invalid fee slab: %s: %s", e.Field, e.Reason)
}

func (e *SlabError) Unwrap() error { return ErrInvalidSlab }

// ConcessionRangeError details an out-of-range concession.
type ConcessionRangeError struct {
	Concession  decimal.Decimal
	TotalAmount decimal.Decimal
}

func (e *ConcessionRangeError) Error() string {
	return fmt.Sprintf("concession %v outside [0, %v]", e.Concession, e.TotalAmount)
}

func (e *ConcessionRangeError) Unwrap() error { return ErrInvalidConcession }

// DriftError details a percentage sum that single-point correction
// cannot (or did not) repair.
type DriftError struct {
	Sum   decimal.Decimal // sum of rounded percentages before correction
	Drift decimal.Decimal // 100 - Sum
}

func (e *DriftError) Error() string {
	return fmt.Sprintf("installment percentages sum to %v (drift %v), beyond correction", e.Sum, e.Drift)
}

func (e *DriftError) Unwrap() error { return ErrPercentageDrift }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid caller input.
// Every core error is; this helper exists so transport layers map core
// errors to 4xx uniformly.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidSlab) ||
		errors.Is(err, ErrEmptySchedule) ||
		errors.Is(err, ErrInvalidConcession) ||
		errors.Is(err, ErrPercentageDrift) ||
		errors.Is(err, ErrInvalidPayment)
}
