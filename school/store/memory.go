// Package store provides an in-memory school.Store implementation
// for tests and development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/campusworks/fee-engine/fees"
	"github.com/campusworks/fee-engine/school"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	slabs       map[fees.SlabID]fees.FeeSlab
	students    map[fees.StudentID]school.StudentAccount
	payments    map[fees.StudentID][]fees.PaymentLedgerEntry
	idempotency map[string]bool
}

func NewMemory() *Memory {
	return &Memory{
		slabs:       make(map[fees.SlabID]fees.FeeSlab),
		students:    make(map[fees.StudentID]school.StudentAccount),
		payments:    make(map[fees.StudentID][]fees.PaymentLedgerEntry),
		idempotency: make(map[string]bool),
	}
}

var _ school.Store = (*Memory)(nil)

// =============================================================================
// SLABS
// =============================================================================

func (m *Memory) SaveSlab(_ context.Context, slab fees.FeeSlab) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slabs[slab.ID] = slab
	return nil
}

func (m *Memory) Slab(_ context.Context, id fees.SlabID) (fees.FeeSlab, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	slab, ok := m.slabs[id]
	if !ok {
		return fees.FeeSlab{}, school.ErrSlabNotFound
	}
	return slab, nil
}

func (m *Memory) ListSlabs(_ context.Context) ([]fees.FeeSlab, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	slabs := make([]fees.FeeSlab, 0, len(m.slabs))
	for _, s := range m.slabs {
		slabs = append(slabs, s)
	}
	sort.Slice(slabs, func(i, j int) bool { return slabs[i].ID < slabs[j].ID })
	return slabs, nil
}

// =============================================================================
// STUDENTS
// =============================================================================

func (m *Memory) SaveStudent(_ context.Context, student school.StudentAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[student.ID] = student
	return nil
}

func (m *Memory) Student(_ context.Context, id fees.StudentID) (school.StudentAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	student, ok := m.students[id]
	if !ok {
		return school.StudentAccount{}, school.ErrStudentNotFound
	}
	return student, nil
}

func (m *Memory) ListStudents(_ context.Context, classID string) ([]school.StudentAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	students := make([]school.StudentAccount, 0, len(m.students))
	for _, s := range m.students {
		if classID != "" && s.ClassID != classID {
			continue
		}
		students = append(students, s)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

func (m *Memory) UpdateConcession(_ context.Context, id fees.StudentID, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	student, ok := m.students[id]
	if !ok {
		return school.ErrStudentNotFound
	}
	student.ConcessionAmount = amount
	m.students[id] = student
	return nil
}

// =============================================================================
// PAYMENT LEDGER (append-only)
// =============================================================================

func (m *Memory) AppendPayment(_ context.Context, entry fees.PaymentLedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.IdempotencyKey != "" && m.idempotency[entry.IdempotencyKey] {
		return school.ErrDuplicatePayment
	}
	if entry.IdempotencyKey != "" {
		m.idempotency[entry.IdempotencyKey] = true
	}

	entries := append(m.payments[entry.StudentID], entry)
	// Keep chronological order for readers.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PaymentDate.Before(entries[j].PaymentDate)
	})
	m.payments[entry.StudentID] = entries
	return nil
}

func (m *Memory) PaymentsByStudent(_ context.Context, id fees.StudentID) ([]fees.PaymentLedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := make([]fees.PaymentLedgerEntry, len(m.payments[id]))
	copy(entries, m.payments[id])
	return entries, nil
}

func (m *Memory) TotalPaid(_ context.Context, id fees.StudentID) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fees.SumEntries(m.payments[id]), nil
}

// =============================================================================
// RESET (dev/demo)
// =============================================================================

// Reset clears all data. Used by demo scenario loaders.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slabs = make(map[fees.SlabID]fees.FeeSlab)
	m.students = make(map[fees.StudentID]school.StudentAccount)
	m.payments = make(map[fees.StudentID][]fees.PaymentLedgerEntry)
	m.idempotency = make(map[string]bool)
	return nil
}
