/*
Package sqlite provides a SQLite-backed implementation of school.Store.

PURPOSE:
  Implements the persistence collaborator: fee slabs, student accounts,
  and the append-only payment ledger. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  The payments table has no UPDATE and no DELETE paths:
  - Corrections are negative-amount reversal entries
  - A unique index on idempotency_key rejects duplicate writes

KEY TABLES:
  fee_slabs:   Slab definitions with their normalized installment schedule
               stored as JSON
  students:    Student accounts (slab reference + concession)
  payments:    Immutable ledger of money received

DERIVED STATE:
  Installment status, paid/remaining amounts, and overdue totals are NEVER
  stored. They are recomputed from slab + concession + payments on every
  query, which keeps stored state and actual payments from drifting apart.

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers
  don't block, single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/fees.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()
  svc := school.NewAccountService(store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - school/store.go: Interface definition
  - school/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/campusworks/fee-engine/fees"
	"github.com/campusworks/fee-engine/school"
)

// Store implements school.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ school.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reset drops all data. Dev/demo environments only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"payments", "students", "fee_slabs"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Fee slabs (installment schedule stored as JSON)
	CREATE TABLE IF NOT EXISTS fee_slabs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		academic_year TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		installments_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Students (slab reference + concession)
	CREATE TABLE IF NOT EXISTS students (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		class_id TEXT NOT NULL,
		academic_year TEXT NOT NULL,
		slab_id TEXT NOT NULL,
		concession_amount TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_students_class
		ON students(class_id);
	CREATE INDEX IF NOT EXISTS idx_students_slab
		ON students(slab_id);

	-- Payments (append-only ledger: no UPDATE, no DELETE)
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		payment_date TEXT NOT NULL,
		method TEXT NOT NULL,
		transaction_id TEXT,
		idempotency_key TEXT,
		note TEXT,
		created_at TEXT NOT NULL
	);

	-- Hot path: cumulative paid per student
	CREATE INDEX IF NOT EXISTS idx_payments_student_date
		ON payments(student_id, payment_date);

	-- Retry/double-click protection
	CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_idempotency
		ON payments(idempotency_key) WHERE idempotency_key IS NOT NULL;
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// FEE SLABS
// =============================================================================

// installmentRow is the JSON storage form of one installment. Amounts are
// stored as decimal strings, never floats.
type installmentRow struct {
	InstallmentNumber int    `json:"installment_number"`
	Amount            string `json:"amount"`
	Percentage        string `json:"percentage"`
	DueDate           string `json:"due_date"`
	Description       string `json:"description,omitempty"`
}

func (s *Store) SaveSlab(ctx context.Context, slab fees.FeeSlab) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]installmentRow, len(slab.Installments))
	for i, inst := range slab.Installments {
		rows[i] = installmentRow{
			InstallmentNumber: inst.InstallmentNumber,
			Amount:            inst.Amount.String(),
			Percentage:        inst.Percentage.String(),
			DueDate:           inst.DueDate.String(),
			Description:       inst.Description,
		}
	}
	installmentsJSON, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode installments: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO fee_slabs (id, name, academic_year, total_amount, installments_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			academic_year = excluded.academic_year,
			total_amount = excluded.total_amount,
			installments_json = excluded.installments_json,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		slab.ID, slab.Name, slab.AcademicYear, slab.TotalAmount.String(),
		string(installmentsJSON), now, now)
	if err != nil {
		return fmt.Errorf("failed to save slab: %w", err)
	}
	return nil
}

func (s *Store) Slab(ctx context.Context, id fees.SlabID) (fees.FeeSlab, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, academic_year, total_amount, installments_json FROM fee_slabs WHERE id = ?`, id)
	return scanSlab(row)
}

func (s *Store) ListSlabs(ctx context.Context) ([]fees.FeeSlab, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, academic_year, total_amount, installments_json FROM fee_slabs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list slabs: %w", err)
	}
	defer rows.Close()

	var slabs []fees.FeeSlab
	for rows.Next() {
		slab, err := scanSlab(rows)
		if err != nil {
			return nil, err
		}
		slabs = append(slabs, slab)
	}
	return slabs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlab(row rowScanner) (fees.FeeSlab, error) {
	var (
		slab             fees.FeeSlab
		totalStr         string
		installmentsJSON string
	)
	err := row.Scan(&slab.ID, &slab.Name, &slab.AcademicYear, &totalStr, &installmentsJSON)
	if err == sql.ErrNoRows {
		return fees.FeeSlab{}, school.ErrSlabNotFound
	}
	if err != nil {
		return fees.FeeSlab{}, fmt.Errorf("failed to scan slab: %w", err)
	}

	slab.TotalAmount, err = decimal.NewFromString(totalStr)
	if err != nil {
		return fees.FeeSlab{}, fmt.Errorf("corrupt total_amount for slab %s: %w", slab.ID, err)
	}

	var irows []installmentRow
	if err := json.Unmarshal([]byte(installmentsJSON), &irows); err != nil {
		return fees.FeeSlab{}, fmt.Errorf("corrupt installments for slab %s: %w", slab.ID, err)
	}
	slab.Installments = make([]fees.InstallmentSpec, len(irows))
	for i, r := range irows {
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			return fees.FeeSlab{}, fmt.Errorf("corrupt installment amount for slab %s: %w", slab.ID, err)
		}
		pct, err := decimal.NewFromString(r.Percentage)
		if err != nil {
			return fees.FeeSlab{}, fmt.Errorf("corrupt installment percentage for slab %s: %w", slab.ID, err)
		}
		due, err := fees.ParseDate(r.DueDate)
		if err != nil {
			return fees.FeeSlab{}, fmt.Errorf("corrupt installment due date for slab %s: %w", slab.ID, err)
		}
		slab.Installments[i] = fees.InstallmentSpec{
			InstallmentNumber: r.InstallmentNumber,
			Amount:            amount,
			Percentage:        pct,
			DueDate:           due,
			Description:       r.Description,
		}
	}
	return slab, nil
}

// =============================================================================
// STUDENTS
// =============================================================================

func (s *Store) SaveStudent(ctx context.Context, student school.StudentAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO students (id, name, class_id, academic_year, slab_id, concession_amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			class_id = excluded.class_id,
			academic_year = excluded.academic_year,
			slab_id = excluded.slab_id,
			concession_amount = excluded.concession_amount,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		student.ID, student.Name, student.ClassID, student.AcademicYear,
		student.SlabID, student.ConcessionAmount.String(), now, now)
	if err != nil {
		return fmt.Errorf("failed to save student: %w", err)
	}
	return nil
}

func (s *Store) Student(ctx context.Context, id fees.StudentID) (school.StudentAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, class_id, academic_year, slab_id, concession_amount FROM students WHERE id = ?`, id)
	return scanStudent(row)
}

func (s *Store) ListStudents(ctx context.Context, classID string) ([]school.StudentAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, name, class_id, academic_year, slab_id, concession_amount FROM students`
	args := []any{}
	if classID != "" {
		query += ` WHERE class_id = ?`
		args = append(args, classID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []school.StudentAccount
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

func (s *Store) UpdateConcession(ctx context.Context, id fees.StudentID, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE students SET concession_amount = ?, updated_at = ? WHERE id = ?`,
		amount.String(), time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("failed to update concession: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return school.ErrStudentNotFound
	}
	return nil
}

func scanStudent(row rowScanner) (school.StudentAccount, error) {
	var (
		student       school.StudentAccount
		concessionStr string
	)
	err := row.Scan(&student.ID, &student.Name, &student.ClassID,
		&student.AcademicYear, &student.SlabID, &concessionStr)
	if err == sql.ErrNoRows {
		return school.StudentAccount{}, school.ErrStudentNotFound
	}
	if err != nil {
		return school.StudentAccount{}, fmt.Errorf("failed to scan student: %w", err)
	}
	student.ConcessionAmount, err = decimal.NewFromString(concessionStr)
	if err != nil {
		return school.StudentAccount{}, fmt.Errorf("corrupt concession for student %s: %w", student.ID, err)
	}
	return student, nil
}

// =============================================================================
// PAYMENT LEDGER (append-only)
// =============================================================================

func (s *Store) AppendPayment(ctx context.Context, entry fees.PaymentLedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO payments
		(id, student_id, amount, payment_date, method, transaction_id, idempotency_key, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		entry.StudentID,
		entry.Amount.String(),
		entry.PaymentDate.String(),
		entry.Method,
		nullString(entry.TransactionID),
		nullString(entry.IdempotencyKey),
		nullString(entry.Note),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return school.ErrDuplicatePayment
		}
		return fmt.Errorf("failed to append payment: %w", err)
	}
	return nil
}

func (s *Store) PaymentsByStudent(ctx context.Context, id fees.StudentID) ([]fees.PaymentLedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paymentsLocked(ctx, id)
}

func (s *Store) paymentsLocked(ctx context.Context, id fees.StudentID) ([]fees.PaymentLedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, student_id, amount, payment_date, method, transaction_id, idempotency_key, note
		FROM payments WHERE student_id = ? ORDER BY payment_date, created_at`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	defer rows.Close()

	var entries []fees.PaymentLedgerEntry
	for rows.Next() {
		var (
			e         fees.PaymentLedgerEntry
			amountStr string
			dateStr   string
			txnID     sql.NullString
			idemKey   sql.NullString
			note      sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.StudentID, &amountStr, &dateStr, &e.Method, &txnID, &idemKey, &note); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		e.Amount, err = decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt payment amount for entry %s: %w", e.ID, err)
		}
		e.PaymentDate, err = fees.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt payment date for entry %s: %w", e.ID, err)
		}
		e.TransactionID = txnID.String
		e.IdempotencyKey = idemKey.String
		e.Note = note.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) TotalPaid(ctx context.Context, id fees.StudentID) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Amounts are stored as decimal strings, so the sum happens in Go, not
	// SQL - SQLite would coerce the column to float.
	entries, err := s.paymentsLocked(ctx, id)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return fees.SumEntries(entries), nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
