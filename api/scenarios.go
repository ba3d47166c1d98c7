/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the database with realistic
  data for testing and demos. Each scenario creates slabs, students,
  concessions, and payments that demonstrate specific behaviors of the
  computation core.

AVAILABLE SCENARIOS:
  two-term:         Classic 60/40 two-term slab, mixed payment states
  drift-correction: 3x10000 of 30000 - percentages 33.33/33.33/33.34
  concession:       Scholarship students with proportional discounts
  overdue-class:    A class with several past-due partial payers

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create slabs via factory
 3. Enroll students
 4. Grant concessions
 5. Record payments

NOTE:
  Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Error mapping helpers
  - factory/slab.go: Slab JSON definitions
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/campusworks/fee-engine/factory"
	"github.com/campusworks/fee-engine/fees"
	"github.com/campusworks/fee-engine/school"
)

// Resetter is implemented by stores that can wipe themselves (dev/demo).
type Resetter interface {
	Reset(ctx context.Context) error
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "two-term",
		Name:        "Two-Term Slab",
		Description: "60/40 two-term fee plan with students in every payment state",
	},
	{
		ID:          "drift-correction",
		Name:        "Rounding Drift Correction",
		Description: "Three equal installments of 30000: 33.33 + 33.33 + 33.34",
	},
	{
		ID:          "concession",
		Name:        "Scholarship Concessions",
		Description: "Proportional concession spread across all installments",
	},
	{
		ID:          "overdue-class",
		Name:        "Overdue Dashboard",
		Description: "A class with several past-due partial payers for the aggregate report",
	},
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.reset(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	ctx := r.Context()
	if err := h.reset(ctx); err != nil {
		writeDomainError(w, err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "two-term":
		err = h.loadTwoTermScenario(ctx)
	case "drift-correction":
		err = h.loadDriftScenario(ctx)
	case "concession":
		err = h.loadConcessionScenario(ctx)
	case "overdue-class":
		err = h.loadOverdueClassScenario(ctx)
	default:
		writeError(w, http.StatusBadRequest, "unknown_scenario", req.ScenarioID)
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario_id": req.ScenarioID})
}

func (h *Handler) reset(ctx context.Context) error {
	resetter, ok := h.Store.(Resetter)
	if !ok {
		return fmt.Errorf("store does not support reset")
	}
	return resetter.Reset(ctx)
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadTwoTermScenario(ctx context.Context) error {
	def := factory.TermScheduleJSON("slab-twoterm", "Grade 5 Two-Term", "2024-25",
		decimal.NewFromInt(50000),
		fees.NewDate(2024, time.April, 1), fees.NewDate(2024, time.October, 1))
	slab, err := h.Slabs.ParseSlab(def)
	if err != nil {
		return err
	}
	if err := h.Store.SaveSlab(ctx, slab); err != nil {
		return err
	}

	students := []struct {
		id, name string
		paid     string
	}{
		{"st-101", "Asha Verma", "50000"}, // fully paid
		{"st-102", "Rohan Iyer", "30000"}, // term 1 paid
		{"st-103", "Meera Pillai", "12000"}, // partial term 1
		{"st-104", "Kabir Shah", "0"}, // nothing paid
	}
	for _, s := range students {
		err := h.Accounts.RegisterStudent(ctx, school.StudentAccount{
			ID: fees.StudentID(s.id), Name: s.name, ClassID: "5A",
			AcademicYear: "2024-25", SlabID: slab.ID, ConcessionAmount: decimal.Zero,
		})
		if err != nil {
			return err
		}
		paid := fees.MustDecimal(s.paid)
		if paid.IsPositive() {
			_, err = h.Accounts.RecordPayment(ctx, fees.StudentID(s.id), fees.PaymentLedgerEntry{
				Amount:      paid,
				PaymentDate: fees.NewDate(2024, time.April, 5),
				Method:      fees.MethodOnline,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Handler) loadDriftScenario(ctx context.Context) error {
	def := factory.EqualInstallmentsJSON("slab-drift", "Grade 3 Monthly", "2024-25",
		decimal.NewFromInt(30000), 3, fees.NewDate(2024, time.April, 10))
	slab, err := h.Slabs.ParseSlab(def)
	if err != nil {
		return err
	}
	if err := h.Store.SaveSlab(ctx, slab); err != nil {
		return err
	}

	return h.Accounts.RegisterStudent(ctx, school.StudentAccount{
		ID: "st-201", Name: "Diya Nair", ClassID: "3B",
		AcademicYear: "2024-25", SlabID: slab.ID, ConcessionAmount: decimal.Zero,
	})
}

func (h *Handler) loadConcessionScenario(ctx context.Context) error {
	def := factory.TermScheduleJSON("slab-scholar", "Grade 8 Two-Term", "2024-25",
		decimal.NewFromInt(20000),
		fees.NewDate(2024, time.January, 1), fees.NewDate(2024, time.June, 1))
	slab, err := h.Slabs.ParseSlab(def)
	if err != nil {
		return err
	}
	if err := h.Store.SaveSlab(ctx, slab); err != nil {
		return err
	}

	err = h.Accounts.RegisterStudent(ctx, school.StudentAccount{
		ID: "st-301", Name: "Sana Qureshi", ClassID: "8C",
		AcademicYear: "2024-25", SlabID: slab.ID,
		ConcessionAmount: fees.MustDecimal("2000"),
	})
	if err != nil {
		return err
	}

	_, err = h.Accounts.RecordPayment(ctx, "st-301", fees.PaymentLedgerEntry{
		Amount:      fees.MustDecimal("12000"),
		PaymentDate: fees.NewDate(2024, time.January, 15),
		Method:      fees.MethodTransfer,
	})
	return err
}

func (h *Handler) loadOverdueClassScenario(ctx context.Context) error {
	def := factory.EqualInstallmentsJSON("slab-quarterly", "Grade 6 Quarterly", "2024-25",
		decimal.NewFromInt(40000), 4, fees.NewDate(2024, time.April, 1))
	slab, err := h.Slabs.ParseSlab(def)
	if err != nil {
		return err
	}
	if err := h.Store.SaveSlab(ctx, slab); err != nil {
		return err
	}

	students := []struct {
		id, name, paid string
	}{
		{"st-401", "Arjun Rao", "40000"},
		{"st-402", "Nisha Patel", "15000"},
		{"st-403", "Vikram Singh", "5000"},
		{"st-404", "Lata Kulkarni", "0"},
	}
	for _, s := range students {
		err := h.Accounts.RegisterStudent(ctx, school.StudentAccount{
			ID: fees.StudentID(s.id), Name: s.name, ClassID: "6A",
			AcademicYear: "2024-25", SlabID: slab.ID, ConcessionAmount: decimal.Zero,
		})
		if err != nil {
			return err
		}
		paid := fees.MustDecimal(s.paid)
		if paid.IsPositive() {
			_, err = h.Accounts.RecordPayment(ctx, fees.StudentID(s.id), fees.PaymentLedgerEntry{
				Amount:      paid,
				PaymentDate: fees.NewDate(2024, time.April, 2),
				Method:      fees.MethodCash,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}
