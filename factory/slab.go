/*
Package factory provides JSON to Go fee-slab conversion.

PURPOSE:
  Converts JSON slab definitions into validated, normalized fees.FeeSlab
  values. This enables fee configuration without code changes - school
  administrators define slabs in JSON, and the factory runs them through
  the normalizer before anything is stored.

WHY JSON?
  - Non-developers can define fee plans
  - Easy integration with the admin UI
  - Version control for fee definitions
  - Database storage of slab configs

JSON SCHEMA:
  {
    "id": "slab-g5-2024",
    "slab_name": "Grade 5 Annual",
    "academic_year": "2024-25",
    "total_amount": "20000",
    "installments": [
      {"amount": "10000", "due_date": "2024-01-01", "description": "Term 1"},
      {"amount": "10000", "due_date": "2024-06-01", "description": "Term 2"}
    ]
  }

  Amounts accept JSON numbers or strings (strings recommended - they avoid
  client-side float formatting). "percentage" per installment is optional;
  when omitted it is derived from the amount.

KEY FEATURES:
  - Validates JSON structure and required fields
  - Normalizes percentages (sum-exact 100.00) before returning
  - Preset builders for common schedules

USAGE:
  f := factory.NewSlabFactory()
  slab, err := f.ParseSlab(jsonString)

SEE ALSO:
  - fees/normalize.go: The validation this delegates to
  - api/handlers.go: Create-slab endpoint using this factory
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/campusworks/fee-engine/fees"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// SlabJSON is the JSON representation of a fee slab definition.
type SlabJSON struct {
	ID           string            `json:"id"`
	SlabName     string            `json:"slab_name"`
	AcademicYear string            `json:"academic_year"`
	TotalAmount  decimal.Decimal   `json:"total_amount"`
	Installments []InstallmentJSON `json:"installments"`
}

// InstallmentJSON is one installment in a slab definition.
type InstallmentJSON struct {
	Amount      decimal.Decimal  `json:"amount"`
	Percentage  *decimal.Decimal `json:"percentage,omitempty"`
	DueDate     string           `json:"due_date"`
	Description string           `json:"description,omitempty"`
}

// =============================================================================
// SLAB FACTORY
// =============================================================================

type SlabFactory struct{}

func NewSlabFactory() *SlabFactory {
	return &SlabFactory{}
}

// ParseSlab converts a JSON slab definition into a normalized FeeSlab.
func (f *SlabFactory) ParseSlab(jsonStr string) (fees.FeeSlab, error) {
	var sj SlabJSON
	if err := json.Unmarshal([]byte(jsonStr), &sj); err != nil {
		return fees.FeeSlab{}, fmt.Errorf("invalid slab JSON: %w", err)
	}
	return f.BuildSlab(sj)
}

// BuildSlab validates and normalizes an already-decoded definition.
func (f *SlabFactory) BuildSlab(sj SlabJSON) (fees.FeeSlab, error) {
	if strings.TrimSpace(sj.ID) == "" {
		return fees.FeeSlab{}, fmt.Errorf("slab definition: missing id")
	}
	if strings.TrimSpace(sj.SlabName) == "" {
		return fees.FeeSlab{}, fmt.Errorf("slab definition %q: missing slab_name", sj.ID)
	}

	drafts := make([]fees.InstallmentDraft, len(sj.Installments))
	for i, inst := range sj.Installments {
		due, err := fees.ParseDate(inst.DueDate)
		if err != nil {
			return fees.FeeSlab{}, fmt.Errorf("slab definition %q: installments[%d].due_date: %w", sj.ID, i, err)
		}
		drafts[i] = fees.InstallmentDraft{
			Amount:      inst.Amount,
			Percentage:  inst.Percentage,
			DueDate:     due,
			Description: inst.Description,
		}
	}

	return fees.NewSlab(fees.SlabID(sj.ID), sj.SlabName, sj.AcademicYear, sj.TotalAmount, drafts)
}

// ToJSON renders a normalized slab back into its definition form
// (percentages filled in), for API responses and storage.
func ToJSON(slab fees.FeeSlab) SlabJSON {
	installments := make([]InstallmentJSON, len(slab.Installments))
	for i, inst := range slab.Installments {
		pct := inst.Percentage
		installments[i] = InstallmentJSON{
			Amount:      inst.Amount,
			Percentage:  &pct,
			DueDate:     inst.DueDate.String(),
			Description: inst.Description,
		}
	}
	return SlabJSON{
		ID:           string(slab.ID),
		SlabName:     slab.Name,
		AcademicYear: slab.AcademicYear,
		TotalAmount:  slab.TotalAmount,
		Installments: installments,
	}
}

// =============================================================================
// PRESET BUILDERS
// =============================================================================

// EqualInstallmentsJSON builds a definition splitting total into n equal
// monthly installments starting at firstDue. The normalizer's last-entry
// correction absorbs any rounding drift (e.g. 3 x 33.33 -> 33.34 last).
func EqualInstallmentsJSON(id, name, academicYear string, total decimal.Decimal, n int, firstDue fees.Date) string {
	per := fees.RoundMoney(total.Div(decimal.NewFromInt(int64(n))))
	installments := make([]InstallmentJSON, n)
	due := firstDue
	for i := 0; i < n; i++ {
		amount := per
		if i == n-1 {
			// Last installment takes the remainder so amounts sum exactly.
			amount = total.Sub(per.Mul(decimal.NewFromInt(int64(n - 1))))
		}
		installments[i] = InstallmentJSON{
			Amount:      amount,
			DueDate:     due.String(),
			Description: fmt.Sprintf("Installment %d", i+1),
		}
		due = due.AddMonths(1)
	}

	out, _ := json.Marshal(SlabJSON{
		ID:           id,
		SlabName:     name,
		AcademicYear: academicYear,
		TotalAmount:  total,
		Installments: installments,
	})
	return string(out)
}

// TermScheduleJSON builds a classic 60/40 two-term definition.
func TermScheduleJSON(id, name, academicYear string, total decimal.Decimal, term1Due, term2Due fees.Date) string {
	p60 := fees.MustDecimal("60")
	p40 := fees.MustDecimal("40")
	out, _ := json.Marshal(SlabJSON{
		ID:           id,
		SlabName:     name,
		AcademicYear: academicYear,
		TotalAmount:  total,
		Installments: []InstallmentJSON{
			{Percentage: &p60, DueDate: term1Due.String(), Description: "Term 1"},
			{Percentage: &p40, DueDate: term2Due.String(), Description: "Term 2"},
		},
	})
	return string(out)
}
