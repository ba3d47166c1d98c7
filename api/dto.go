/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY ENCODING:
  All monetary values cross the wire as decimal STRINGS ("12000.00"),
  never JSON floats. Clients that send floats for money eventually send
  the wrong money.

VALIDATION:
  Request types carry validator/v10 struct tags; handlers run them
  through a shared *validator.Validate before touching domain logic.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/slab.go: SlabJSON definition type
*/
package api

import (
	"github.com/campusworks/fee-engine/fees"
	"github.com/campusworks/fee-engine/school"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateStudentRequest enrolls a student against a fee slab.
type CreateStudentRequest struct {
	ID           string `json:"id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	ClassID      string `json:"class_id" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
	SlabID       string `json:"slab_id" validate:"required"`
	Concession   string `json:"concession,omitempty"`
}

// RecordPaymentRequest appends one payment to a student's ledger.
type RecordPaymentRequest struct {
	Amount         string `json:"amount" validate:"required"`
	PaymentDate    string `json:"payment_date" validate:"required"`
	Method         string `json:"method" validate:"required,oneof=cash card cheque bank_transfer online"`
	TransactionID  string `json:"transaction_id,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	Note           string `json:"note,omitempty"`
}

// ConcessionRequest grants (or, with amount 0, revokes) a concession.
type ConcessionRequest struct {
	Amount string `json:"amount" validate:"required"`
	Reason string `json:"reason,omitempty"`
}

// LoadScenarioRequest selects a demo scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// SlabDTO is a fee slab with its normalized schedule.
type SlabDTO struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	AcademicYear string           `json:"academic_year"`
	TotalAmount  string           `json:"total_amount"`
	Installments []InstallmentDTO `json:"installments"`
}

// InstallmentDTO is one normalized installment definition.
type InstallmentDTO struct {
	InstallmentNumber int    `json:"installment_number"`
	Amount            string `json:"amount"`
	Percentage        string `json:"percentage"`
	DueDate           string `json:"due_date"`
	Description       string `json:"description,omitempty"`
}

// StudentDTO is a student account.
type StudentDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ClassID      string `json:"class_id"`
	AcademicYear string `json:"academic_year"`
	SlabID       string `json:"slab_id"`
	Concession   string `json:"concession"`
}

// InstallmentViewDTO is one fully-derived schedule row.
type InstallmentViewDTO struct {
	InstallmentNumber int    `json:"installment_number"`
	DueDate           string `json:"due_date"`
	OriginalAmount    string `json:"original_amount"`
	DiscountAmount    string `json:"discount_amount"`
	AdjustedAmount    string `json:"adjusted_amount"`
	PaidAmount        string `json:"paid_amount"`
	RemainingAmount   string `json:"remaining_amount"`
	Status            string `json:"status"`
}

// ScheduleDTO is a student's derived schedule plus its inputs.
type ScheduleDTO struct {
	Student      StudentDTO           `json:"student"`
	SlabID       string               `json:"slab_id"`
	TotalAmount  string               `json:"total_amount"`
	FeesPaid     string               `json:"fees_paid"`
	Installments []InstallmentViewDTO `json:"installments"`
}

// OverdueSummaryDTO is the overdue rollup for one student or an aggregate.
type OverdueSummaryDTO struct {
	TotalOverdueAmount string `json:"total_overdue_amount"`
	OverdueCount       int    `json:"overdue_count"`
}

// StudentOverdueDTO pairs a student with their rollup.
type StudentOverdueDTO struct {
	StudentID string            `json:"student_id"`
	Name      string            `json:"name"`
	ClassID   string            `json:"class_id"`
	Summary   OverdueSummaryDTO `json:"summary"`
}

// OverdueReportDTO is the class/school dashboard aggregate.
type OverdueReportDTO struct {
	ReferenceDate string              `json:"reference_date"`
	ClassID       string              `json:"class_id,omitempty"`
	Students      []StudentOverdueDTO `json:"students"`
	Total         OverdueSummaryDTO   `json:"total"`
}

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toSlabDTO(slab fees.FeeSlab) SlabDTO {
	installments := make([]InstallmentDTO, len(slab.Installments))
	for i, inst := range slab.Installments {
		installments[i] = InstallmentDTO{
			InstallmentNumber: inst.InstallmentNumber,
			Amount:            inst.Amount.StringFixed(2),
			Percentage:        inst.Percentage.StringFixed(2),
			DueDate:           inst.DueDate.String(),
			Description:       inst.Description,
		}
	}
	return SlabDTO{
		ID:           string(slab.ID),
		Name:         slab.Name,
		AcademicYear: slab.AcademicYear,
		TotalAmount:  slab.TotalAmount.StringFixed(2),
		Installments: installments,
	}
}

func toStudentDTO(s school.StudentAccount) StudentDTO {
	return StudentDTO{
		ID:           string(s.ID),
		Name:         s.Name,
		ClassID:      s.ClassID,
		AcademicYear: s.AcademicYear,
		SlabID:       string(s.SlabID),
		Concession:   s.ConcessionAmount.StringFixed(2),
	}
}

func toScheduleDTO(sched school.StudentSchedule) ScheduleDTO {
	views := make([]InstallmentViewDTO, len(sched.Installments))
	for i, v := range sched.Installments {
		views[i] = InstallmentViewDTO{
			InstallmentNumber: v.InstallmentNumber,
			DueDate:           v.DueDate.String(),
			OriginalAmount:    v.OriginalAmount.StringFixed(2),
			DiscountAmount:    v.DiscountAmount.StringFixed(2),
			AdjustedAmount:    v.AdjustedAmount.StringFixed(2),
			PaidAmount:        v.PaidAmount.StringFixed(2),
			RemainingAmount:   v.RemainingAmount.StringFixed(2),
			Status:            string(v.Status),
		}
	}
	return ScheduleDTO{
		Student:      toStudentDTO(sched.Student),
		SlabID:       string(sched.Slab.ID),
		TotalAmount:  sched.Slab.TotalAmount.StringFixed(2),
		FeesPaid:     sched.FeesPaid.StringFixed(2),
		Installments: views,
	}
}

func toSummaryDTO(s fees.OverdueSummary) OverdueSummaryDTO {
	return OverdueSummaryDTO{
		TotalOverdueAmount: s.TotalOverdueAmount.StringFixed(2),
		OverdueCount:       s.OverdueCount,
	}
}

func toReportDTO(r school.OverdueReport) OverdueReportDTO {
	students := make([]StudentOverdueDTO, len(r.Students))
	for i, so := range r.Students {
		students[i] = StudentOverdueDTO{
			StudentID: string(so.StudentID),
			Name:      so.Name,
			ClassID:   so.ClassID,
			Summary:   toSummaryDTO(so.Summary),
		}
	}
	return OverdueReportDTO{
		ReferenceDate: r.ReferenceDate.String(),
		ClassID:       r.ClassID,
		Students:      students,
		Total:         toSummaryDTO(r.Total),
	}
}
