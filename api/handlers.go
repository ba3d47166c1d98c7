/*
handlers.go - HTTP API handlers for the fee ledger system

PURPOSE:
  Exposes the fee computation core via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Slabs:
    GET    /api/slabs                  List fee slabs
    POST   /api/slabs                  Create slab (normalizer-validated)
    GET    /api/slabs/{id}             Slab with normalized schedule

  Students:
    GET    /api/students               List students (?class_id=)
    POST   /api/students               Enroll student against a slab
    GET    /api/students/{id}          Student account
    GET    /api/students/{id}/schedule Derived installment schedule
    GET    /api/students/{id}/payments Payment ledger
    POST   /api/students/{id}/payments Record payment
    POST   /api/students/{id}/concession Grant/revoke concession
    GET    /api/students/{id}/overdue  Overdue summary (?as_of=)

  Reports:
    GET    /api/reports/overdue        Class/school aggregate (?class_id=&as_of=)
    GET    /api/reports/overdue/latest Cached school-wide snapshot

  Scenarios:
    GET    /api/scenarios              List demo scenarios
    POST   /api/scenarios/load         Load a demo scenario
    POST   /api/scenarios/reset        Wipe the database (dev only)

REFERENCE DATES:
  Overdue endpoints take an explicit ?as_of=YYYY-MM-DD. When absent the
  handler passes today's date in; the computation core itself never reads
  the clock.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input (fees.IsClientError)
  - 404: Slab/student not found
  - 409: Duplicate payment idempotency key
  - 500: Internal errors

SECURITY NOTE:
  No authentication middleware. Authorization is owned by the gateway in
  front of this service.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/campusworks/fee-engine/factory"
	"github.com/campusworks/fee-engine/fees"
	"github.com/campusworks/fee-engine/school"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    school.Store
	Accounts *school.AccountService
	Slabs    *factory.SlabFactory

	snapshots *OverdueSnapshotScheduler // optional, set by main
	validate  *validator.Validate
}

func NewHandler(store school.Store) *Handler {
	return &Handler{
		Store:    store,
		Accounts: school.NewAccountService(store),
		Slabs:    factory.NewSlabFactory(),
		validate: validator.New(),
	}
}

// AttachScheduler wires the overdue snapshot scheduler so the cached
// dashboard endpoint can serve its latest run.
func (h *Handler) AttachScheduler(s *OverdueSnapshotScheduler) {
	h.snapshots = s
}

// =============================================================================
// SLAB HANDLERS
// =============================================================================

func (h *Handler) CreateSlab(w http.ResponseWriter, r *http.Request) {
	var def factory.SlabJSON
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}

	// Nothing invalid is ever stored: the factory runs the definition
	// through the normalizer first.
	slab, err := h.Slabs.BuildSlab(def)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.Store.SaveSlab(r.Context(), slab); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSlabDTO(slab))
}

func (h *Handler) ListSlabs(w http.ResponseWriter, r *http.Request) {
	slabs, err := h.Store.ListSlabs(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]SlabDTO, len(slabs))
	for i, s := range slabs {
		dtos[i] = toSlabDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetSlab(w http.ResponseWriter, r *http.Request) {
	slab, err := h.Store.Slab(r.Context(), fees.SlabID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSlabDTO(slab))
}

// =============================================================================
// STUDENT HANDLERS
// =============================================================================

func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	concession := decimal.Zero
	if req.Concession != "" {
		var err error
		concession, err = decimal.NewFromString(req.Concession)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_concession", err.Error())
			return
		}
	}

	student := school.StudentAccount{
		ID:               fees.StudentID(req.ID),
		Name:             req.Name,
		ClassID:          req.ClassID,
		AcademicYear:     req.AcademicYear,
		SlabID:           fees.SlabID(req.SlabID),
		ConcessionAmount: concession,
	}
	if err := h.Accounts.RegisterStudent(r.Context(), student); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toStudentDTO(student))
}

func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.Store.ListStudents(r.Context(), r.URL.Query().Get("class_id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]StudentDTO, len(students))
	for i, s := range students {
		dtos[i] = toStudentDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.Store.Student(r.Context(), fees.StudentID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentDTO(student))
}

func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.Accounts.Schedule(r.Context(), fees.StudentID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(sched))
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.PaymentsByStudent(r.Context(), fees.StudentID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	type paymentDTO struct {
		ID            string `json:"id"`
		Amount        string `json:"amount"`
		PaymentDate   string `json:"payment_date"`
		Method        string `json:"method"`
		TransactionID string `json:"transaction_id,omitempty"`
		Note          string `json:"note,omitempty"`
	}
	dtos := make([]paymentDTO, len(entries))
	for i, e := range entries {
		dtos[i] = paymentDTO{
			ID:            string(e.ID),
			Amount:        e.Amount.StringFixed(2),
			PaymentDate:   e.PaymentDate.String(),
			Method:        string(e.Method),
			TransactionID: e.TransactionID,
			Note:          e.Note,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_amount", err.Error())
		return
	}
	paymentDate, err := fees.ParseDate(req.PaymentDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_payment_date", err.Error())
		return
	}

	sched, err := h.Accounts.RecordPayment(r.Context(),
		fees.StudentID(chi.URLParam(r, "id")),
		fees.PaymentLedgerEntry{
			Amount:         amount,
			PaymentDate:    paymentDate,
			Method:         fees.PaymentMethod(req.Method),
			TransactionID:  req.TransactionID,
			IdempotencyKey: req.IdempotencyKey,
			Note:           req.Note,
		})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScheduleDTO(sched))
}

func (h *Handler) SetConcession(w http.ResponseWriter, r *http.Request) {
	var req ConcessionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_amount", err.Error())
		return
	}

	id := fees.StudentID(chi.URLParam(r, "id"))
	if err := h.Accounts.GrantConcession(r.Context(), id, amount); err != nil {
		writeDomainError(w, err)
		return
	}

	sched, err := h.Accounts.Schedule(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScheduleDTO(sched))
}

func (h *Handler) GetStudentOverdue(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.referenceDate(w, r)
	if !ok {
		return
	}

	so, err := h.Accounts.Overdue(r.Context(), fees.StudentID(chi.URLParam(r, "id")), asOf)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StudentOverdueDTO{
		StudentID: string(so.StudentID),
		Name:      so.Name,
		ClassID:   so.ClassID,
		Summary:   toSummaryDTO(so.Summary),
	})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

func (h *Handler) GetOverdueReport(w http.ResponseWriter, r *http.Request) {
	asOf, ok := h.referenceDate(w, r)
	if !ok {
		return
	}

	report, err := h.Accounts.Report(r.Context(), r.URL.Query().Get("class_id"), asOf)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(report))
}

func (h *Handler) GetOverdueSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		writeError(w, http.StatusNotFound, "no_scheduler", "overdue snapshot scheduler not running")
		return
	}
	report, at, ok := h.snapshots.Latest()
	if !ok {
		writeError(w, http.StatusNotFound, "no_snapshot", "no snapshot computed yet")
		return
	}

	w.Header().Set("X-Snapshot-At", at.UTC().Format(time.RFC3339))
	writeJSON(w, http.StatusOK, toReportDTO(report))
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// referenceDate resolves ?as_of= or defaults to today. The explicit date
// is what keeps overdue results reproducible; the default exists only for
// interactive use.
func (h *Handler) referenceDate(w http.ResponseWriter, r *http.Request) (fees.Date, bool) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return fees.DateOf(time.Now()), true
	}
	asOf, err := fees.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_as_of", err.Error())
		return fees.Date{}, false
	}
	return asOf, true
}

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case school.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, school.ErrDuplicatePayment):
		writeError(w, http.StatusConflict, "duplicate_payment", err.Error())
	case fees.IsClientError(err):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal", fmt.Sprintf("internal error: %v", err))
	}
}
