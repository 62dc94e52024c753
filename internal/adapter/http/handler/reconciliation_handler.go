package handler

import (
	"context"
	"net/http"

	"github.com/nxfinance/loans/internal/adapter/http/dto"
	"github.com/nxfinance/loans/internal/domain"
	"github.com/nxfinance/loans/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	ReconcileLoan(ctx context.Context, loanID string) (*usecase.ReconciliationResult, error)
	ReconcileByStatus(ctx context.Context, status domain.LoanStatus, limit int) (*usecase.ReconciliationReport, error)
}

// ReconciliationHandler serves loan consistency checks.
type ReconciliationHandler struct {
	reconciliationUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconciliationUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationUC: reconciliationUC}
}

// CheckLoan reconciles one loan.
func (h *ReconciliationHandler) CheckLoan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan ID", err.Error())
		return
	}

	result, err := h.reconciliationUC.ReconcileLoan(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to check loan", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(result))
}

// Report reconciles loans in one status. Defaults to active loans.
func (h *ReconciliationHandler) Report(w http.ResponseWriter, r *http.Request) {
	status := domain.LoanStatusActive
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, err := domain.ParseLoanStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid status", err.Error())
			return
		}
		status = parsed
	}

	report, err := h.reconciliationUC.ReconcileByStatus(r.Context(), status, parseIntQuery(r, "limit", 100))
	if err != nil {
		writeDomainError(w, "failed to reconcile loans", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationReportFromUseCase(report))
}
