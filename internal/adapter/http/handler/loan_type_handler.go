package handler

import (
	"context"
	"net/http"

	"github.com/nxfinance/loans/internal/adapter/http/dto"
	"github.com/nxfinance/loans/internal/domain"
)

// LoanTypeService defines the behavior needed by LoanTypeHandler.
type LoanTypeService interface {
	GetLoanType(ctx context.Context, id string) (*domain.LoanType, error)
	ListLoanTypes(ctx context.Context) ([]*domain.LoanType, error)
}

// LoanTypeHandler serves the loan product catalog.
type LoanTypeHandler struct {
	loanTypeUC LoanTypeService
}

// NewLoanTypeHandler creates a new LoanTypeHandler.
func NewLoanTypeHandler(loanTypeUC LoanTypeService) *LoanTypeHandler {
	return &LoanTypeHandler{loanTypeUC: loanTypeUC}
}

// Get retrieves a loan type by ID.
func (h *LoanTypeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan type ID", err.Error())
		return
	}

	loanType, err := h.loanTypeUC.GetLoanType(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get loan type", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanTypeFromDomain(loanType))
}

// List lists all loan types.
func (h *LoanTypeHandler) List(w http.ResponseWriter, r *http.Request) {
	types, err := h.loanTypeUC.ListLoanTypes(r.Context())
	if err != nil {
		writeDomainError(w, "failed to list loan types", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanTypesFromDomain(types))
}
