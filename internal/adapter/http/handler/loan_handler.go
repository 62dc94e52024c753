package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/nxfinance/loans/internal/adapter/http/dto"
	"github.com/nxfinance/loans/internal/domain"
	"github.com/nxfinance/loans/internal/usecase"
)

// LoanService defines the behavior needed by LoanHandler.
type LoanService interface {
	Apply(ctx context.Context, input usecase.ApplyInput) (*domain.Loan, error)
	Approve(ctx context.Context, loanID string, approvalDate time.Time) (*domain.Loan, error)
	Reject(ctx context.Context, loanID, reason string) (*domain.Loan, error)
	MarkDefaulted(ctx context.Context, loanID, reason string) (*domain.Loan, error)
	GetLoan(ctx context.Context, id string) (*domain.Loan, error)
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*domain.Loan, error)
	ListByStatus(ctx context.Context, status domain.LoanStatus, limit, offset int) ([]*domain.Loan, error)
}

// LoanHandler handles loan application and lifecycle requests.
type LoanHandler struct {
	loanUC  LoanService
	retrier Retrier
}

// NewLoanHandler creates a new LoanHandler. A nil retrier runs each
// operation once.
func NewLoanHandler(loanUC LoanService, retrier Retrier) *LoanHandler {
	return &LoanHandler{loanUC: loanUC, retrier: retrierOrDirect(retrier)}
}

// Apply submits a loan application.
func (h *LoanHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req dto.ApplyLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if user, ok := domain.UserFromContext(r.Context()); ok && user.Role == domain.RoleCustomer && req.CustomerID == "" {
		req.CustomerID = user.CustomerID
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	if err := authorizeCustomer(r.Context(), input.CustomerID); err != nil {
		writeDomainError(w, "failed to apply for loan", err)
		return
	}

	var loan *domain.Loan
	err = h.retrier.Retry(r.Context(), "apply_loan", func() error {
		var applyErr error
		loan, applyErr = h.loanUC.Apply(r.Context(), input)
		return applyErr
	})
	if err != nil {
		writeDomainError(w, "failed to apply for loan", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.LoanFromDomain(loan))
}

// Get retrieves a loan by ID.
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan ID", err.Error())
		return
	}

	loan, err := h.loanUC.GetLoan(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get loan", err)
		return
	}

	if err := authorizeCustomer(r.Context(), loan.CustomerID); err != nil {
		writeDomainError(w, "failed to get loan", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

// ListByCustomer lists a customer's loans, newest first.
func (h *LoanHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer ID", err.Error())
		return
	}

	if err := authorizeCustomer(r.Context(), customerID); err != nil {
		writeDomainError(w, "failed to list loans", err)
		return
	}

	limit, offset := pagination(r)

	loans, err := h.loanUC.ListByCustomer(r.Context(), customerID, limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list loans", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.LoanResponse]{
		Items:  dto.LoansFromDomain(loans),
		Limit:  limit,
		Offset: offset,
	})
}

// ListByStatus lists loans in one status. Defaults to the pending queue.
func (h *LoanHandler) ListByStatus(w http.ResponseWriter, r *http.Request) {
	status := domain.LoanStatusPending
	if s := r.URL.Query().Get("status"); s != "" {
		parsed, err := domain.ParseLoanStatus(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid status", err.Error())
			return
		}
		status = parsed
	}

	limit, offset := pagination(r)

	loans, err := h.loanUC.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list loans", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.LoanResponse]{
		Items:  dto.LoansFromDomain(loans),
		Limit:  limit,
		Offset: offset,
	})
}

// Approve activates a pending loan and disburses its principal.
func (h *LoanHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan ID", err.Error())
		return
	}

	var req dto.ApproveLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var loan *domain.Loan
	err = h.retrier.Retry(r.Context(), "approve_loan", func() error {
		var approveErr error
		loan, approveErr = h.loanUC.Approve(r.Context(), id, req.Date())
		return approveErr
	})
	if err != nil {
		writeDomainError(w, "failed to approve loan", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

// Reject closes a pending application.
func (h *LoanHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, "reject_loan", "failed to reject loan", h.loanUC.Reject)
}

// MarkDefaulted moves an active loan to defaulted.
func (h *LoanHandler) MarkDefaulted(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, "default_loan", "failed to mark loan defaulted", h.loanUC.MarkDefaulted)
}

func (h *LoanHandler) changeStatus(
	w http.ResponseWriter,
	r *http.Request,
	op, message string,
	apply func(ctx context.Context, loanID, reason string) (*domain.Loan, error),
) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan ID", err.Error())
		return
	}

	var req dto.StatusChangeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid reason", err.Error())
		return
	}

	var loan *domain.Loan
	err = h.retrier.Retry(r.Context(), op, func() error {
		var applyErr error
		loan, applyErr = apply(r.Context(), id, req.Reason)
		return applyErr
	})
	if err != nil {
		writeDomainError(w, message, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}
