package handler

import (
	"context"
	"net/http"

	"github.com/nxfinance/loans/internal/adapter/http/dto"
	"github.com/nxfinance/loans/internal/domain"
	"github.com/nxfinance/loans/internal/usecase"
)

// IdempotencyKeyHeader carries the client-supplied payment token.
const IdempotencyKeyHeader = "Idempotency-Key"

// PaymentService defines the behavior needed by PaymentHandler.
type PaymentService interface {
	MakePayment(ctx context.Context, input usecase.MakePaymentInput) (*usecase.PaymentResult, error)
	GetSchedule(ctx context.Context, loanID string) ([]domain.ScheduleEntry, error)
	ListPayments(ctx context.Context, loanID string, limit, offset int) ([]*domain.Payment, error)
}

// LoanLookup resolves the owner of a loan for authorization.
type LoanLookup interface {
	GetLoan(ctx context.Context, id string) (*domain.Loan, error)
}

// PaymentHandler handles repayment and schedule requests.
type PaymentHandler struct {
	paymentUC PaymentService
	loans     LoanLookup
	retrier   Retrier
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentUC PaymentService, loans LoanLookup, retrier Retrier) *PaymentHandler {
	return &PaymentHandler{paymentUC: paymentUC, loans: loans, retrier: retrierOrDirect(retrier)}
}

// MakePayment applies a repayment to a loan.
func (h *PaymentHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan ID", err.Error())
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	if err := domain.ValidateIdempotencyKey(key); err != nil {
		writeError(w, http.StatusBadRequest, "invalid idempotency key", err.Error())
		return
	}

	var req dto.MakePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(loanID, key)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	if err := h.authorize(r.Context(), loanID); err != nil {
		writeDomainError(w, "failed to make payment", err)
		return
	}

	var result *usecase.PaymentResult
	err = h.retrier.Retry(r.Context(), "make_payment", func() error {
		var payErr error
		result, payErr = h.paymentUC.MakePayment(r.Context(), input)
		return payErr
	})
	if err != nil {
		writeDomainError(w, "failed to make payment", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PaymentResultFromUseCase(result))
}

// GetSchedule returns a loan's amortization table.
func (h *PaymentHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan ID", err.Error())
		return
	}

	if err := h.authorize(r.Context(), loanID); err != nil {
		writeDomainError(w, "failed to get schedule", err)
		return
	}

	entries, err := h.paymentUC.GetSchedule(r.Context(), loanID)
	if err != nil {
		writeDomainError(w, "failed to get schedule", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ScheduleFromDomain(entries))
}

// ListPayments returns a loan's payment history.
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	loanID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid loan ID", err.Error())
		return
	}

	if err := h.authorize(r.Context(), loanID); err != nil {
		writeDomainError(w, "failed to list payments", err)
		return
	}

	limit, offset := pagination(r)

	payments, err := h.paymentUC.ListPayments(r.Context(), loanID, limit, offset)
	if err != nil {
		writeDomainError(w, "failed to list payments", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.PaymentResponse]{
		Items:  dto.PaymentsFromDomain(payments),
		Limit:  limit,
		Offset: offset,
	})
}

// authorize checks a customer caller owns the loan. Admins and
// unauthenticated deployments skip the lookup.
func (h *PaymentHandler) authorize(ctx context.Context, loanID string) error {
	user, ok := domain.UserFromContext(ctx)
	if !ok || user.Role == domain.RoleAdmin {
		return nil
	}

	loan, err := h.loans.GetLoan(ctx, loanID)
	if err != nil {
		return err
	}
	return authorizeCustomer(ctx, loan.CustomerID)
}
