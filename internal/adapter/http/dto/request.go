package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nxfinance/loans/internal/domain"
	"github.com/nxfinance/loans/internal/usecase"
)

// ApplyLoanRequest represents a customer's loan application.
type ApplyLoanRequest struct {
	CustomerID            string `json:"customer_id"`
	LoanTypeID            string `json:"loan_type_id"`
	Amount                string `json:"amount"`
	TermMonths            int    `json:"term_months"`
	Purpose               string `json:"purpose,omitempty"`
	DisbursementAccountID string `json:"disbursement_account_id,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ApplyLoanRequest) ToUseCaseInput() (usecase.ApplyInput, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.ApplyInput{}, err
	}

	return usecase.ApplyInput{
		CustomerID:            r.CustomerID,
		LoanTypeID:            r.LoanTypeID,
		Amount:                amount,
		TermMonths:            r.TermMonths,
		Purpose:               r.Purpose,
		DisbursementAccountID: r.DisbursementAccountID,
	}, nil
}

// MakePaymentRequest represents a payment against a loan. The loan ID and
// idempotency key come from the path and the Idempotency-Key header.
type MakePaymentRequest struct {
	Amount          string `json:"amount"`
	SourceAccountID string `json:"source_account_id,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *MakePaymentRequest) ToUseCaseInput(loanID, idempotencyKey string) (usecase.MakePaymentInput, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return usecase.MakePaymentInput{}, err
	}

	return usecase.MakePaymentInput{
		LoanID:          loanID,
		Amount:          amount,
		SourceAccountID: r.SourceAccountID,
		IdempotencyKey:  idempotencyKey,
	}, nil
}

// ApproveLoanRequest optionally backdates the approval. An empty body
// approves as of now.
type ApproveLoanRequest struct {
	ApprovalDate *time.Time `json:"approval_date,omitempty"`
}

// Date returns the requested approval date, zero when unset.
func (r *ApproveLoanRequest) Date() time.Time {
	if r.ApprovalDate == nil {
		return time.Time{}
	}
	return *r.ApprovalDate
}

// StatusChangeRequest carries the reason for a reject or default transition.
type StatusChangeRequest struct {
	Reason string `json:"reason"`
}

// Validate checks the reason length.
func (r *StatusChangeRequest) Validate() error {
	if len(r.Reason) > domain.MaxReasonLength {
		return fmt.Errorf("%w: reason must not exceed %d characters", domain.ErrInvalidInput, domain.MaxReasonLength)
	}
	return nil
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: amount is required", domain.ErrInvalidInput)
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid amount %q", domain.ErrInvalidInput, s)
	}

	return amount, nil
}
