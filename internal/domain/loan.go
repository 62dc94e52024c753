package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a loan.
type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "pending"
	LoanStatusActive    LoanStatus = "active"
	LoanStatusCompleted LoanStatus = "completed"
	LoanStatusRejected  LoanStatus = "rejected"
	LoanStatusDefaulted LoanStatus = "defaulted"
)

// IsValid reports whether s is a known status.
func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanStatusPending, LoanStatusActive, LoanStatusCompleted, LoanStatusRejected, LoanStatusDefaulted:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s LoanStatus) IsTerminal() bool {
	return s == LoanStatusCompleted || s == LoanStatusRejected || s == LoanStatusDefaulted
}

// transitions lists the legal next states for each state.
var transitions = map[LoanStatus][]LoanStatus{
	LoanStatusPending: {LoanStatusActive, LoanStatusRejected},
	LoanStatusActive:  {LoanStatusCompleted, LoanStatusDefaulted},
}

// CanTransition reports whether from -> to is an edge of the state machine.
func CanTransition(from, to LoanStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Loan is the loan aggregate.
//
// PrincipalAmount, AnnualInterestRatePercent and TermMonths are fixed at
// application. RemainingBalance and MonthlyPaymentAmount are set on approval
// and stay null while the loan is pending or rejected.
type Loan struct {
	ID                        string
	CustomerID                string
	LoanTypeID                string
	PrincipalAmount           decimal.Decimal
	AnnualInterestRatePercent decimal.Decimal
	TermMonths                int
	Status                    LoanStatus
	StartDate                 *time.Time
	EndDate                   *time.Time
	RemainingBalance          decimal.NullDecimal
	MonthlyPaymentAmount      decimal.NullDecimal
	Purpose                   string
	DisbursementAccountID     string
	RejectionReason           string
	Version                   int64
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// NewLoanApplication builds a pending loan with the product's current rate.
func NewLoanApplication(id, customerID string, loanType *LoanType, amount decimal.Decimal, termMonths int, purpose, disbursementAccountID string, now time.Time) (*Loan, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidPrincipal
	}
	if termMonths <= 0 {
		return nil, ErrInvalidTerm
	}
	if err := loanType.ValidateApplication(amount, termMonths); err != nil {
		return nil, err
	}

	return &Loan{
		ID:                        id,
		CustomerID:                customerID,
		LoanTypeID:                loanType.ID,
		PrincipalAmount:           amount,
		AnnualInterestRatePercent: loanType.AnnualInterestRatePercent,
		TermMonths:                termMonths,
		Status:                    LoanStatusPending,
		Purpose:                   purpose,
		DisbursementAccountID:     disbursementAccountID,
		CreatedAt:                 now,
		UpdatedAt:                 now,
	}, nil
}

// MonthlyRate is the loan's snapshotted rate as a monthly fraction.
func (l *Loan) MonthlyRate() decimal.Decimal {
	return MonthlyRate(l.AnnualInterestRatePercent)
}

// Balance returns the remaining balance, zero when undefined.
func (l *Loan) Balance() decimal.Decimal {
	if !l.RemainingBalance.Valid {
		return decimal.Zero
	}
	return l.RemainingBalance.Decimal
}

// Activate approves a pending loan as of approvalDate and computes its
// repayment terms.
func (l *Loan) Activate(approvalDate, now time.Time) error {
	if l.Status != LoanStatusPending {
		return fmt.Errorf("%w: cannot approve loan with status %s", ErrLoanNotPending, l.Status)
	}

	payment, err := InstallmentAmount(l.PrincipalAmount, l.AnnualInterestRatePercent, l.TermMonths)
	if err != nil {
		return err
	}

	start := approvalDate
	end := AddMonths(approvalDate, l.TermMonths)

	l.StartDate = &start
	l.EndDate = &end
	l.MonthlyPaymentAmount = decimal.NewNullDecimal(payment)
	l.RemainingBalance = decimal.NewNullDecimal(l.PrincipalAmount)
	l.Status = LoanStatusActive
	l.UpdatedAt = now

	return nil
}

// Reject closes a pending application.
func (l *Loan) Reject(reason string, now time.Time) error {
	if l.Status != LoanStatusPending {
		return fmt.Errorf("%w: cannot reject loan with status %s", ErrLoanNotPending, l.Status)
	}

	l.Status = LoanStatusRejected
	l.RejectionReason = reason
	l.UpdatedAt = now

	return nil
}

// MarkDefaulted moves an active loan to defaulted. The balance is left as is.
func (l *Loan) MarkDefaulted(reason string, now time.Time) error {
	if l.Status != LoanStatusActive {
		return fmt.Errorf("%w: cannot default loan with status %s", ErrLoanNotActive, l.Status)
	}

	l.Status = LoanStatusDefaulted
	l.RejectionReason = reason
	l.UpdatedAt = now

	return nil
}

// ApplyPrincipal reduces the remaining balance and completes the loan when
// it reaches zero. Returns the new balance.
func (l *Loan) ApplyPrincipal(principal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if l.Status != LoanStatusActive {
		return decimal.Zero, fmt.Errorf("%w: cannot pay loan with status %s", ErrLoanNotActive, l.Status)
	}
	if principal.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}

	balance := l.Balance().Sub(principal)
	if balance.IsNegative() {
		balance = decimal.Zero
	}

	l.RemainingBalance = decimal.NewNullDecimal(balance)
	if balance.IsZero() {
		l.Status = LoanStatusCompleted
	}
	l.UpdatedAt = now

	return balance, nil
}

// AddMonths steps t by n calendar months, clamping to the last day of the
// target month so Jan 31 + 1 month is Feb 28/29 rather than Mar 3.
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())

	lastDay := target.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}

	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
