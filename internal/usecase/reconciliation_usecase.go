package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nxfinance/loans/internal/domain"
)

// ReconciliationUseCase checks that a loan's balance, schedule and payment
// history agree with each other.
type ReconciliationUseCase struct {
	loanRepo     LoanRepository
	scheduleRepo ScheduleRepository
	paymentRepo  PaymentRepository
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	loanRepo LoanRepository,
	scheduleRepo ScheduleRepository,
	paymentRepo PaymentRepository,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		loanRepo:     loanRepo,
		scheduleRepo: scheduleRepo,
		paymentRepo:  paymentRepo,
	}
}

// ReconciliationResult represents the result of a consistency check on one loan
type ReconciliationResult struct {
	LoanID            string
	Status            domain.LoanStatus
	PrincipalAmount   decimal.Decimal
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	SchedulePrincipal decimal.Decimal
	ScheduleEntries   int
	PaymentCount      int
	Issues            []string
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileLoan recomputes the balance from the payment history and checks
// it against the stored balance and schedule.
func (uc *ReconciliationUseCase) ReconcileLoan(ctx context.Context, loanID string) (*ReconciliationResult, error) {
	loan, err := uc.loanRepo.GetByID(ctx, loanID)
	if err != nil {
		return nil, persistenceError("get loan", err)
	}

	entries, err := uc.scheduleRepo.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, persistenceError("list schedule", err)
	}

	payments, err := uc.paymentRepo.ListByLoan(ctx, loanID, MaxReconciliationPayments, 0)
	if err != nil {
		return nil, persistenceError("list payments", err)
	}

	return reconcile(loan, entries, payments, time.Now().UTC()), nil
}

func reconcile(loan *domain.Loan, entries []domain.ScheduleEntry, payments []*domain.Payment, now time.Time) *ReconciliationResult {
	result := &ReconciliationResult{
		LoanID:            loan.ID,
		Status:            loan.Status,
		PrincipalAmount:   loan.PrincipalAmount,
		RecordedBalance:   loan.Balance(),
		SchedulePrincipal: decimal.Zero,
		ScheduleEntries:   len(entries),
		PaymentCount:      len(payments),
		LastChecked:       now,
	}

	issue := func(format string, args ...any) {
		result.Issues = append(result.Issues, fmt.Sprintf(format, args...))
	}

	switch loan.Status {
	case domain.LoanStatusPending, domain.LoanStatusRejected:
		result.CalculatedBalance = result.RecordedBalance
		if loan.RemainingBalance.Valid {
			issue("%s loan has a remaining balance", loan.Status)
		}
		if len(entries) > 0 {
			issue("%s loan has %d schedule entries", loan.Status, len(entries))
		}
		if len(payments) > 0 {
			issue("%s loan has %d payments", loan.Status, len(payments))
		}
	default:
		paid := decimal.Zero
		for _, p := range payments {
			paid = paid.Add(p.PrincipalPortion)
		}
		result.CalculatedBalance = loan.PrincipalAmount.Sub(paid)

		for _, e := range entries {
			result.SchedulePrincipal = result.SchedulePrincipal.Add(e.PrincipalComponent)
		}

		if len(entries) != loan.TermMonths {
			issue("schedule has %d entries, term is %d months", len(entries), loan.TermMonths)
		}
		if !result.SchedulePrincipal.Equal(loan.PrincipalAmount) {
			issue("schedule principal %s does not equal loan principal %s",
				result.SchedulePrincipal.StringFixed(domain.MoneyPlaces), loan.PrincipalAmount.StringFixed(domain.MoneyPlaces))
		}
		if result.RecordedBalance.IsNegative() {
			issue("remaining balance is negative")
		}
		if loan.Status == domain.LoanStatusCompleted && !result.RecordedBalance.IsZero() {
			issue("completed loan has remaining balance %s", result.RecordedBalance.StringFixed(domain.MoneyPlaces))
		}
		if loan.Status == domain.LoanStatusActive && result.RecordedBalance.IsZero() {
			issue("active loan has zero remaining balance")
		}
		if len(payments) > 0 {
			last := payments[len(payments)-1]
			if !last.ResultingRemainingBalance.Equal(result.RecordedBalance) {
				issue("last payment left balance %s, loan records %s",
					last.ResultingRemainingBalance.StringFixed(domain.MoneyPlaces), result.RecordedBalance.StringFixed(domain.MoneyPlaces))
			}
		}
	}

	result.Difference = result.RecordedBalance.Sub(result.CalculatedBalance)
	if !result.Difference.IsZero() {
		issue("recorded balance differs from payment history by %s", result.Difference.StringFixed(domain.MoneyPlaces))
	}

	result.IsReconciled = len(result.Issues) == 0
	return result
}

// ReconciliationReport represents a reconciliation pass over many loans
type ReconciliationReport struct {
	TotalLoans      int
	ReconciledLoans int
	Discrepancies   []*ReconciliationResult
	CheckedAt       time.Time
}

// ReconcileByStatus checks up to limit loans in the given status.
func (uc *ReconciliationUseCase) ReconcileByStatus(ctx context.Context, status domain.LoanStatus, limit int) (*ReconciliationReport, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	limit, _, _ = domain.ValidatePagination(limit, 0)

	loans, err := uc.loanRepo.ListByStatus(ctx, status, limit, 0)
	if err != nil {
		return nil, persistenceError("list loans by status", err)
	}

	report := &ReconciliationReport{
		TotalLoans:    len(loans),
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     time.Now().UTC(),
	}

	for _, loan := range loans {
		result, err := uc.ReconcileLoan(ctx, loan.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to reconcile loan %s: %w", loan.ID, err)
		}
		if result.IsReconciled {
			report.ReconciledLoans++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	return report, nil
}
