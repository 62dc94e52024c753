package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nxfinance/loans/internal/domain"
	"github.com/nxfinance/loans/internal/infrastructure/metrics"
)

// LoanUseCase drives the loan lifecycle: application, review and default.
type LoanUseCase struct {
	txManager    TransactionManager
	loanRepo     LoanRepository
	loanTypeRepo LoanTypeRepository
	scheduleRepo ScheduleRepository
	ledger       Ledger
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	metrics      *metrics.Metrics
}

func NewLoanUseCase(
	txManager TransactionManager,
	loanRepo LoanRepository,
	loanTypeRepo LoanTypeRepository,
	scheduleRepo ScheduleRepository,
	ledger Ledger,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *LoanUseCase {
	return &LoanUseCase{
		txManager:    txManager,
		loanRepo:     loanRepo,
		loanTypeRepo: loanTypeRepo,
		scheduleRepo: scheduleRepo,
		ledger:       ledger,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		metrics:      metrics,
	}
}

// ApplyInput is the input for a loan application.
type ApplyInput struct {
	CustomerID            string
	LoanTypeID            string
	Amount                decimal.Decimal
	TermMonths            int
	Purpose               string
	DisbursementAccountID string
}

func (in ApplyInput) validate() error {
	if err := domain.ValidateID(in.CustomerID); err != nil {
		return fmt.Errorf("customer_id: %w", err)
	}
	if err := domain.ValidateID(in.LoanTypeID); err != nil {
		return fmt.Errorf("loan_type_id: %w", err)
	}
	if in.DisbursementAccountID != "" {
		if err := domain.ValidateID(in.DisbursementAccountID); err != nil {
			return fmt.Errorf("disbursement_account_id: %w", err)
		}
	}
	if in.Amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidPrincipal
	}
	if err := domain.ValidateMoneyAmount(in.Amount); err != nil {
		return err
	}
	if in.TermMonths <= 0 {
		return domain.ErrInvalidTerm
	}
	return domain.ValidatePurpose(in.Purpose)
}

// Apply records a pending loan application. The loan snapshots the product's
// current interest rate; no schedule exists until approval.
func (uc *LoanUseCase) Apply(ctx context.Context, input ApplyInput) (loan *domain.Loan, err error) {
	defer func() { uc.recordError("apply", err) }()

	if err := input.validate(); err != nil {
		return nil, err
	}

	loanType, err := uc.loanTypeRepo.GetByID(ctx, input.LoanTypeID)
	if err != nil {
		return nil, persistenceError("get loan type", err)
	}

	now := time.Now().UTC()
	loan, err = domain.NewLoanApplication(
		uc.idGen.Generate(),
		input.CustomerID,
		loanType,
		input.Amount,
		input.TermMonths,
		strings.TrimSpace(input.Purpose),
		input.DisbursementAccountID,
		now,
	)
	if err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, persistenceError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if loan.DisbursementAccountID != "" {
		if err := checkAccountOwner(txCtx, uc.ledger, tx, loan.DisbursementAccountID, loan.CustomerID); err != nil {
			return nil, err
		}
	}

	if err := uc.loanRepo.Create(txCtx, tx, loan); err != nil {
		return nil, persistenceError("create loan", err)
	}

	event := domain.NewLoanEvent(uc.idGen.Generate(), domain.EventTypeLoanApplied, loan, map[string]any{
		"loan_type_id": loan.LoanTypeID,
		"amount":       loan.PrincipalAmount.StringFixed(domain.MoneyPlaces),
		"term_months":  loan.TermMonths,
		"rate_percent": loan.AnnualInterestRatePercent.String(),
	}, now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, persistenceError("create outbox event", err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, persistenceError("commit", err)
	}

	if uc.metrics != nil {
		uc.metrics.LoansApplied.WithLabelValues(loan.LoanTypeID).Inc()
	}

	return loan, nil
}

// Approve activates a pending loan as of approvalDate, generates its
// schedule and disburses the principal, all in one transaction. A zero
// approvalDate means today.
func (uc *LoanUseCase) Approve(ctx context.Context, loanID string, approvalDate time.Time) (loan *domain.Loan, err error) {
	defer func() { uc.recordError("approve", err) }()

	if err := domain.ValidateID(loanID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if approvalDate.IsZero() {
		approvalDate = now
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, persistenceError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Lock loan before any account row
	loan, err = uc.loanRepo.GetByIDForUpdate(txCtx, tx, loanID)
	if err != nil {
		return nil, persistenceError("lock loan", err)
	}

	if err := loan.Activate(approvalDate, now); err != nil {
		return nil, err
	}

	entries, err := domain.GenerateSchedule(domain.TermsOf(loan))
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].ID = uc.idGen.Generate()
		entries[i].LoanID = loan.ID
	}

	if err := uc.scheduleRepo.CreateBatch(txCtx, tx, entries); err != nil {
		return nil, persistenceError("create schedule", err)
	}

	accountID := loan.DisbursementAccountID
	if accountID == "" {
		accountID, err = uc.ledger.DefaultAccount(txCtx, tx, loan.CustomerID)
		if err != nil {
			return nil, downstreamError("resolve disbursement account", err)
		}
		loan.DisbursementAccountID = accountID
	} else if err := checkAccountOwner(txCtx, uc.ledger, tx, accountID, loan.CustomerID); err != nil {
		return nil, err
	}

	ref, err := uc.ledger.Credit(txCtx, tx, accountID, loan.PrincipalAmount, "Loan disbursement for loan "+loan.ID)
	if err != nil {
		return nil, downstreamError("disburse principal", err)
	}

	if err := uc.loanRepo.Update(txCtx, tx, loan); err != nil {
		return nil, persistenceError("update loan", err)
	}

	event := domain.NewLoanEvent(uc.idGen.Generate(), domain.EventTypeLoanApproved, loan, map[string]any{
		"principal":        loan.PrincipalAmount.StringFixed(domain.MoneyPlaces),
		"monthly_payment":  loan.MonthlyPaymentAmount.Decimal.StringFixed(domain.MoneyPlaces),
		"start_date":       loan.StartDate.Format(time.DateOnly),
		"end_date":         loan.EndDate.Format(time.DateOnly),
		"account_id":       accountID,
		"ledger_reference": ref,
	}, now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, persistenceError("create outbox event", err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, persistenceError("commit", err)
	}

	if uc.metrics != nil {
		uc.metrics.LoansApproved.Inc()
		uc.metrics.LoanPrincipal.Observe(loan.PrincipalAmount.InexactFloat64())
	}

	return loan, nil
}

// Reject closes a pending application with a reason.
func (uc *LoanUseCase) Reject(ctx context.Context, loanID, reason string) (loan *domain.Loan, err error) {
	defer func() { uc.recordError("reject", err) }()

	loan, err = uc.transition(ctx, loanID, reason, domain.EventTypeLoanRejected, func(l *domain.Loan, now time.Time) error {
		return l.Reject(reason, now)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.LoansRejected.Inc()
	}

	return loan, nil
}

// MarkDefaulted moves an active loan to defaulted. The remaining balance is
// kept for collection.
func (uc *LoanUseCase) MarkDefaulted(ctx context.Context, loanID, reason string) (loan *domain.Loan, err error) {
	defer func() { uc.recordError("default", err) }()

	loan, err = uc.transition(ctx, loanID, reason, domain.EventTypeLoanDefaulted, func(l *domain.Loan, now time.Time) error {
		return l.MarkDefaulted(reason, now)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.LoansDefaulted.Inc()
	}

	return loan, nil
}

// transition locks the loan, applies a status change and emits eventType.
func (uc *LoanUseCase) transition(ctx context.Context, loanID, reason, eventType string, apply func(*domain.Loan, time.Time) error) (*domain.Loan, error) {
	if err := domain.ValidateID(loanID); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if len(reason) > domain.MaxReasonLength {
		return nil, fmt.Errorf("%w: reason must not exceed %d characters", domain.ErrInvalidInput, domain.MaxReasonLength)
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, persistenceError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	loan, err := uc.loanRepo.GetByIDForUpdate(txCtx, tx, loanID)
	if err != nil {
		return nil, persistenceError("lock loan", err)
	}

	now := time.Now().UTC()
	if err := apply(loan, now); err != nil {
		return nil, err
	}

	if err := uc.loanRepo.Update(txCtx, tx, loan); err != nil {
		return nil, persistenceError("update loan", err)
	}

	event := domain.NewLoanEvent(uc.idGen.Generate(), eventType, loan, map[string]any{
		"reason": reason,
	}, now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, persistenceError("create outbox event", err)
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, persistenceError("commit", err)
	}

	return loan, nil
}

// GetLoan retrieves a loan by ID.
func (uc *LoanUseCase) GetLoan(ctx context.Context, id string) (*domain.Loan, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}

	loan, err := uc.loanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, persistenceError("get loan", err)
	}
	return loan, nil
}

// ListByCustomer lists a customer's loans, newest first.
func (uc *LoanUseCase) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*domain.Loan, error) {
	if err := domain.ValidateID(customerID); err != nil {
		return nil, err
	}

	limit, offset, _ = domain.ValidatePagination(limit, offset)

	loans, err := uc.loanRepo.ListByCustomer(ctx, customerID, limit, offset)
	if err != nil {
		return nil, persistenceError("list loans by customer", err)
	}
	return loans, nil
}

// ListByStatus lists loans in a status, oldest first, so the pending
// queue is reviewed in arrival order.
func (uc *LoanUseCase) ListByStatus(ctx context.Context, status domain.LoanStatus, limit, offset int) ([]*domain.Loan, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStatus, status)
	}

	limit, offset, _ = domain.ValidatePagination(limit, offset)

	loans, err := uc.loanRepo.ListByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, persistenceError("list loans by status", err)
	}
	return loans, nil
}

func (uc *LoanUseCase) recordError(op string, err error) {
	if err == nil || uc.metrics == nil {
		return
	}
	uc.metrics.LoanErrors.WithLabelValues(op, string(domain.KindOf(err))).Inc()
}
