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

// PaymentUseCase applies repayments to active loans.
type PaymentUseCase struct {
	txManager    TransactionManager
	loanRepo     LoanRepository
	scheduleRepo ScheduleRepository
	paymentRepo  PaymentRepository
	ledger       Ledger
	outboxRepo   OutboxRepository
	idGen        IDGenerator
	metrics      *metrics.Metrics
}

func NewPaymentUseCase(
	txManager TransactionManager,
	loanRepo LoanRepository,
	scheduleRepo ScheduleRepository,
	paymentRepo PaymentRepository,
	ledger Ledger,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *PaymentUseCase {
	return &PaymentUseCase{
		txManager:    txManager,
		loanRepo:     loanRepo,
		scheduleRepo: scheduleRepo,
		paymentRepo:  paymentRepo,
		ledger:       ledger,
		outboxRepo:   outboxRepo,
		idGen:        idGen,
		metrics:      metrics,
	}
}

// MakePaymentInput is the input for a loan repayment. An empty
// SourceAccountID debits the customer's default account.
type MakePaymentInput struct {
	LoanID          string
	Amount          decimal.Decimal
	SourceAccountID string
	IdempotencyKey  string
}

// PaymentResult is the recorded payment and the loan after it was applied.
type PaymentResult struct {
	Payment *domain.Payment
	Loan    *domain.Loan
}

func (in MakePaymentInput) validate() error {
	if err := domain.ValidateID(in.LoanID); err != nil {
		return fmt.Errorf("loan_id: %w", err)
	}
	if err := domain.ValidateMoneyAmount(in.Amount); err != nil {
		return err
	}
	if in.SourceAccountID != "" {
		if err := domain.ValidateID(in.SourceAccountID); err != nil {
			return fmt.Errorf("source_account_id: %w", err)
		}
	}
	return domain.ValidateIdempotencyKey(in.IdempotencyKey)
}

// MakePayment applies a repayment: interest accrued for one month on the
// remaining balance is paid first and the rest reduces principal. The
// debited amount is capped at what pays the loan off. The loan row is locked
// for the whole operation, so concurrent payments on one loan serialize and
// each sees the balance left by the previous one.
func (uc *PaymentUseCase) MakePayment(ctx context.Context, input MakePaymentInput) (result *PaymentResult, err error) {
	start := time.Now()
	defer func() {
		if err != nil && uc.metrics != nil {
			uc.metrics.PaymentErrors.WithLabelValues(string(domain.KindOf(err))).Inc()
		}
	}()

	input.IdempotencyKey = strings.TrimSpace(input.IdempotencyKey)
	if err := input.validate(); err != nil {
		return nil, err
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, persistenceError("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	loan, err := uc.loanRepo.GetByIDForUpdate(txCtx, tx, input.LoanID)
	if err != nil {
		return nil, persistenceError("lock loan", err)
	}

	// Must run under the loan lock.
	exists, err := uc.paymentRepo.ExistsByIdempotencyKey(txCtx, tx, loan.ID, input.IdempotencyKey)
	if err != nil {
		return nil, persistenceError("check idempotency key", err)
	}
	if exists {
		return nil, fmt.Errorf("%w: key %q already used for loan %s", domain.ErrDuplicatePayment, input.IdempotencyKey, loan.ID)
	}

	if loan.Status != domain.LoanStatusActive {
		return nil, fmt.Errorf("%w: cannot pay loan with status %s", domain.ErrLoanNotActive, loan.Status)
	}

	split := domain.SplitPayment(loan.Balance(), loan.MonthlyRate(), input.Amount)
	applied := split.Total()

	accountID := input.SourceAccountID
	if accountID == "" {
		accountID, err = uc.ledger.DefaultAccount(txCtx, tx, loan.CustomerID)
		if err != nil {
			return nil, downstreamError("resolve source account", err)
		}
	} else if err := checkAccountOwner(txCtx, uc.ledger, tx, accountID, loan.CustomerID); err != nil {
		return nil, err
	}

	available, err := uc.ledger.AvailableBalance(txCtx, tx, accountID)
	if err != nil {
		return nil, downstreamError("read available balance", err)
	}
	if available.LessThan(applied) {
		return nil, fmt.Errorf("%w: account %s has %s, payment needs %s",
			domain.ErrInsufficientFunds, accountID, available.StringFixed(domain.MoneyPlaces), applied.StringFixed(domain.MoneyPlaces))
	}

	ref, err := uc.ledger.Debit(txCtx, tx, accountID, applied, "Loan payment for loan "+loan.ID)
	if err != nil {
		return nil, downstreamError("debit source account", err)
	}

	now := time.Now().UTC()
	newBalance, err := loan.ApplyPrincipal(split.Principal, now)
	if err != nil {
		return nil, err
	}
	completed := loan.Status == domain.LoanStatusCompleted

	entries, err := uc.scheduleRepo.ListByLoanTx(txCtx, tx, loan.ID)
	if err != nil {
		return nil, persistenceError("list schedule", err)
	}
	for _, entry := range domain.AllocatePayment(entries, applied, completed, now) {
		if err := uc.scheduleRepo.UpdateStatus(txCtx, tx, entry); err != nil {
			return nil, persistenceError("update schedule entry", err)
		}
	}

	payment := &domain.Payment{
		ID:                        uc.idGen.Generate(),
		LoanID:                    loan.ID,
		SourceAccountID:           accountID,
		IdempotencyKey:            input.IdempotencyKey,
		Amount:                    applied,
		RequestedAmount:           input.Amount,
		InterestPortion:           split.Interest,
		PrincipalPortion:          split.Principal,
		ResultingRemainingBalance: newBalance,
		LedgerReference:           ref,
		AppliedAt:                 now,
	}
	if err := uc.paymentRepo.Create(txCtx, tx, payment); err != nil {
		return nil, persistenceError("create payment", err)
	}

	if err := uc.loanRepo.Update(txCtx, tx, loan); err != nil {
		return nil, persistenceError("update loan", err)
	}

	event := domain.NewLoanEvent(uc.idGen.Generate(), domain.EventTypeLoanPaymentApplied, loan, map[string]any{
		"payment_id":        payment.ID,
		"amount":            payment.Amount.StringFixed(domain.MoneyPlaces),
		"interest":          payment.InterestPortion.StringFixed(domain.MoneyPlaces),
		"principal":         payment.PrincipalPortion.StringFixed(domain.MoneyPlaces),
		"remaining_balance": newBalance.StringFixed(domain.MoneyPlaces),
		"account_id":        accountID,
	}, now)
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, persistenceError("create outbox event", err)
	}

	if completed {
		event := domain.NewLoanEvent(uc.idGen.Generate(), domain.EventTypeLoanCompleted, loan, map[string]any{
			"final_payment_id": payment.ID,
		}, now)
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return nil, persistenceError("create outbox event", err)
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, persistenceError("commit", err)
	}

	if uc.metrics != nil {
		uc.metrics.PaymentsApplied.Inc()
		uc.metrics.PaymentAmount.Observe(applied.InexactFloat64())
		uc.metrics.InterestRecorded.Add(split.Interest.InexactFloat64())
		uc.metrics.PaymentDuration.Observe(time.Since(start).Seconds())
		if completed {
			uc.metrics.LoansCompleted.Inc()
		}
	}

	return &PaymentResult{Payment: payment, Loan: loan}, nil
}

// GetSchedule returns a loan's installments ordered by sequence number.
// Pending and rejected loans have no schedule.
func (uc *PaymentUseCase) GetSchedule(ctx context.Context, loanID string) ([]domain.ScheduleEntry, error) {
	if err := domain.ValidateID(loanID); err != nil {
		return nil, err
	}

	if _, err := uc.loanRepo.GetByID(ctx, loanID); err != nil {
		return nil, persistenceError("get loan", err)
	}

	entries, err := uc.scheduleRepo.ListByLoan(ctx, loanID)
	if err != nil {
		return nil, persistenceError("list schedule", err)
	}
	return entries, nil
}

// ListPayments returns a loan's payment history, oldest first.
func (uc *PaymentUseCase) ListPayments(ctx context.Context, loanID string, limit, offset int) ([]*domain.Payment, error) {
	if err := domain.ValidateID(loanID); err != nil {
		return nil, err
	}

	if _, err := uc.loanRepo.GetByID(ctx, loanID); err != nil {
		return nil, persistenceError("get loan", err)
	}

	limit, offset, _ = domain.ValidatePagination(limit, offset)

	payments, err := uc.paymentRepo.ListByLoan(ctx, loanID, limit, offset)
	if err != nil {
		return nil, persistenceError("list payments", err)
	}
	return payments, nil
}
