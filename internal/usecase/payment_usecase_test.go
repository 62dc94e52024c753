package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nxfinance/loans/internal/domain"
	"github.com/nxfinance/loans/internal/usecase"
)

func TestPaymentUseCase_MakePayment_FirstInstallment(t *testing.T) {
	f := newFixture(t, "0")
	ctx := context.Background()
	loan := f.activeLoan(t, "10000", 24)

	result, err := f.paymentUC.MakePayment(ctx, usecase.MakePaymentInput{
		LoanID:         loan.ID,
		Amount:         dec("461.45"),
		IdempotencyKey: "pay-1",
	})
	require.NoError(t, err)

	p := result.Payment
	assert.True(t, p.InterestPortion.Equal(dec("83.25")), "interest %s", p.InterestPortion)
	assert.True(t, p.PrincipalPortion.Equal(dec("378.20")), "principal %s", p.PrincipalPortion)
	assert.True(t, p.Amount.Equal(dec("461.45")))
	assert.True(t, p.ResultingRemainingBalance.Equal(dec("9621.80")))
	assert.Equal(t, savingsAccount, p.SourceAccountID)
	assert.NotEmpty(t, p.LedgerReference)

	assert.True(t, result.Loan.Balance().Equal(dec("9621.80")))
	assert.Equal(t, domain.LoanStatusActive, result.Loan.Status)

	assert.True(t, f.ledger.Balance(savingsAccount).Equal(dec("9538.55")))

	schedule, err := f.paymentUC.GetSchedule(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ScheduleEntryPaid, schedule[0].Status)
	assert.NotNil(t, schedule[0].PaidAt)
	assert.Equal(t, domain.ScheduleEntryScheduled, schedule[1].Status)
}

func TestPaymentUseCase_MakePayment_FullRepayment(t *testing.T) {
	f := newFixture(t, "2000")
	ctx := context.Background()
	loan := f.activeLoan(t, "10000", 24)

	var last *usecase.PaymentResult
	for i := 1; i <= 24; i++ {
		result, err := f.paymentUC.MakePayment(ctx, usecase.MakePaymentInput{
			LoanID:         loan.ID,
			Amount:         dec("461.45"),
			IdempotencyKey: fmt.Sprintf("installment-%d", i),
		})
		require.NoError(t, err, "payment %d", i)

		if i < 24 {
			require.Equal(t, domain.LoanStatusActive, result.Loan.Status, "payment %d", i)
			require.True(t, result.Loan.Balance().IsPositive(), "payment %d", i)
		}
		if last != nil {
			require.True(t, result.Loan.Balance().LessThan(last.Loan.Balance()), "balance must decrease")
		}
		last = result
	}

	assert.Equal(t, domain.LoanStatusCompleted, last.Loan.Status)
	assert.True(t, last.Loan.Balance().IsZero())
	assert.True(t, last.Payment.Amount.Equal(dec("460.22")), "final payment capped at payoff, got %s", last.Payment.Amount)
	assert.True(t, last.Payment.RequestedAmount.Equal(dec("461.45")))

	_, err := f.paymentUC.MakePayment(ctx, usecase.MakePaymentInput{
		LoanID:         loan.ID,
		Amount:         dec("461.45"),
		IdempotencyKey: "installment-25",
	})
	require.ErrorIs(t, err, domain.ErrInvalidState)

	// 2000 + 10000 disbursed - (23 * 461.45 + 460.22) repaid
	assert.True(t, f.ledger.Balance(savingsAccount).Equal(dec("926.43")), "got %s", f.ledger.Balance(savingsAccount))

	schedule, err := f.paymentUC.GetSchedule(ctx, loan.ID)
	require.NoError(t, err)
	for _, entry := range schedule {
		assert.Equal(t, domain.ScheduleEntryPaid, entry.Status, "entry %d", entry.SequenceNumber)
	}

	payments, err := f.paymentUC.ListPayments(ctx, loan.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, payments, 24)

	principal := decimal.Zero
	for _, p := range payments {
		principal = principal.Add(p.PrincipalPortion)
	}
	assert.True(t, principal.Equal(dec("10000")))

	events := f.outbox.EventTypes()
	assert.Equal(t, domain.EventTypeLoanCompleted, events[len(events)-1])

	report, err := f.reconUC.ReconcileLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, report.IsReconciled, "issues: %v", report.Issues)
}

func TestPaymentUseCase_MakePayment_LevelPaymentsSettleLoan(t *testing.T) {
	tests := []struct {
		amount string
		term   int
	}{
		{"1000", 12},
		{"1000", 16},
		{"2500", 37},
		{"10000", 24},
		{"17500", 45},
		{"25000", 60},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%d", tt.amount, tt.term), func(t *testing.T) {
			f := newFixture(t, "50000")
			ctx := context.Background()
			loan := f.activeLoan(t, tt.amount, tt.term)
			installment := loan.MonthlyPaymentAmount.Decimal

			var result *usecase.PaymentResult
			for i := 1; i <= tt.term; i++ {
				var err error
				result, err = f.paymentUC.MakePayment(ctx, usecase.MakePaymentInput{
					LoanID:         loan.ID,
					Amount:         installment,
					IdempotencyKey: fmt.Sprintf("installment-%d", i),
				})
				require.NoError(t, err, "payment %d", i)
			}

			assert.Equal(t, domain.LoanStatusCompleted, result.Loan.Status, "balance left %s", result.Loan.Balance())
			assert.True(t, result.Loan.Balance().IsZero())

			schedule, err := f.paymentUC.GetSchedule(ctx, loan.ID)
			require.NoError(t, err)
			for _, entry := range schedule {
				assert.Contains(t, []domain.ScheduleEntryStatus{domain.ScheduleEntryPaid, domain.ScheduleEntrySkipped},
					entry.Status, "entry %d", entry.SequenceNumber)
			}

			_, err = f.paymentUC.MakePayment(ctx, usecase.MakePaymentInput{
				LoanID:         loan.ID,
				Amount:         installment,
				IdempotencyKey: "after-completion",
			})
			require.ErrorIs(t, err, domain.ErrInvalidState)
		})
	}
}

func TestPaymentUseCase_MakePayment_Overpayment(t *testing.T) {
	f := newFixture(t, "1000")
	ctx := context.Background()
	loan := f.activeLoan(t, "8000", 12)

	result, err := f.paymentUC.MakePayment(ctx, usecase.MakePaymentInput{
		LoanID:         loan.ID,
		Amount:         dec("9000"),
		IdempotencyKey: "payoff",
	})
	require.NoError(t, err)

	assert.True(t, result.Payment.Amount.Equal(dec("8066.60")), "debited %s", result.Payment.Amount)
	assert.True(t, result.Payment.PrincipalPortion.Equal(dec("8000")))
	assert.Equal(t, domain.LoanStatusCompleted, result.Loan.Status)
	assert.True(t, f.ledger.Balance(savingsAccount).Equal(dec("933.40")))

	schedule, err := f.paymentUC.GetSchedule(ctx, loan.ID)
	require.NoError(t, err)

	paid, skipped := 0, 0
	for _, e := range schedule {
		switch e.Status {
		case domain.ScheduleEntryPaid:
			paid++
		case domain.ScheduleEntrySkipped:
			skipped++
		}
	}
	// 8066.60 covers eleven installments of 703.30, the twelfth settles the payoff.
	assert.Equal(t, 12, paid)
	assert.Equal(t, 0, skipped)
}

func TestPaymentUseCase_MakePayment_PayoffSkipsRemaining(t *testing.T) {
	f := newFixture(t, "0")
	ctx := context.Background()
	loan := f.activeLoan(t, "10000", 24)

	_, err := f.paymentUC.MakePayment(ctx, usecase.MakePaymentInput{
		LoanID: loan.ID, Amount: dec("5000"), IdempotencyKey: "big-1",
	})
	require.NoError(t, err)

	// Balance 5083.25, payoff takes the remaining 5083.25 + interest.
	result, err := f.paymentUC.MakePayment(ctx, usecase.MakePaymentInput{
		LoanID: loan.ID, Amount: dec("5500"), IdempotencyKey: "big-2",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusCompleted, result.Loan.Status)

	schedule, err := f.paymentUC.GetSchedule(ctx, loan.ID)
	require.NoError(t, err)

	skipped := 0
	for _, e := range schedule {
		assert.NotEqual(t, domain.ScheduleEntryScheduled, e.Status, "entry %d left scheduled", e.SequenceNumber)
		if e.Status == domain.ScheduleEntrySkipped {
			skipped++
			assert.Nil(t, e.PaidAt)
		}
	}
	assert.Positive(t, skipped)
}

func TestPaymentUseCase_MakePayment_DuplicateKey(t *testing.T) {
	f := newFixture(t, "0")
	ctx := context.Background()
	loan := f.activeLoan(t, "10000", 24)

	input := usecase.MakePaymentInput{LoanID: loan.ID, Amount: dec("461.45"), IdempotencyKey: "same-key"}

	_, err := f.paymentUC.MakePayment(ctx, input)
	require.NoError(t, err)
	balance := f.ledger.Balance(savingsAccount)

	_, err = f.paymentUC.MakePayment(ctx, input)
	require.ErrorIs(t, err, domain.ErrDuplicatePayment)
	assert.Equal(t, domain.KindDuplicatePayment, domain.KindOf(err))

	assert.True(t, f.ledger.Balance(savingsAccount).Equal(balance), "duplicate must not debit again")

	stored, err := f.loans.GetByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance().Equal(dec("9621.80")))
}

func TestPaymentUseCase_MakePayment_InsufficientFunds(t *testing.T) {
	f := newFixture(t, "0")
	ctx := context.Background()
	loan := f.activeLoan(t, "10000", 24)

	f.ledger.AddAccount(&domain.Account{ID: "acc-empty", CustomerID: customerID, Type: domain.AccountTypeChecking, Balance: dec("100")})

	_, err := f.paymentUC.MakePayment(ctx, usecase.MakePaymentInput{
		LoanID:          loan.ID,
		Amount:          dec("461.45"),
		SourceAccountID: "acc-empty",
		IdempotencyKey:  "pay-1",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	tx := f.txManager.Last()
	assert.True(t, tx.RolledBack)

	stored, err := f.loans.GetByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance().Equal(dec("10000")))
	assert.True(t, f.ledger.Balance("acc-empty").Equal(dec("100")))

	payments, err := f.paymentUC.ListPayments(ctx, loan.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, payments)

	// The key was not consumed by the failed attempt.
	f.ledger.AddAccount(&domain.Account{ID: "acc-funded", CustomerID: customerID, Type: domain.AccountTypeChecking, Balance: dec("1000")})
	_, err = f.paymentUC.MakePayment(ctx, usecase.MakePaymentInput{
		LoanID:          loan.ID,
		Amount:          dec("461.45"),
		SourceAccountID: "acc-funded",
		IdempotencyKey:  "pay-1",
	})
	require.NoError(t, err)
}

func TestPaymentUseCase_MakePayment_ForeignSourceAccount(t *testing.T) {
	f := newFixture(t, "1000")
	ctx := context.Background()
	loan := f.activeLoan(t, "10000", 24)

	f.ledger.AddAccount(&domain.Account{ID: "acc-victim", CustomerID: "cust-2", Type: domain.AccountTypeSavings, Balance: dec("5000")})

	_, err := f.paymentUC.MakePayment(ctx, usecase.MakePaymentInput{
		LoanID:          loan.ID,
		Amount:          dec("461.41"),
		SourceAccountID: "acc-victim",
		IdempotencyKey:  "pay-1",
	})
	require.ErrorIs(t, err, domain.ErrForeignAccount)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	assert.True(t, f.txManager.Last().RolledBack)
	assert.True(t, f.ledger.Balance("acc-victim").Equal(dec("5000")))

	stored, err := f.loans.GetByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance().Equal(dec("10000")))

	payments, err := f.paymentUC.ListPayments(ctx, loan.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestPaymentUseCase_MakePayment_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.MakePaymentInput
		wantErr error
	}{
		{"zero amount", usecase.MakePaymentInput{Amount: dec("0"), IdempotencyKey: "k"}, domain.ErrInvalidAmount},
		{"negative amount", usecase.MakePaymentInput{Amount: dec("-10"), IdempotencyKey: "k"}, domain.ErrInvalidAmount},
		{"fractional cents", usecase.MakePaymentInput{Amount: dec("10.001"), IdempotencyKey: "k"}, domain.ErrAmountTooPrecise},
		{"missing key", usecase.MakePaymentInput{Amount: dec("10"), IdempotencyKey: "  "}, domain.ErrMissingIdempotencyKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "0")
			loan := f.activeLoan(t, "10000", 24)
			tt.input.LoanID = loan.ID

			_, err := f.paymentUC.MakePayment(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
		})
	}
}

func TestPaymentUseCase_MakePayment_NotActive(t *testing.T) {
	f := newFixture(t, "0")
	ctx := context.Background()

	loan, err := f.loanUC.Apply(ctx, usecase.ApplyInput{
		CustomerID: customerID, LoanTypeID: "personal", Amount: dec("10000"), TermMonths: 24,
	})
	require.NoError(t, err)

	_, err = f.paymentUC.MakePayment(ctx, usecase.MakePaymentInput{
		LoanID: loan.ID, Amount: dec("100"), IdempotencyKey: "k",
	})
	require.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.paymentUC.MakePayment(ctx, usecase.MakePaymentInput{
		LoanID: "missing", Amount: dec("100"), IdempotencyKey: "k",
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPaymentUseCase_MakePayment_FailureClassification(t *testing.T) {
	t.Run("repository failure is persistence", func(t *testing.T) {
		f := newFixture(t, "0")
		loan := f.activeLoan(t, "10000", 24)
		balance := f.ledger.Balance(savingsAccount)

		driverErr := errors.New("unexpected EOF")
		f.payments.CreateFunc = func(context.Context, usecase.Transaction, *domain.Payment) error {
			return driverErr
		}

		_, err := f.paymentUC.MakePayment(context.Background(), usecase.MakePaymentInput{
			LoanID: loan.ID, Amount: dec("461.45"), IdempotencyKey: "k",
		})
		require.ErrorIs(t, err, domain.ErrPersistenceFailure)
		require.ErrorIs(t, err, driverErr)

		assert.True(t, f.txManager.Last().RolledBack)
		assert.True(t, f.ledger.Balance(savingsAccount).Equal(balance), "debit must roll back")
	})

	t.Run("ledger failure is downstream", func(t *testing.T) {
		f := newFixture(t, "0")
		loan := f.activeLoan(t, "10000", 24)

		f.ledger.DebitFunc = func(context.Context, usecase.Transaction, string, decimal.Decimal, string) (string, error) {
			return "", errors.New("core banking unavailable")
		}

		_, err := f.paymentUC.MakePayment(context.Background(), usecase.MakePaymentInput{
			LoanID: loan.ID, Amount: dec("461.45"), IdempotencyKey: "k",
		})
		require.ErrorIs(t, err, domain.ErrDownstreamFailure)
		assert.True(t, domain.IsRetryable(err))
	})

	t.Run("begin failure is persistence", func(t *testing.T) {
		f := newFixture(t, "0")
		loan := f.activeLoan(t, "10000", 24)

		f.txManager.BeginFunc = func(context.Context) (usecase.Transaction, error) {
			return nil, errors.New("too many connections")
		}

		_, err := f.paymentUC.MakePayment(context.Background(), usecase.MakePaymentInput{
			LoanID: loan.ID, Amount: dec("461.45"), IdempotencyKey: "k",
		})
		require.ErrorIs(t, err, domain.ErrPersistenceFailure)
	})
}

func TestPaymentUseCase_MakePayment_Concurrent(t *testing.T) {
	f := newFixture(t, "1000")
	ctx := context.Background()
	loan := f.activeLoan(t, "8000", 12)

	var wg sync.WaitGroup
	results := make([]*usecase.PaymentResult, 2)
	errs := make([]error, 2)

	for i := range 2 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.paymentUC.MakePayment(ctx, usecase.MakePaymentInput{
				LoanID:         loan.ID,
				Amount:         dec("5000"),
				IdempotencyKey: fmt.Sprintf("concurrent-%d", i),
			})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	applied := []decimal.Decimal{results[0].Payment.Amount, results[1].Payment.Amount}
	full, remainder := applied[0], applied[1]
	if full.LessThan(remainder) {
		full, remainder = remainder, full
	}
	assert.True(t, full.Equal(dec("5000")), "one payment applies fully, got %s", full)
	assert.True(t, remainder.Equal(dec("3092.13")), "the other applies only the remainder, got %s", remainder)

	stored, err := f.loans.GetByID(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, stored.Balance().IsZero())
	assert.Equal(t, domain.LoanStatusCompleted, stored.Status)

	// 1000 + 8000 disbursed - 8092.13 repaid
	assert.True(t, f.ledger.Balance(savingsAccount).Equal(dec("907.87")))
}

func TestPaymentUseCase_GetSchedule_NotFound(t *testing.T) {
	f := newFixture(t, "0")

	_, err := f.paymentUC.GetSchedule(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrLoanNotFound)

	_, err = f.paymentUC.ListPayments(context.Background(), "missing", 10, 0)
	require.ErrorIs(t, err, domain.ErrLoanNotFound)
}
