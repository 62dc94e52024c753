package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"

	"github.com/nxfinance/loans/internal/domain"
	"github.com/nxfinance/loans/internal/usecase"
	"github.com/nxfinance/loans/internal/usecase/mocks"
)

const (
	customerID     = "cust-1"
	savingsAccount = "acc-savings"
)

var approvalDate = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func personalLoanType() *domain.LoanType {
	return &domain.LoanType{
		ID:                        "personal",
		Name:                      "Personal Loan",
		AnnualInterestRatePercent: dec("9.99"),
		MinAmount:                 dec("1000"),
		MaxAmount:                 dec("25000"),
		MinTermMonths:             12,
		MaxTermMonths:             60,
	}
}

type fixture struct {
	txManager *mocks.MockTransactionManager
	loans     *mocks.MockLoanRepository
	loanTypes *mocks.MockLoanTypeRepository
	schedules *mocks.MockScheduleRepository
	payments  *mocks.MockPaymentRepository
	ledger    *mocks.MockLedger
	outbox    *mocks.MockOutboxRepository
	idGen     *mocks.MockIDGenerator

	loanUC    *usecase.LoanUseCase
	paymentUC *usecase.PaymentUseCase
	reconUC   *usecase.ReconciliationUseCase
}

func newFixture(t *testing.T, openingBalance string) *fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := &fixture{
		txManager: mocks.NewMockTransactionManager(),
		loans:     mocks.NewMockLoanRepository(),
		loanTypes: mocks.NewMockLoanTypeRepository(ctrl),
		schedules: mocks.NewMockScheduleRepository(),
		payments:  mocks.NewMockPaymentRepository(),
		ledger:    mocks.NewMockLedger(),
		outbox:    mocks.NewMockOutboxRepository(),
		idGen:     mocks.NewMockIDGenerator(),
	}

	f.loanTypes.EXPECT().GetByID(gomock.Any(), "personal").Return(personalLoanType(), nil).AnyTimes()
	f.loanTypes.EXPECT().GetByID(gomock.Any(), gomock.Not("personal")).Return(nil, domain.ErrLoanTypeNotFound).AnyTimes()

	f.ledger.AddAccount(&domain.Account{
		ID:         savingsAccount,
		CustomerID: customerID,
		Type:       domain.AccountTypeSavings,
		Currency:   "USD",
		Balance:    dec(openingBalance),
	})

	f.loanUC = usecase.NewLoanUseCase(f.txManager, f.loans, f.loanTypes, f.schedules, f.ledger, f.outbox, f.idGen, nil)
	f.paymentUC = usecase.NewPaymentUseCase(f.txManager, f.loans, f.schedules, f.payments, f.ledger, f.outbox, f.idGen, nil)
	f.reconUC = usecase.NewReconciliationUseCase(f.loans, f.schedules, f.payments)

	return f
}

// activeLoan applies for and approves a personal loan.
func (f *fixture) activeLoan(t *testing.T, amount string, term int) *domain.Loan {
	t.Helper()

	ctx := context.Background()

	loan, err := f.loanUC.Apply(ctx, usecase.ApplyInput{
		CustomerID: customerID,
		LoanTypeID: "personal",
		Amount:     dec(amount),
		TermMonths: term,
		Purpose:    "car",
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	loan, err = f.loanUC.Approve(ctx, loan.ID, approvalDate)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}

	return loan
}
