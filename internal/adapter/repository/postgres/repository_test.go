package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/nxfinance/loans/internal/domain"
)

var (
	loanColumns = []string{
		"id", "customer_id", "loan_type_id", "principal_amount", "annual_interest_rate_percent",
		"term_months", "status", "start_date", "end_date", "remaining_balance", "monthly_payment_amount",
		"purpose", "disbursement_account_id", "rejection_reason", "version", "created_at", "updated_at",
	}
	accountColumns = []string{
		"id", "customer_id", "type", "currency", "balance", "version",
		"allow_negative_balance", "created_at", "updated_at",
	}
	scheduleColumns = []string{
		"id", "loan_id", "sequence_number", "due_date", "scheduled_amount",
		"principal_component", "interest_component", "status", "paid_at",
	}

	testTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
)

func sqlFragment(s string) string {
	return regexp.QuoteMeta(s)
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func num(s string) pgtype.Numeric {
	return decimalToNumeric(decimal.RequireFromString(s))
}

func ts(t time.Time) pgtype.Timestamptz {
	return timeToPgTimestamptz(t)
}

type testIDGen struct{ n int }

func (g *testIDGen) Generate() string {
	g.n++
	return fmt.Sprintf("entry-%d", g.n)
}

func beginTx(t *testing.T, pool pgxmock.PgxPoolIface) *Tx {
	t.Helper()
	pool.ExpectBegin()

	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return tx.(*Tx)
}

func activeLoanRow() *pgxmock.Rows {
	return pgxmock.NewRows(loanColumns).AddRow(
		"loan-1", "cust-1", "personal", num("10000"), num("9.99"),
		int32(24), "active", ts(testTime), ts(testTime.AddDate(2, 0, 0)), num("9621.80"), num("461.40"),
		"car repair", pgtype.Text{String: "acc-1", Valid: true}, "", int64(2), ts(testTime), ts(testTime),
	)
}

func TestLoanRepositoryGetByIDNotFound(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery(sqlFragment("FROM loans WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := newLoanRepository(pool).GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrLoanNotFound) {
		t.Fatalf("expected ErrLoanNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestLoanRepositoryGetByIDForUpdateMapsRow(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	pool.ExpectQuery(sqlFragment("FROM loans WHERE id = $1 FOR UPDATE")).
		WithArgs("loan-1").
		WillReturnRows(activeLoanRow())

	loan, err := newLoanRepository(pool).GetByIDForUpdate(context.Background(), tx, "loan-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if loan.Status != domain.LoanStatusActive {
		t.Fatalf("expected active, got %s", loan.Status)
	}
	if loan.TermMonths != 24 || loan.Version != 2 {
		t.Fatalf("unexpected term/version %d/%d", loan.TermMonths, loan.Version)
	}
	if !loan.RemainingBalance.Valid || !loan.RemainingBalance.Decimal.Equal(decimal.RequireFromString("9621.80")) {
		t.Fatalf("unexpected balance %+v", loan.RemainingBalance)
	}
	if loan.DisbursementAccountID != "acc-1" {
		t.Fatalf("unexpected disbursement account %q", loan.DisbursementAccountID)
	}
	if loan.StartDate == nil || !loan.StartDate.Equal(testTime) {
		t.Fatalf("unexpected start date %v", loan.StartDate)
	}

	assertExpectations(t, pool)
}

func TestLoanRepositoryUpdate(t *testing.T) {
	tests := []struct {
		name        string
		affected    int64
		wantErr     error
		wantVersion int64
	}{
		{"bumps version", 1, nil, 3},
		{"stale version", 0, domain.ErrConcurrentModification, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := newMockPool(t)
			tx := beginTx(t, pool)

			pool.ExpectExec(sqlFragment("UPDATE loans")).
				WithArgs(anyArgs(10)...).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			loan := &domain.Loan{ID: "loan-1", Status: domain.LoanStatusActive, Version: 2, UpdatedAt: testTime}
			err := newLoanRepository(pool).Update(context.Background(), tx, loan)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if loan.Version != tt.wantVersion {
				t.Fatalf("expected version %d, got %d", tt.wantVersion, loan.Version)
			}

			assertExpectations(t, pool)
		})
	}
}

func TestLoanRepositoryRequiresPgTransaction(t *testing.T) {
	pool := newMockPool(t)

	err := newLoanRepository(pool).Create(context.Background(), nil, &domain.Loan{ID: "loan-1"})
	if !errors.Is(err, errForeignTransaction) {
		t.Fatalf("expected errForeignTransaction, got %v", err)
	}
}

func TestLoanTypeRepositoryGetByIDNotFound(t *testing.T) {
	pool := newMockPool(t)
	pool.ExpectQuery(sqlFragment("FROM loan_types WHERE id = $1")).
		WithArgs("boat").
		WillReturnError(pgx.ErrNoRows)

	_, err := newLoanTypeRepository(pool).GetByID(context.Background(), "boat")
	if !errors.Is(err, domain.ErrLoanTypeNotFound) {
		t.Fatalf("expected ErrLoanTypeNotFound, got %v", err)
	}
}

func TestLoanTypeRepositoryList(t *testing.T) {
	pool := newMockPool(t)
	rows := pgxmock.NewRows([]string{
		"id", "name", "description", "annual_interest_rate_percent", "min_amount", "max_amount",
		"min_term_months", "max_term_months", "created_at", "updated_at",
	}).
		AddRow("auto", "Auto Loan", "Vehicles", num("5.99"), num("5000"), num("75000"), int32(12), int32(72), ts(testTime), ts(testTime)).
		AddRow("personal", "Personal Loan", "Anything", num("9.99"), num("1000"), num("50000"), int32(6), int32(60), ts(testTime), ts(testTime))

	pool.ExpectQuery(sqlFragment("FROM loan_types ORDER BY name")).WillReturnRows(rows)

	types, err := newLoanTypeRepository(pool).List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(types) != 2 || types[0].ID != "auto" || types[1].MaxTermMonths != 60 {
		t.Fatalf("unexpected loan types %+v", types)
	}
	if !types[1].AnnualInterestRatePercent.Equal(decimal.RequireFromString("9.99")) {
		t.Fatalf("unexpected rate %s", types[1].AnnualInterestRatePercent)
	}
}

func TestScheduleRepositoryCreateBatchEmptyIsNoop(t *testing.T) {
	pool := newMockPool(t)

	if err := newScheduleRepository(pool).CreateBatch(context.Background(), nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, pool)
}

func TestScheduleRepositoryCreateBatch(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	pool.ExpectExec(sqlFragment("INSERT INTO loan_schedule_entries")).
		WithArgs(
			[]string{"s-1", "s-2"},
			[]string{"loan-1", "loan-1"},
			[]int32{1, 2},
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			[]string{"scheduled", "scheduled"},
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))

	entries := []domain.ScheduleEntry{
		{ID: "s-1", LoanID: "loan-1", SequenceNumber: 1, DueDate: testTime, Status: domain.ScheduleEntryScheduled},
		{ID: "s-2", LoanID: "loan-1", SequenceNumber: 2, DueDate: testTime, Status: domain.ScheduleEntryScheduled},
	}

	if err := newScheduleRepository(pool).CreateBatch(context.Background(), tx, entries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, pool)
}

func TestScheduleRepositoryListByLoan(t *testing.T) {
	pool := newMockPool(t)
	paidAt := testTime.AddDate(0, 1, 0)
	rows := pgxmock.NewRows(scheduleColumns).
		AddRow("s-1", "loan-1", int32(1), ts(testTime.AddDate(0, 1, 0)), num("461.40"), num("378.15"), num("83.25"), "paid", ts(paidAt)).
		AddRow("s-2", "loan-1", int32(2), ts(testTime.AddDate(0, 2, 0)), num("461.40"), num("381.30"), num("80.10"), "scheduled", pgtype.Timestamptz{})

	pool.ExpectQuery(sqlFragment("FROM loan_schedule_entries")).WithArgs("loan-1").WillReturnRows(rows)

	entries, err := newScheduleRepository(pool).ListByLoan(context.Background(), "loan-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].PaidAt == nil || !entries[0].PaidAt.Equal(paidAt) {
		t.Fatalf("expected paid_at %v, got %v", paidAt, entries[0].PaidAt)
	}
	if entries[1].PaidAt != nil || entries[1].Status != domain.ScheduleEntryScheduled {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
}

func TestScheduleRepositoryUpdateStatusMissingEntry(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	pool.ExpectExec(sqlFragment("UPDATE loan_schedule_entries")).
		WithArgs("s-9", "paid", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := newScheduleRepository(pool).UpdateStatus(context.Background(), tx, domain.ScheduleEntry{ID: "s-9", Status: domain.ScheduleEntryPaid})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPaymentRepositoryCreateDuplicateKey(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	pool.ExpectExec(sqlFragment("INSERT INTO loan_payments")).
		WithArgs(anyArgs(11)...).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: paymentIdempotencyConstraint})

	err := newPaymentRepository(pool).Create(context.Background(), tx, &domain.Payment{ID: "p-1", LoanID: "loan-1", IdempotencyKey: "k-1"})
	if !errors.Is(err, domain.ErrDuplicatePayment) {
		t.Fatalf("expected ErrDuplicatePayment, got %v", err)
	}
}

func TestPaymentRepositoryExistsByIdempotencyKey(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	pool.ExpectQuery(sqlFragment("SELECT EXISTS")).
		WithArgs("loan-1", "k-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := newPaymentRepository(pool).ExistsByIdempotencyKey(context.Background(), tx, "loan-1", "k-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Fatalf("expected key to exist")
	}
}

func accountRow(balance string) *pgxmock.Rows {
	return pgxmock.NewRows(accountColumns).AddRow(
		"acc-1", "cust-1", "savings", "USD", num(balance), int64(1), false, ts(testTime), ts(testTime),
	)
}

func TestLedgerRepositoryCredit(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	pool.ExpectQuery(sqlFragment("FROM accounts WHERE id = $1 FOR UPDATE")).
		WithArgs("acc-1").
		WillReturnRows(accountRow("100.00"))
	pool.ExpectExec(sqlFragment("UPDATE accounts SET balance")).
		WithArgs("acc-1", pgxmock.AnyArg(), int64(2), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	pool.ExpectExec(sqlFragment("INSERT INTO account_entries")).
		WithArgs("entry-1", "acc-1", "loan_disbursement", "Loan disbursement for loan loan-1",
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), int64(2), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	ref, err := newLedgerRepository(pool, &testIDGen{}).Credit(context.Background(), tx, "acc-1",
		decimal.RequireFromString("10000"), "Loan disbursement for loan loan-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref != "entry-1" {
		t.Fatalf("expected entry-1, got %s", ref)
	}

	assertExpectations(t, pool)
}

func TestLedgerRepositoryDebitInsufficientFunds(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	pool.ExpectQuery(sqlFragment("FROM accounts WHERE id = $1 FOR UPDATE")).
		WithArgs("acc-1").
		WillReturnRows(accountRow("100.00"))

	_, err := newLedgerRepository(pool, &testIDGen{}).Debit(context.Background(), tx, "acc-1",
		decimal.RequireFromString("461.40"), "Loan payment")
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestLedgerRepositoryRejectsNonPositiveAmount(t *testing.T) {
	pool := newMockPool(t)
	repo := newLedgerRepository(pool, &testIDGen{})

	if _, err := repo.Debit(context.Background(), nil, "acc-1", decimal.Zero, "x"); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := repo.Credit(context.Background(), nil, "acc-1", decimal.NewFromInt(-5), "x"); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestLedgerRepositoryAccountNotFound(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	pool.ExpectQuery(sqlFragment("FROM accounts WHERE id = $1 FOR UPDATE")).
		WithArgs("acc-x").
		WillReturnError(pgx.ErrNoRows)

	_, err := newLedgerRepository(pool, &testIDGen{}).AvailableBalance(context.Background(), tx, "acc-x")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestLedgerRepositoryAccountOwner(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	pool.ExpectQuery(sqlFragment("FROM accounts WHERE id = $1")).
		WithArgs("acc-1").
		WillReturnRows(accountRow("100.00"))
	pool.ExpectQuery(sqlFragment("FROM accounts WHERE id = $1")).
		WithArgs("acc-x").
		WillReturnError(pgx.ErrNoRows)

	repo := newLedgerRepository(pool, &testIDGen{})

	owner, err := repo.AccountOwner(context.Background(), tx, "acc-1")
	if err != nil || owner != "cust-1" {
		t.Fatalf("expected cust-1, got %q (%v)", owner, err)
	}

	_, err = repo.AccountOwner(context.Background(), tx, "acc-x")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestLedgerRepositoryDefaultAccount(t *testing.T) {
	pool := newMockPool(t)
	tx := beginTx(t, pool)

	pool.ExpectQuery(sqlFragment("FROM accounts")).
		WithArgs("cust-1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("acc-1"))
	pool.ExpectQuery(sqlFragment("FROM accounts")).
		WithArgs("cust-2").
		WillReturnError(pgx.ErrNoRows)

	repo := newLedgerRepository(pool, &testIDGen{})

	id, err := repo.DefaultAccount(context.Background(), tx, "cust-1")
	if err != nil || id != "acc-1" {
		t.Fatalf("expected acc-1, got %q (%v)", id, err)
	}

	_, err = repo.DefaultAccount(context.Background(), tx, "cust-2")
	if !errors.Is(err, domain.ErrNoDefaultAccount) {
		t.Fatalf("expected ErrNoDefaultAccount, got %v", err)
	}
}
