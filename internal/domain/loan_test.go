package domain

import (
	"errors"
	"testing"
	"time"
)

func personalLoanType() *LoanType {
	return &LoanType{
		ID:                        "personal",
		Name:                      "Personal Loan",
		AnnualInterestRatePercent: dec("9.99"),
		MinAmount:                 dec("1000"),
		MaxAmount:                 dec("25000"),
		MinTermMonths:             12,
		MaxTermMonths:             60,
	}
}

var testNow = time.Date(2024, 12, 20, 10, 0, 0, 0, time.UTC)

func newPendingLoan(t *testing.T) *Loan {
	t.Helper()

	loan, err := NewLoanApplication("loan-1", "cust-1", personalLoanType(), dec("10000"), 24, "car", "", testNow)
	if err != nil {
		t.Fatalf("NewLoanApplication: %v", err)
	}
	return loan
}

func TestNewLoanApplication(t *testing.T) {
	loan := newPendingLoan(t)

	if loan.Status != LoanStatusPending {
		t.Errorf("status = %s, want pending", loan.Status)
	}
	if !loan.AnnualInterestRatePercent.Equal(dec("9.99")) {
		t.Errorf("rate = %s, want 9.99", loan.AnnualInterestRatePercent)
	}
	if loan.RemainingBalance.Valid || loan.MonthlyPaymentAmount.Valid {
		t.Error("pending loan must not carry balance or monthly payment")
	}
	if loan.StartDate != nil || loan.EndDate != nil {
		t.Error("pending loan must not carry dates")
	}
}

func TestNewLoanApplication_OutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		term   int
	}{
		{"amount above max", "30000", 24},
		{"amount below min", "999.99", 24},
		{"term above max", "10000", 61},
		{"term below min", "10000", 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoanApplication("loan-1", "cust-1", personalLoanType(), dec(tt.amount), tt.term, "", "", testNow)
			if !errors.Is(err, ErrOutOfRange) {
				t.Fatalf("expected ErrOutOfRange, got %v", err)
			}
			if KindOf(err) != KindInvalidInput {
				t.Fatalf("expected invalid_input kind, got %s", KindOf(err))
			}
		})
	}
}

func TestNewLoanApplication_BoundsInclusive(t *testing.T) {
	lt := personalLoanType()

	if _, err := NewLoanApplication("a", "c", lt, dec("1000"), 12, "", "", testNow); err != nil {
		t.Errorf("min bounds rejected: %v", err)
	}
	if _, err := NewLoanApplication("b", "c", lt, dec("25000"), 60, "", "", testNow); err != nil {
		t.Errorf("max bounds rejected: %v", err)
	}
}

func TestLoan_Activate(t *testing.T) {
	loan := newPendingLoan(t)
	approval := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := loan.Activate(approval, testNow); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	if loan.Status != LoanStatusActive {
		t.Errorf("status = %s, want active", loan.Status)
	}
	if !loan.Balance().Equal(dec("10000")) {
		t.Errorf("balance = %s, want 10000", loan.Balance())
	}
	if !loan.MonthlyPaymentAmount.Decimal.Equal(dec("461.41")) {
		t.Errorf("monthly payment = %s, want 461.41", loan.MonthlyPaymentAmount.Decimal)
	}
	if !loan.StartDate.Equal(approval) {
		t.Errorf("start = %v, want %v", loan.StartDate, approval)
	}
	if want := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC); !loan.EndDate.Equal(want) {
		t.Errorf("end = %v, want %v", loan.EndDate, want)
	}

	err := loan.Activate(approval, testNow)
	if !errors.Is(err, ErrLoanNotPending) || KindOf(err) != KindInvalidState {
		t.Fatalf("second approval: expected ErrLoanNotPending, got %v", err)
	}
}

func TestLoan_Reject(t *testing.T) {
	loan := newPendingLoan(t)

	if err := loan.Reject("income too low", testNow); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if loan.Status != LoanStatusRejected || loan.RejectionReason != "income too low" {
		t.Fatalf("unexpected loan after reject: %+v", loan)
	}

	if err := loan.Activate(testNow, testNow); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("approve after reject: expected ErrInvalidState, got %v", err)
	}
}

func TestLoan_MarkDefaulted(t *testing.T) {
	loan := newPendingLoan(t)

	if err := loan.MarkDefaulted("", testNow); !errors.Is(err, ErrLoanNotActive) {
		t.Fatalf("default pending loan: expected ErrLoanNotActive, got %v", err)
	}

	if err := loan.Activate(testNow, testNow); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if err := loan.MarkDefaulted("missed 3 payments", testNow); err != nil {
		t.Fatalf("MarkDefaulted: %v", err)
	}
	if loan.Status != LoanStatusDefaulted {
		t.Errorf("status = %s, want defaulted", loan.Status)
	}
	if !loan.Balance().Equal(dec("10000")) {
		t.Errorf("defaulting must not touch the balance, got %s", loan.Balance())
	}
}

func TestLoan_ApplyPrincipal(t *testing.T) {
	loan := newPendingLoan(t)

	if _, err := loan.ApplyPrincipal(dec("100"), testNow); !errors.Is(err, ErrLoanNotActive) {
		t.Fatalf("pay pending loan: expected ErrLoanNotActive, got %v", err)
	}

	if err := loan.Activate(testNow, testNow); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	balance, err := loan.ApplyPrincipal(dec("378.20"), testNow)
	if err != nil {
		t.Fatalf("ApplyPrincipal: %v", err)
	}
	if !balance.Equal(dec("9621.80")) {
		t.Errorf("balance = %s, want 9621.80", balance)
	}
	if loan.Status != LoanStatusActive {
		t.Errorf("status = %s, want active", loan.Status)
	}

	balance, err = loan.ApplyPrincipal(dec("9621.80"), testNow)
	if err != nil {
		t.Fatalf("ApplyPrincipal: %v", err)
	}
	if !balance.IsZero() || loan.Status != LoanStatusCompleted {
		t.Fatalf("expected completed loan at zero, got %s / %s", balance, loan.Status)
	}

	if _, err := loan.ApplyPrincipal(dec("1"), testNow); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("pay completed loan: expected ErrInvalidState, got %v", err)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to LoanStatus
		want     bool
	}{
		{LoanStatusPending, LoanStatusActive, true},
		{LoanStatusPending, LoanStatusRejected, true},
		{LoanStatusActive, LoanStatusCompleted, true},
		{LoanStatusActive, LoanStatusDefaulted, true},
		{LoanStatusPending, LoanStatusCompleted, false},
		{LoanStatusRejected, LoanStatusActive, false},
		{LoanStatusCompleted, LoanStatusActive, false},
		{LoanStatusDefaulted, LoanStatusActive, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestAddMonths(t *testing.T) {
	tests := []struct {
		start time.Time
		n     int
		want  time.Time
	}{
		{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 1, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), 2, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)},
		{time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC), 3, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		if got := AddMonths(tt.start, tt.n); !got.Equal(tt.want) {
			t.Errorf("AddMonths(%v, %d) = %v, want %v", tt.start, tt.n, got, tt.want)
		}
	}
}
