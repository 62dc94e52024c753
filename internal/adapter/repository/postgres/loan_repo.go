package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nxfinance/loans/internal/domain"
	"github.com/nxfinance/loans/internal/infrastructure/postgres/generated"
	"github.com/nxfinance/loans/internal/usecase"
)

// LoanRepository implements usecase.LoanRepository.
type LoanRepository struct {
	queries *generated.Queries
}

// NewLoanRepository creates a new LoanRepository.
func NewLoanRepository(pool *pgxpool.Pool) *LoanRepository {
	return newLoanRepository(pool)
}

func newLoanRepository(db generated.DBTX) *LoanRepository {
	return &LoanRepository{queries: generated.New(db)}
}

// Create inserts a new loan within a transaction.
func (r *LoanRepository) Create(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	return queries.CreateLoan(ctx, generated.CreateLoanParams{
		ID:                        loan.ID,
		CustomerID:                loan.CustomerID,
		LoanTypeID:                loan.LoanTypeID,
		PrincipalAmount:           decimalToNumeric(loan.PrincipalAmount),
		AnnualInterestRatePercent: decimalToNumeric(loan.AnnualInterestRatePercent),
		TermMonths:                int32(loan.TermMonths),
		Status:                    string(loan.Status),
		StartDate:                 timePtrToPgTimestamptz(loan.StartDate),
		EndDate:                   timePtrToPgTimestamptz(loan.EndDate),
		RemainingBalance:          nullDecimalToNumeric(loan.RemainingBalance),
		MonthlyPaymentAmount:      nullDecimalToNumeric(loan.MonthlyPaymentAmount),
		Purpose:                   loan.Purpose,
		DisbursementAccountID:     stringToPgText(loan.DisbursementAccountID),
		RejectionReason:           loan.RejectionReason,
		Version:                   loan.Version,
		CreatedAt:                 timeToPgTimestamptz(loan.CreatedAt),
		UpdatedAt:                 timeToPgTimestamptz(loan.UpdatedAt),
	})
}

// GetByID retrieves a loan by ID.
func (r *LoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	row, err := r.queries.GetLoanByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}

		return nil, err
	}

	return rowToLoan(row), nil
}

// GetByIDForUpdate retrieves a loan by ID with a FOR UPDATE lock.
func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	row, err := queries.GetLoanByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanNotFound
		}

		return nil, err
	}

	return rowToLoan(row), nil
}

// Update writes the mutable loan fields guarded by the loan version.
func (r *LoanRepository) Update(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	affected, err := queries.UpdateLoan(ctx, generated.UpdateLoanParams{
		ID:                    loan.ID,
		Status:                string(loan.Status),
		StartDate:             timePtrToPgTimestamptz(loan.StartDate),
		EndDate:               timePtrToPgTimestamptz(loan.EndDate),
		RemainingBalance:      nullDecimalToNumeric(loan.RemainingBalance),
		MonthlyPaymentAmount:  nullDecimalToNumeric(loan.MonthlyPaymentAmount),
		DisbursementAccountID: stringToPgText(loan.DisbursementAccountID),
		RejectionReason:       loan.RejectionReason,
		UpdatedAt:             timeToPgTimestamptz(loan.UpdatedAt),
		Version:               loan.Version,
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return domain.ErrConcurrentModification
	}

	loan.Version++

	return nil
}

// ListByCustomer lists a customer's loans, newest first.
func (r *LoanRepository) ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*domain.Loan, error) {
	l, o := pageParams(limit, offset)

	rows, err := r.queries.ListLoansByCustomer(ctx, generated.ListLoansByCustomerParams{
		CustomerID: customerID,
		Limit:      l,
		Offset:     o,
	})
	if err != nil {
		return nil, err
	}

	return rowsToLoans(rows), nil
}

// ListByStatus lists loans in a status, oldest first.
func (r *LoanRepository) ListByStatus(ctx context.Context, status domain.LoanStatus, limit, offset int) ([]*domain.Loan, error) {
	l, o := pageParams(limit, offset)

	rows, err := r.queries.ListLoansByStatus(ctx, generated.ListLoansByStatusParams{
		Status: string(status),
		Limit:  l,
		Offset: o,
	})
	if err != nil {
		return nil, err
	}

	return rowsToLoans(rows), nil
}

func rowsToLoans(rows []generated.Loan) []*domain.Loan {
	loans := make([]*domain.Loan, 0, len(rows))
	for _, row := range rows {
		loans = append(loans, rowToLoan(row))
	}

	return loans
}

func rowToLoan(row generated.Loan) *domain.Loan {
	return &domain.Loan{
		ID:                        row.ID,
		CustomerID:                row.CustomerID,
		LoanTypeID:                row.LoanTypeID,
		PrincipalAmount:           numericToDecimal(row.PrincipalAmount),
		AnnualInterestRatePercent: numericToDecimal(row.AnnualInterestRatePercent),
		TermMonths:                int(row.TermMonths),
		Status:                    domain.LoanStatus(row.Status),
		StartDate:                 pgTimestamptzToTimePtr(row.StartDate),
		EndDate:                   pgTimestamptzToTimePtr(row.EndDate),
		RemainingBalance:          numericToNullDecimal(row.RemainingBalance),
		MonthlyPaymentAmount:      numericToNullDecimal(row.MonthlyPaymentAmount),
		Purpose:                   row.Purpose,
		DisbursementAccountID:     row.DisbursementAccountID.String,
		RejectionReason:           row.RejectionReason,
		Version:                   row.Version,
		CreatedAt:                 row.CreatedAt.Time,
		UpdatedAt:                 row.UpdatedAt.Time,
	}
}
