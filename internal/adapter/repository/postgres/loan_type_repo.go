package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nxfinance/loans/internal/domain"
	"github.com/nxfinance/loans/internal/infrastructure/postgres/generated"
)

// LoanTypeRepository implements usecase.LoanTypeRepository.
type LoanTypeRepository struct {
	queries *generated.Queries
}

// NewLoanTypeRepository creates a new LoanTypeRepository.
func NewLoanTypeRepository(pool *pgxpool.Pool) *LoanTypeRepository {
	return newLoanTypeRepository(pool)
}

func newLoanTypeRepository(db generated.DBTX) *LoanTypeRepository {
	return &LoanTypeRepository{queries: generated.New(db)}
}

// GetByID retrieves a loan type by ID.
func (r *LoanTypeRepository) GetByID(ctx context.Context, id string) (*domain.LoanType, error) {
	row, err := r.queries.GetLoanTypeByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLoanTypeNotFound
		}

		return nil, err
	}

	return rowToLoanType(row), nil
}

// List returns the whole catalog ordered by name.
func (r *LoanTypeRepository) List(ctx context.Context) ([]*domain.LoanType, error) {
	rows, err := r.queries.ListLoanTypes(ctx)
	if err != nil {
		return nil, err
	}

	types := make([]*domain.LoanType, 0, len(rows))
	for _, row := range rows {
		types = append(types, rowToLoanType(row))
	}

	return types, nil
}

func rowToLoanType(row generated.LoanType) *domain.LoanType {
	return &domain.LoanType{
		ID:                        row.ID,
		Name:                      row.Name,
		Description:               row.Description,
		AnnualInterestRatePercent: numericToDecimal(row.AnnualInterestRatePercent),
		MinAmount:                 numericToDecimal(row.MinAmount),
		MaxAmount:                 numericToDecimal(row.MaxAmount),
		MinTermMonths:             int(row.MinTermMonths),
		MaxTermMonths:             int(row.MaxTermMonths),
		CreatedAt:                 row.CreatedAt.Time,
		UpdatedAt:                 row.UpdatedAt.Time,
	}
}
