package usecase

import (
	"context"

	"github.com/nxfinance/loans/internal/domain"
)

// LoanTypeUseCase exposes the loan product catalog.
type LoanTypeUseCase struct {
	loanTypeRepo LoanTypeRepository
}

func NewLoanTypeUseCase(loanTypeRepo LoanTypeRepository) *LoanTypeUseCase {
	return &LoanTypeUseCase{loanTypeRepo: loanTypeRepo}
}

// GetLoanType retrieves a loan type by ID.
func (uc *LoanTypeUseCase) GetLoanType(ctx context.Context, id string) (*domain.LoanType, error) {
	if err := domain.ValidateID(id); err != nil {
		return nil, err
	}

	lt, err := uc.loanTypeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, persistenceError("get loan type", err)
	}
	return lt, nil
}

// ListLoanTypes lists all loan types.
func (uc *LoanTypeUseCase) ListLoanTypes(ctx context.Context) ([]*domain.LoanType, error) {
	types, err := uc.loanTypeRepo.List(ctx)
	if err != nil {
		return nil, persistenceError("list loan types", err)
	}
	return types, nil
}
