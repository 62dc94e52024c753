package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LoanType is a loan product definition. Loans snapshot its rate at
// application time, so edits never reach existing loans.
type LoanType struct {
	ID                        string
	Name                      string
	Description               string
	AnnualInterestRatePercent decimal.Decimal
	MinAmount                 decimal.Decimal
	MaxAmount                 decimal.Decimal
	MinTermMonths             int
	MaxTermMonths             int
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// ValidateApplication checks amount and term against the product bounds (inclusive).
func (lt *LoanType) ValidateApplication(amount decimal.Decimal, termMonths int) error {
	if amount.LessThan(lt.MinAmount) || amount.GreaterThan(lt.MaxAmount) {
		return fmt.Errorf("%w: loan amount must be between %s and %s",
			ErrOutOfRange, lt.MinAmount.StringFixed(MoneyPlaces), lt.MaxAmount.StringFixed(MoneyPlaces))
	}

	if termMonths < lt.MinTermMonths || termMonths > lt.MaxTermMonths {
		return fmt.Errorf("%w: loan term must be between %d and %d months",
			ErrOutOfRange, lt.MinTermMonths, lt.MaxTermMonths)
	}

	return nil
}
