package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType mirrors the bank's deposit account products.
type AccountType string

const (
	AccountTypeSavings  AccountType = "savings"
	AccountTypeChecking AccountType = "checking"
)

// Account is a customer deposit account held in the bank ledger. Loans are
// disbursed into and repaid from these accounts.
type Account struct {
	ID                   string
	CustomerID           string
	Type                 AccountType
	Currency             string
	Balance              decimal.Decimal
	Version              int64
	AllowNegativeBalance bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ValidateDebit checks if account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	newBalance := a.Balance.Sub(amount)
	if !a.AllowNegativeBalance && newBalance.IsNegative() {
		return ErrInsufficientFunds
	}
	return nil
}

// ApplyDebit returns new balance after debit.
func (a *Account) ApplyDebit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns new balance after credit.
func (a *Account) ApplyCredit(amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(amount)
}
