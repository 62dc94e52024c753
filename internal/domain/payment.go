package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is an append-only record of money applied to a loan.
type Payment struct {
	ID                        string
	LoanID                    string
	SourceAccountID           string
	IdempotencyKey            string
	Amount                    decimal.Decimal // debited from the source account
	RequestedAmount           decimal.Decimal
	InterestPortion           decimal.Decimal
	PrincipalPortion          decimal.Decimal
	ResultingRemainingBalance decimal.Decimal
	LedgerReference           string
	AppliedAt                 time.Time
}
