package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType classifies a ledger movement.
type EntryType string

const (
	EntryTypeLoanDisbursement EntryType = "loan_disbursement"
	EntryTypeLoanPayment      EntryType = "loan_payment"
)

// Entry is a single movement on a deposit account. Amount is signed:
// credits are positive, debits negative.
type Entry struct {
	CreatedAt              time.Time
	ID                     string
	AccountID              string
	Type                   EntryType
	Memo                   string
	Amount                 decimal.Decimal
	AccountPreviousBalance decimal.Decimal
	AccountCurrentBalance  decimal.Decimal
	AccountVersion         int64
}
