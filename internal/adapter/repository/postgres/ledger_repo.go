package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nxfinance/loans/internal/domain"
	"github.com/nxfinance/loans/internal/infrastructure/postgres/generated"
	"github.com/nxfinance/loans/internal/usecase"
)

// LedgerRepository implements usecase.Ledger on the bank's deposit
// accounts. Every movement locks the account row, rewrites its balance and
// appends an account_entries row in the caller's transaction.
type LedgerRepository struct {
	queries *generated.Queries
	idGen   usecase.IDGenerator
	now     func() time.Time
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool, idGen usecase.IDGenerator) *LedgerRepository {
	return newLedgerRepository(pool, idGen)
}

func newLedgerRepository(db generated.DBTX, idGen usecase.IDGenerator) *LedgerRepository {
	return &LedgerRepository{
		queries: generated.New(db),
		idGen:   idGen,
		now:     time.Now,
	}
}

// Credit adds amount to the account and returns the entry ID.
func (r *LedgerRepository) Credit(ctx context.Context, tx usecase.Transaction, accountID string, amount decimal.Decimal, memo string) (string, error) {
	if !amount.IsPositive() {
		return "", domain.ErrInvalidAmount
	}

	return r.move(ctx, tx, accountID, amount, domain.EntryTypeLoanDisbursement, memo)
}

// Debit removes amount from the account and returns the entry ID.
func (r *LedgerRepository) Debit(ctx context.Context, tx usecase.Transaction, accountID string, amount decimal.Decimal, memo string) (string, error) {
	if !amount.IsPositive() {
		return "", domain.ErrInvalidAmount
	}

	return r.move(ctx, tx, accountID, amount.Neg(), domain.EntryTypeLoanPayment, memo)
}

// AvailableBalance locks the account and returns its current balance.
func (r *LedgerRepository) AvailableBalance(ctx context.Context, tx usecase.Transaction, accountID string) (decimal.Decimal, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return decimal.Zero, err
	}

	account, err := lockAccount(ctx, queries, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	return account.Balance, nil
}

// DefaultAccount returns the customer's oldest savings account.
func (r *LedgerRepository) DefaultAccount(ctx context.Context, tx usecase.Transaction, customerID string) (string, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return "", err
	}

	id, err := queries.GetDefaultAccountID(ctx, customerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNoDefaultAccount
		}

		return "", err
	}

	return id, nil
}

// AccountOwner returns the customer holding the account.
func (r *LedgerRepository) AccountOwner(ctx context.Context, tx usecase.Transaction, accountID string) (string, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return "", err
	}

	row, err := queries.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrAccountNotFound
		}

		return "", err
	}

	return row.CustomerID, nil
}

// GetAccount reads an account without locking it.
func (r *LedgerRepository) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

// ListEntries lists an account's movements, newest first.
func (r *LedgerRepository) ListEntries(ctx context.Context, accountID string, limit, offset int) ([]*domain.Entry, error) {
	l, o := pageParams(limit, offset)

	rows, err := r.queries.ListEntriesByAccount(ctx, generated.ListEntriesByAccountParams{
		AccountID: accountID,
		Limit:     l,
		Offset:    o,
	})
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, &domain.Entry{
			ID:                     row.ID,
			AccountID:              row.AccountID,
			Type:                   domain.EntryType(row.Type),
			Memo:                   row.Memo,
			Amount:                 numericToDecimal(row.Amount),
			AccountPreviousBalance: numericToDecimal(row.AccountPreviousBalance),
			AccountCurrentBalance:  numericToDecimal(row.AccountCurrentBalance),
			AccountVersion:         row.AccountVersion,
			CreatedAt:              row.CreatedAt.Time,
		})
	}

	return entries, nil
}

func (r *LedgerRepository) move(ctx context.Context, tx usecase.Transaction, accountID string, delta decimal.Decimal, entryType domain.EntryType, memo string) (string, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return "", err
	}

	account, err := lockAccount(ctx, queries, accountID)
	if err != nil {
		return "", err
	}

	if delta.IsNegative() {
		if err := account.ValidateDebit(delta.Neg()); err != nil {
			return "", err
		}
	}

	now := r.now().UTC()
	newBalance := account.Balance.Add(delta)
	newVersion := account.Version + 1

	if err := queries.UpdateAccountBalance(ctx, generated.UpdateAccountBalanceParams{
		ID:        account.ID,
		Balance:   decimalToNumeric(newBalance),
		Version:   newVersion,
		UpdatedAt: timeToPgTimestamptz(now),
	}); err != nil {
		return "", err
	}

	entryID := r.idGen.Generate()
	if err := queries.CreateAccountEntry(ctx, generated.CreateAccountEntryParams{
		ID:                     entryID,
		AccountID:              account.ID,
		Type:                   string(entryType),
		Memo:                   memo,
		Amount:                 decimalToNumeric(delta),
		AccountPreviousBalance: decimalToNumeric(account.Balance),
		AccountCurrentBalance:  decimalToNumeric(newBalance),
		AccountVersion:         newVersion,
		CreatedAt:              timeToPgTimestamptz(now),
	}); err != nil {
		return "", err
	}

	return entryID, nil
}

func lockAccount(ctx context.Context, queries *generated.Queries, accountID string) (*domain.Account, error) {
	row, err := queries.GetAccountByIDForUpdate(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		ID:                   row.ID,
		CustomerID:           row.CustomerID,
		Type:                 domain.AccountType(row.Type),
		Currency:             row.Currency,
		Balance:              numericToDecimal(row.Balance),
		Version:              row.Version,
		AllowNegativeBalance: row.AllowNegativeBalance,
		CreatedAt:            row.CreatedAt.Time,
		UpdatedAt:            row.UpdatedAt.Time,
	}
}
