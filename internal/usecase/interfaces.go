package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nxfinance/loans/internal/domain"
)

// LoanRepository defines data access for loans.
type LoanRepository interface {
	Create(ctx context.Context, tx Transaction, loan *domain.Loan) error
	GetByID(ctx context.Context, id string) (*domain.Loan, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Loan, error)
	// Update persists loan if its stored version still equals loan.Version,
	// then bumps loan.Version. A mismatch returns domain.ErrConcurrentModification.
	Update(ctx context.Context, tx Transaction, loan *domain.Loan) error
	ListByCustomer(ctx context.Context, customerID string, limit, offset int) ([]*domain.Loan, error)
	ListByStatus(ctx context.Context, status domain.LoanStatus, limit, offset int) ([]*domain.Loan, error)
}

// LoanTypeRepository defines read access to the loan product catalog.
type LoanTypeRepository interface {
	GetByID(ctx context.Context, id string) (*domain.LoanType, error)
	List(ctx context.Context) ([]*domain.LoanType, error)
}

// ScheduleRepository defines data access for amortization schedules.
type ScheduleRepository interface {
	CreateBatch(ctx context.Context, tx Transaction, entries []domain.ScheduleEntry) error
	ListByLoan(ctx context.Context, loanID string) ([]domain.ScheduleEntry, error)
	ListByLoanTx(ctx context.Context, tx Transaction, loanID string) ([]domain.ScheduleEntry, error)
	UpdateStatus(ctx context.Context, tx Transaction, entry domain.ScheduleEntry) error
}

// PaymentRepository defines data access for loan payments.
type PaymentRepository interface {
	Create(ctx context.Context, tx Transaction, payment *domain.Payment) error
	ExistsByIdempotencyKey(ctx context.Context, tx Transaction, loanID, key string) (bool, error)
	ListByLoan(ctx context.Context, loanID string, limit, offset int) ([]*domain.Payment, error)
}

// Ledger moves money on customer deposit accounts inside the caller's
// transaction. Credit and Debit return a reference to the recorded movement.
type Ledger interface {
	Credit(ctx context.Context, tx Transaction, accountID string, amount decimal.Decimal, memo string) (string, error)
	Debit(ctx context.Context, tx Transaction, accountID string, amount decimal.Decimal, memo string) (string, error)
	AvailableBalance(ctx context.Context, tx Transaction, accountID string) (decimal.Decimal, error)
	DefaultAccount(ctx context.Context, tx Transaction, customerID string) (string, error)
	AccountOwner(ctx context.Context, tx Transaction, accountID string) (string, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key so the request can be retried.
	Release(ctx context.Context, key string) error
}
