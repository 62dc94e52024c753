package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nxfinance/loans/internal/domain"
	"github.com/nxfinance/loans/internal/infrastructure/postgres/generated"
	"github.com/nxfinance/loans/internal/usecase"
)

const (
	pgErrUniqueViolation = "23505"

	paymentIdempotencyConstraint = "loan_payments_loan_id_idempotency_key_key"
)

// PaymentRepository implements usecase.PaymentRepository.
type PaymentRepository struct {
	queries *generated.Queries
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return newPaymentRepository(pool)
}

func newPaymentRepository(db generated.DBTX) *PaymentRepository {
	return &PaymentRepository{queries: generated.New(db)}
}

// Create appends a payment record. A second payment with the same
// idempotency key on the same loan returns domain.ErrDuplicatePayment.
func (r *PaymentRepository) Create(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	err = queries.CreatePayment(ctx, generated.CreatePaymentParams{
		ID:                        payment.ID,
		LoanID:                    payment.LoanID,
		SourceAccountID:           payment.SourceAccountID,
		IdempotencyKey:            payment.IdempotencyKey,
		Amount:                    decimalToNumeric(payment.Amount),
		RequestedAmount:           decimalToNumeric(payment.RequestedAmount),
		InterestPortion:           decimalToNumeric(payment.InterestPortion),
		PrincipalPortion:          decimalToNumeric(payment.PrincipalPortion),
		ResultingRemainingBalance: decimalToNumeric(payment.ResultingRemainingBalance),
		LedgerReference:           payment.LedgerReference,
		AppliedAt:                 timeToPgTimestamptz(payment.AppliedAt),
	})
	if isIdempotencyViolation(err) {
		return domain.ErrDuplicatePayment
	}

	return err
}

// ExistsByIdempotencyKey reports whether the loan already has a payment
// recorded under key.
func (r *PaymentRepository) ExistsByIdempotencyKey(ctx context.Context, tx usecase.Transaction, loanID, key string) (bool, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return false, err
	}

	return queries.PaymentExistsByIdempotencyKey(ctx, generated.PaymentExistsByIdempotencyKeyParams{
		LoanID:         loanID,
		IdempotencyKey: key,
	})
}

// ListByLoan lists a loan's payments in application order.
func (r *PaymentRepository) ListByLoan(ctx context.Context, loanID string, limit, offset int) ([]*domain.Payment, error) {
	l, o := pageParams(limit, offset)

	rows, err := r.queries.ListPaymentsByLoan(ctx, generated.ListPaymentsByLoanParams{
		LoanID: loanID,
		Limit:  l,
		Offset: o,
	})
	if err != nil {
		return nil, err
	}

	payments := make([]*domain.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, &domain.Payment{
			ID:                        row.ID,
			LoanID:                    row.LoanID,
			SourceAccountID:           row.SourceAccountID,
			IdempotencyKey:            row.IdempotencyKey,
			Amount:                    numericToDecimal(row.Amount),
			RequestedAmount:           numericToDecimal(row.RequestedAmount),
			InterestPortion:           numericToDecimal(row.InterestPortion),
			PrincipalPortion:          numericToDecimal(row.PrincipalPortion),
			ResultingRemainingBalance: numericToDecimal(row.ResultingRemainingBalance),
			LedgerReference:           row.LedgerReference,
			AppliedAt:                 row.AppliedAt.Time,
		})
	}

	return payments, nil
}

func isIdempotencyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	return pgErr.Code == pgErrUniqueViolation && pgErr.ConstraintName == paymentIdempotencyConstraint
}
