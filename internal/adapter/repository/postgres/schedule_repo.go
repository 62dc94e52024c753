package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nxfinance/loans/internal/domain"
	"github.com/nxfinance/loans/internal/infrastructure/postgres/generated"
	"github.com/nxfinance/loans/internal/usecase"
)

// ScheduleRepository implements usecase.ScheduleRepository.
type ScheduleRepository struct {
	queries *generated.Queries
}

// NewScheduleRepository creates a new ScheduleRepository.
func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return newScheduleRepository(pool)
}

func newScheduleRepository(db generated.DBTX) *ScheduleRepository {
	return &ScheduleRepository{queries: generated.New(db)}
}

// CreateBatch inserts a whole schedule with a single statement.
func (r *ScheduleRepository) CreateBatch(ctx context.Context, tx usecase.Transaction, entries []domain.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}

	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	params := generated.CreateScheduleEntriesParams{
		Ids:                 make([]string, 0, len(entries)),
		LoanIds:             make([]string, 0, len(entries)),
		SequenceNumbers:     make([]int32, 0, len(entries)),
		DueDates:            make([]pgtype.Timestamptz, 0, len(entries)),
		ScheduledAmounts:    make([]pgtype.Numeric, 0, len(entries)),
		PrincipalComponents: make([]pgtype.Numeric, 0, len(entries)),
		InterestComponents:  make([]pgtype.Numeric, 0, len(entries)),
		Statuses:            make([]string, 0, len(entries)),
	}

	for _, e := range entries {
		params.Ids = append(params.Ids, e.ID)
		params.LoanIds = append(params.LoanIds, e.LoanID)
		params.SequenceNumbers = append(params.SequenceNumbers, int32(e.SequenceNumber))
		params.DueDates = append(params.DueDates, timeToPgTimestamptz(e.DueDate))
		params.ScheduledAmounts = append(params.ScheduledAmounts, decimalToNumeric(e.ScheduledAmount))
		params.PrincipalComponents = append(params.PrincipalComponents, decimalToNumeric(e.PrincipalComponent))
		params.InterestComponents = append(params.InterestComponents, decimalToNumeric(e.InterestComponent))
		params.Statuses = append(params.Statuses, string(e.Status))
	}

	return queries.CreateScheduleEntries(ctx, params)
}

// ListByLoan returns a loan's schedule ordered by sequence number.
func (r *ScheduleRepository) ListByLoan(ctx context.Context, loanID string) ([]domain.ScheduleEntry, error) {
	return listSchedule(ctx, r.queries, loanID)
}

// ListByLoanTx is ListByLoan inside the caller's transaction.
func (r *ScheduleRepository) ListByLoanTx(ctx context.Context, tx usecase.Transaction, loanID string) ([]domain.ScheduleEntry, error) {
	queries, err := queriesFor(tx)
	if err != nil {
		return nil, err
	}

	return listSchedule(ctx, queries, loanID)
}

// UpdateStatus persists an entry's status and paid time.
func (r *ScheduleRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, entry domain.ScheduleEntry) error {
	queries, err := queriesFor(tx)
	if err != nil {
		return err
	}

	affected, err := queries.UpdateScheduleEntryStatus(ctx, generated.UpdateScheduleEntryStatusParams{
		ID:     entry.ID,
		Status: string(entry.Status),
		PaidAt: timePtrToPgTimestamptz(entry.PaidAt),
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return fmt.Errorf("schedule entry %s: %w", entry.ID, domain.ErrNotFound)
	}

	return nil
}

func listSchedule(ctx context.Context, queries *generated.Queries, loanID string) ([]domain.ScheduleEntry, error) {
	rows, err := queries.ListScheduleEntriesByLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.ScheduleEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, domain.ScheduleEntry{
			ID:                 row.ID,
			LoanID:             row.LoanID,
			SequenceNumber:     int(row.SequenceNumber),
			DueDate:            row.DueDate.Time,
			ScheduledAmount:    numericToDecimal(row.ScheduledAmount),
			PrincipalComponent: numericToDecimal(row.PrincipalComponent),
			InterestComponent:  numericToDecimal(row.InterestComponent),
			Status:             domain.ScheduleEntryStatus(row.Status),
			PaidAt:             pgTimestamptzToTimePtr(row.PaidAt),
		})
	}

	return entries, nil
}
