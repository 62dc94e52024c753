package usecase

import (
	"context"
	"fmt"

	"github.com/nxfinance/loans/internal/domain"
)

// persistenceError wraps an unclassified repository error as a persistence
// failure. Errors that already carry a kind pass through untouched.
func persistenceError(op string, err error) error {
	if err == nil || domain.KindOf(err) != domain.KindUnknown {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrPersistenceFailure, err)
}

// checkAccountOwner fails with ErrForeignAccount unless accountID is held by
// customerID.
func checkAccountOwner(ctx context.Context, ledger Ledger, tx Transaction, accountID, customerID string) error {
	owner, err := ledger.AccountOwner(ctx, tx, accountID)
	if err != nil {
		return downstreamError("resolve account owner", err)
	}
	if owner != customerID {
		return fmt.Errorf("%w: account %s, customer %s", domain.ErrForeignAccount, accountID, customerID)
	}
	return nil
}

// downstreamError wraps an unclassified ledger error as a downstream failure.
func downstreamError(op string, err error) error {
	if err == nil || domain.KindOf(err) != domain.KindUnknown {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrDownstreamFailure, err)
}
