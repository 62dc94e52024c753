package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the loan engine wraps exactly one of
// these, so callers can branch with errors.Is without knowing the concrete error.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidState       = errors.New("invalid state")
	ErrNotFound           = errors.New("not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrDuplicatePayment   = errors.New("duplicate payment")
	ErrPersistenceFailure = errors.New("persistence failure")
	ErrDownstreamFailure  = errors.New("downstream failure")

	// ErrOutOfRange is an InvalidInput for values outside a loan product's bounds.
	ErrOutOfRange = fmt.Errorf("%w: out of range", ErrInvalidInput)
)

var (
	// Money errors
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	ErrInvalidPrincipal = fmt.Errorf("%w: principal must be positive", ErrInvalidInput)
	ErrInvalidTerm      = fmt.Errorf("%w: term must be positive", ErrInvalidInput)
	ErrNegativeRate     = fmt.Errorf("%w: interest rate cannot be negative", ErrInvalidInput)

	// Loan errors
	ErrLoanNotFound           = fmt.Errorf("loan %w", ErrNotFound)
	ErrLoanTypeNotFound       = fmt.Errorf("loan type %w", ErrNotFound)
	ErrLoanNotPending         = fmt.Errorf("%w: loan is not pending", ErrInvalidState)
	ErrLoanNotActive          = fmt.Errorf("%w: loan is not active", ErrInvalidState)
	ErrConcurrentModification = fmt.Errorf("%w: loan was modified concurrently", ErrPersistenceFailure)

	// Payment errors
	ErrMissingIdempotencyKey = fmt.Errorf("%w: idempotency key is required", ErrInvalidInput)

	// Ledger errors
	ErrAccountNotFound  = fmt.Errorf("account %w", ErrNotFound)
	ErrNoDefaultAccount = fmt.Errorf("default account %w", ErrNotFound)
	ErrForeignAccount   = fmt.Errorf("%w for customer", ErrAccountNotFound)
)

// Kind classifies an error by the kind sentinel it wraps.
type Kind string

const (
	KindNone              Kind = ""
	KindInvalidInput      Kind = "invalid_input"
	KindInvalidState      Kind = "invalid_state"
	KindNotFound          Kind = "not_found"
	KindInsufficientFunds Kind = "insufficient_funds"
	KindDuplicatePayment  Kind = "duplicate_payment"
	KindPersistence       Kind = "persistence_failure"
	KindDownstream        Kind = "downstream_failure"
	KindUnknown           Kind = "unknown"
)

var kinds = []struct {
	sentinel error
	kind     Kind
}{
	{ErrInvalidInput, KindInvalidInput},
	{ErrInvalidState, KindInvalidState},
	{ErrNotFound, KindNotFound},
	{ErrInsufficientFunds, KindInsufficientFunds},
	{ErrDuplicatePayment, KindDuplicatePayment},
	{ErrPersistenceFailure, KindPersistence},
	{ErrDownstreamFailure, KindDownstream},
}

// KindOf returns the kind of err, KindNone for nil and KindUnknown when
// err wraps no kind sentinel.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}

	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			return k.kind
		}
	}

	return KindUnknown
}

// IsRetryable reports whether the caller may retry the whole operation.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindPersistence, KindDownstream:
		return true
	default:
		return false
	}
}
