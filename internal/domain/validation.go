package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrPurposeTooLong        = fmt.Errorf("%w: purpose too long", ErrInvalidInput)
	ErrInvalidIdempotencyKey = fmt.Errorf("%w: invalid idempotency key", ErrInvalidInput)
	ErrAmountTooPrecise      = fmt.Errorf("%w: amount has more than 2 decimal places", ErrInvalidInput)
	ErrInvalidIDFormat       = fmt.Errorf("%w: invalid ID format", ErrInvalidInput)
	ErrInvalidStatus         = fmt.Errorf("%w: unknown loan status", ErrInvalidInput)
)

// Validation constants
const (
	MaxPurposeLength        = 500
	MaxReasonLength         = 500
	MaxIdempotencyKeyLength = 255
	MaxIDLength             = 64
)

// ValidateMoneyAmount checks a positive amount expressed in whole minor units.
func ValidateMoneyAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if !amount.Equal(RoundMoney(amount)) {
		return ErrAmountTooPrecise
	}

	return nil
}

// ValidatePurpose validates the free-text purpose of an application
func ValidatePurpose(purpose string) error {
	if len(purpose) > MaxPurposeLength {
		return fmt.Errorf("%w: must not exceed %d characters", ErrPurposeTooLong, MaxPurposeLength)
	}
	return nil
}

// ValidateIdempotencyKey validates a client-supplied payment token
func ValidateIdempotencyKey(key string) error {
	key = strings.TrimSpace(key)

	if key == "" {
		return ErrMissingIdempotencyKey
	}

	if len(key) > MaxIdempotencyKeyLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidIdempotencyKey, MaxIdempotencyKeyLength)
	}

	return nil
}

// ValidateID validates an identifier
func ValidateID(id string) error {
	id = strings.TrimSpace(id)

	if id == "" || len(id) > MaxIDLength {
		return ErrInvalidIDFormat
	}

	for _, r := range id {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return fmt.Errorf("%w: unexpected character %q", ErrInvalidIDFormat, r)
		}
	}

	return nil
}

// ParseLoanStatus parses a status filter
func ParseLoanStatus(s string) (LoanStatus, error) {
	status := LoanStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
