package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nxfinance/loans/internal/adapter/http/dto"
	"github.com/nxfinance/loans/internal/domain"
)

// Retrier re-runs an operation aborted by a transient database conflict.
type Retrier interface {
	Retry(ctx context.Context, name string, operation func() error) error
}

// directRetrier runs the operation once.
type directRetrier struct{}

func (directRetrier) Retry(_ context.Context, _ string, operation func() error) error {
	return operation()
}

func retrierOrDirect(r Retrier) Retrier {
	if r == nil {
		return directRetrier{}
	}
	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError writes err with the status its kind maps to. Details of
// unclassified errors are not exposed.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := mapDomainError(err)
	details := err.Error()
	if status == http.StatusInternalServerError {
		details = ""
	}
	writeError(w, status, message, details)
}

// mapDomainError maps error kinds to HTTP status codes.
func mapDomainError(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindInvalidState:
		return http.StatusConflict
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInsufficientFunds:
		return http.StatusUnprocessableEntity
	case domain.KindDuplicatePayment:
		return http.StatusConflict
	case domain.KindPersistence:
		return http.StatusServiceUnavailable
	case domain.KindDownstream:
		return http.StatusBadGateway
	}

	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// pagination reads limit and offset, normalized to the page actually served.
func pagination(r *http.Request) (int, int) {
	limit, offset, _ := domain.ValidatePagination(parseIntQuery(r, "limit", 20), parseIntQuery(r, "offset", 0))
	return limit, offset
}

// pathID reads and validates an identifier path parameter.
func pathID(r *http.Request, key string) (string, error) {
	id := chi.URLParam(r, key)
	if err := domain.ValidateID(id); err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return id, nil
}

// decodeJSON decodes an optional request body into v.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// authorizeCustomer checks that the caller may act for customerID. Requests
// without an authenticated user are let through; authentication is enforced
// by middleware when enabled.
func authorizeCustomer(ctx context.Context, customerID string) error {
	user, ok := domain.UserFromContext(ctx)
	if !ok {
		return nil
	}
	if !user.CanAccessCustomer(customerID) {
		return domain.ErrInsufficientRole
	}
	return nil
}
