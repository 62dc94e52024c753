package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nxfinance/loans/internal/adapter/http/dto"
	"github.com/nxfinance/loans/internal/domain"
	"github.com/nxfinance/loans/internal/usecase"
)

type loanTypeServiceStub struct {
	getFn  func(ctx context.Context, id string) (*domain.LoanType, error)
	listFn func(ctx context.Context) ([]*domain.LoanType, error)
}

func (s *loanTypeServiceStub) GetLoanType(ctx context.Context, id string) (*domain.LoanType, error) {
	return s.getFn(ctx, id)
}

func (s *loanTypeServiceStub) ListLoanTypes(ctx context.Context) ([]*domain.LoanType, error) {
	return s.listFn(ctx)
}

var personal = &domain.LoanType{
	ID:                        "personal",
	Name:                      "Personal Loan",
	AnnualInterestRatePercent: decimal.RequireFromString("9.99"),
	MinAmount:                 decimal.NewFromInt(1000),
	MaxAmount:                 decimal.NewFromInt(50000),
	MinTermMonths:             6,
	MaxTermMonths:             60,
}

func TestLoanTypeHandler_Get(t *testing.T) {
	h := NewLoanTypeHandler(&loanTypeServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.LoanType, error) {
			if id != "personal" {
				return nil, domain.ErrLoanTypeNotFound
			}
			return personal, nil
		},
	})

	rec := httptest.NewRecorder()
	h.Get(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/loan-types/personal", nil), "id", "personal"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.LoanTypeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.AnnualInterestRatePercent != "9.99" || resp.MinAmount != "1000.00" || resp.MaxTermMonths != 60 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	rec = httptest.NewRecorder()
	h.Get(rec, withURLParam(httptest.NewRequest(http.MethodGet, "/loan-types/boat", nil), "id", "boat"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestLoanTypeHandler_List(t *testing.T) {
	h := NewLoanTypeHandler(usecase.NewLoanTypeUseCase(&catalogStub{types: []*domain.LoanType{personal}}))

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/loan-types", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []dto.LoanTypeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].ID != "personal" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

type catalogStub struct {
	types []*domain.LoanType
}

func (s *catalogStub) GetByID(ctx context.Context, id string) (*domain.LoanType, error) {
	for _, lt := range s.types {
		if lt.ID == id {
			return lt, nil
		}
	}
	return nil, domain.ErrLoanTypeNotFound
}

func (s *catalogStub) List(ctx context.Context) ([]*domain.LoanType, error) {
	return s.types, nil
}
