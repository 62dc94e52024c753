package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nxfinance/loans/internal/domain"
	"github.com/nxfinance/loans/internal/usecase"
)

// money renders an amount with exactly two decimal places.
func money(d decimal.Decimal) string {
	return d.StringFixed(domain.MoneyPlaces)
}

func nullMoney(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := money(d.Decimal)
	return &s
}

// LoanTypeResponse represents a loan product in API responses.
type LoanTypeResponse struct {
	ID                        string `json:"id"`
	Name                      string `json:"name"`
	Description               string `json:"description,omitempty"`
	AnnualInterestRatePercent string `json:"annual_interest_rate_percent"`
	MinAmount                 string `json:"min_amount"`
	MaxAmount                 string `json:"max_amount"`
	MinTermMonths             int    `json:"min_term_months"`
	MaxTermMonths             int    `json:"max_term_months"`
}

// LoanTypeFromDomain converts domain loan type to response.
func LoanTypeFromDomain(lt *domain.LoanType) *LoanTypeResponse {
	return &LoanTypeResponse{
		ID:                        lt.ID,
		Name:                      lt.Name,
		Description:               lt.Description,
		AnnualInterestRatePercent: lt.AnnualInterestRatePercent.String(),
		MinAmount:                 money(lt.MinAmount),
		MaxAmount:                 money(lt.MaxAmount),
		MinTermMonths:             lt.MinTermMonths,
		MaxTermMonths:             lt.MaxTermMonths,
	}
}

// LoanTypesFromDomain converts domain loan types to responses.
func LoanTypesFromDomain(types []*domain.LoanType) []*LoanTypeResponse {
	result := make([]*LoanTypeResponse, len(types))
	for i, lt := range types {
		result[i] = LoanTypeFromDomain(lt)
	}
	return result
}

// LoanResponse represents a loan in API responses.
type LoanResponse struct {
	ID                        string     `json:"id"`
	CustomerID                string     `json:"customer_id"`
	LoanTypeID                string     `json:"loan_type_id"`
	PrincipalAmount           string     `json:"principal_amount"`
	AnnualInterestRatePercent string     `json:"annual_interest_rate_percent"`
	TermMonths                int        `json:"term_months"`
	Status                    string     `json:"status"`
	StartDate                 *time.Time `json:"start_date,omitempty"`
	EndDate                   *time.Time `json:"end_date,omitempty"`
	RemainingBalance          *string    `json:"remaining_balance"`
	MonthlyPaymentAmount      *string    `json:"monthly_payment_amount"`
	Purpose                   string     `json:"purpose,omitempty"`
	DisbursementAccountID     string     `json:"disbursement_account_id,omitempty"`
	RejectionReason           string     `json:"rejection_reason,omitempty"`
	Version                   int64      `json:"version"`
	CreatedAt                 time.Time  `json:"created_at"`
	UpdatedAt                 time.Time  `json:"updated_at"`
}

// LoanFromDomain converts domain loan to response.
func LoanFromDomain(l *domain.Loan) *LoanResponse {
	return &LoanResponse{
		ID:                        l.ID,
		CustomerID:                l.CustomerID,
		LoanTypeID:                l.LoanTypeID,
		PrincipalAmount:           money(l.PrincipalAmount),
		AnnualInterestRatePercent: l.AnnualInterestRatePercent.String(),
		TermMonths:                l.TermMonths,
		Status:                    string(l.Status),
		StartDate:                 l.StartDate,
		EndDate:                   l.EndDate,
		RemainingBalance:          nullMoney(l.RemainingBalance),
		MonthlyPaymentAmount:      nullMoney(l.MonthlyPaymentAmount),
		Purpose:                   l.Purpose,
		DisbursementAccountID:     l.DisbursementAccountID,
		RejectionReason:           l.RejectionReason,
		Version:                   l.Version,
		CreatedAt:                 l.CreatedAt,
		UpdatedAt:                 l.UpdatedAt,
	}
}

// LoansFromDomain converts domain loans to responses.
func LoansFromDomain(loans []*domain.Loan) []*LoanResponse {
	result := make([]*LoanResponse, len(loans))
	for i, l := range loans {
		result[i] = LoanFromDomain(l)
	}
	return result
}

// ScheduleEntryResponse represents one installment in API responses.
type ScheduleEntryResponse struct {
	ID                 string     `json:"id"`
	SequenceNumber     int        `json:"sequence_number"`
	DueDate            time.Time  `json:"due_date"`
	ScheduledAmount    string     `json:"scheduled_amount"`
	PrincipalComponent string     `json:"principal_component"`
	InterestComponent  string     `json:"interest_component"`
	Status             string     `json:"status"`
	PaidAt             *time.Time `json:"paid_at,omitempty"`
}

// ScheduleFromDomain converts a schedule to responses.
func ScheduleFromDomain(entries []domain.ScheduleEntry) []*ScheduleEntryResponse {
	result := make([]*ScheduleEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = &ScheduleEntryResponse{
			ID:                 e.ID,
			SequenceNumber:     e.SequenceNumber,
			DueDate:            e.DueDate,
			ScheduledAmount:    money(e.ScheduledAmount),
			PrincipalComponent: money(e.PrincipalComponent),
			InterestComponent:  money(e.InterestComponent),
			Status:             string(e.Status),
			PaidAt:             e.PaidAt,
		}
	}
	return result
}

// PaymentResponse represents a recorded payment in API responses.
type PaymentResponse struct {
	ID                        string    `json:"id"`
	LoanID                    string    `json:"loan_id"`
	SourceAccountID           string    `json:"source_account_id"`
	Amount                    string    `json:"amount"`
	RequestedAmount           string    `json:"requested_amount"`
	InterestPortion           string    `json:"interest_portion"`
	PrincipalPortion          string    `json:"principal_portion"`
	ResultingRemainingBalance string    `json:"resulting_remaining_balance"`
	LedgerReference           string    `json:"ledger_reference"`
	AppliedAt                 time.Time `json:"applied_at"`
}

// PaymentFromDomain converts domain payment to response.
func PaymentFromDomain(p *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:                        p.ID,
		LoanID:                    p.LoanID,
		SourceAccountID:           p.SourceAccountID,
		Amount:                    money(p.Amount),
		RequestedAmount:           money(p.RequestedAmount),
		InterestPortion:           money(p.InterestPortion),
		PrincipalPortion:          money(p.PrincipalPortion),
		ResultingRemainingBalance: money(p.ResultingRemainingBalance),
		LedgerReference:           p.LedgerReference,
		AppliedAt:                 p.AppliedAt,
	}
}

// PaymentsFromDomain converts domain payments to responses.
func PaymentsFromDomain(payments []*domain.Payment) []*PaymentResponse {
	result := make([]*PaymentResponse, len(payments))
	for i, p := range payments {
		result[i] = PaymentFromDomain(p)
	}
	return result
}

// PaymentResultResponse is returned after a payment is applied.
type PaymentResultResponse struct {
	Payment *PaymentResponse `json:"payment"`
	Loan    *LoanResponse    `json:"loan"`
}

// PaymentResultFromUseCase converts a payment result to response.
func PaymentResultFromUseCase(r *usecase.PaymentResult) *PaymentResultResponse {
	return &PaymentResultResponse{
		Payment: PaymentFromDomain(r.Payment),
		Loan:    LoanFromDomain(r.Loan),
	}
}

// ReconciliationResponse represents a loan consistency check.
type ReconciliationResponse struct {
	LoanID            string    `json:"loan_id"`
	Status            string    `json:"status"`
	PrincipalAmount   string    `json:"principal_amount"`
	RecordedBalance   string    `json:"recorded_balance"`
	CalculatedBalance string    `json:"calculated_balance"`
	Difference        string    `json:"difference"`
	SchedulePrincipal string    `json:"schedule_principal"`
	ScheduleEntries   int       `json:"schedule_entries"`
	PaymentCount      int       `json:"payment_count"`
	Issues            []string  `json:"issues"`
	IsReconciled      bool      `json:"is_reconciled"`
	LastChecked       time.Time `json:"last_checked"`
}

// ReconciliationFromUseCase converts a reconciliation result to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	issues := r.Issues
	if issues == nil {
		issues = []string{}
	}

	return &ReconciliationResponse{
		LoanID:            r.LoanID,
		Status:            string(r.Status),
		PrincipalAmount:   money(r.PrincipalAmount),
		RecordedBalance:   money(r.RecordedBalance),
		CalculatedBalance: money(r.CalculatedBalance),
		Difference:        money(r.Difference),
		SchedulePrincipal: money(r.SchedulePrincipal),
		ScheduleEntries:   r.ScheduleEntries,
		PaymentCount:      r.PaymentCount,
		Issues:            issues,
		IsReconciled:      r.IsReconciled,
		LastChecked:       r.LastChecked,
	}
}

// ReconciliationReportResponse summarizes a reconciliation pass.
type ReconciliationReportResponse struct {
	TotalLoans      int                       `json:"total_loans"`
	ReconciledLoans int                       `json:"reconciled_loans"`
	Discrepancies   []*ReconciliationResponse `json:"discrepancies"`
	CheckedAt       time.Time                 `json:"checked_at"`
}

// ReconciliationReportFromUseCase converts a reconciliation report to response.
func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	discrepancies := make([]*ReconciliationResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationFromUseCase(d)
	}

	return &ReconciliationReportResponse{
		TotalLoans:      r.TotalLoans,
		ReconciledLoans: r.ReconciledLoans,
		Discrepancies:   discrepancies,
		CheckedAt:       r.CheckedAt,
	}
}

// ListResponse wraps a page of results.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
