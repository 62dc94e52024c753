package domain

import "time"

// Event types
const (
	EventTypeLoanApplied        = "loan.applied"
	EventTypeLoanApproved       = "loan.approved"
	EventTypeLoanRejected       = "loan.rejected"
	EventTypeLoanDefaulted      = "loan.defaulted"
	EventTypeLoanPaymentApplied = "loan.payment_applied"
	EventTypeLoanCompleted      = "loan.completed"
)

// Aggregate types
const (
	AggregateTypeLoan = "loan"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewLoanEvent builds an unpublished outbox event for a loan.
func NewLoanEvent(id, eventType string, loan *Loan, payload map[string]any, now time.Time) *OutboxEvent {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["loan_id"] = loan.ID
	payload["customer_id"] = loan.CustomerID
	payload["status"] = string(loan.Status)

	return &OutboxEvent{
		ID:            id,
		AggregateID:   loan.ID,
		AggregateType: AggregateTypeLoan,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
	}
}
