package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleEntryStatus is the state of one installment.
type ScheduleEntryStatus string

const (
	ScheduleEntryScheduled ScheduleEntryStatus = "scheduled"
	ScheduleEntryPaid      ScheduleEntryStatus = "paid"
	ScheduleEntrySkipped   ScheduleEntryStatus = "skipped"
)

// ScheduleEntry is one installment of a loan's amortization table.
type ScheduleEntry struct {
	ID                 string
	LoanID             string
	SequenceNumber     int
	DueDate            time.Time
	ScheduledAmount    decimal.Decimal
	PrincipalComponent decimal.Decimal
	InterestComponent  decimal.Decimal
	Status             ScheduleEntryStatus
	PaidAt             *time.Time
}

// ScheduleTerms are the inputs that fully determine a schedule.
type ScheduleTerms struct {
	Principal         decimal.Decimal
	AnnualRatePercent decimal.Decimal
	TermMonths        int
	StartDate         time.Time
	MonthlyPayment    decimal.Decimal
}

// TermsOf extracts schedule terms from an activated loan.
func TermsOf(l *Loan) ScheduleTerms {
	terms := ScheduleTerms{
		Principal:         l.PrincipalAmount,
		AnnualRatePercent: l.AnnualInterestRatePercent,
		TermMonths:        l.TermMonths,
		MonthlyPayment:    l.MonthlyPaymentAmount.Decimal,
	}
	if l.StartDate != nil {
		terms.StartDate = *l.StartDate
	}
	return terms
}

// GenerateSchedule builds the declining-balance amortization table. It is a
// pure function of terms. Entries carry no ID or loan ID; the caller assigns
// them. The last entry takes whatever balance is left so the table closes at
// exactly zero.
func GenerateSchedule(terms ScheduleTerms) ([]ScheduleEntry, error) {
	if terms.Principal.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidPrincipal
	}
	if terms.TermMonths <= 0 {
		return nil, ErrInvalidTerm
	}
	if terms.AnnualRatePercent.IsNegative() {
		return nil, ErrNegativeRate
	}
	if terms.MonthlyPayment.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	rate := MonthlyRate(terms.AnnualRatePercent)
	balance := terms.Principal
	entries := make([]ScheduleEntry, 0, terms.TermMonths)

	for seq := 1; seq <= terms.TermMonths; seq++ {
		interest := RoundMoney(balance.Mul(rate))
		principal := terms.MonthlyPayment.Sub(interest)
		scheduled := terms.MonthlyPayment

		if seq == terms.TermMonths || principal.GreaterThan(balance) {
			principal = balance
			scheduled = principal.Add(interest)
		}

		balance = balance.Sub(principal)

		entries = append(entries, ScheduleEntry{
			SequenceNumber:     seq,
			DueDate:            AddMonths(terms.StartDate, seq),
			ScheduledAmount:    scheduled,
			PrincipalComponent: principal,
			InterestComponent:  interest,
			Status:             ScheduleEntryScheduled,
		})
	}

	return entries, nil
}

// AllocatePayment marks installments covered by funds, oldest first. Each
// Scheduled entry whose ScheduledAmount fits in the remaining funds becomes
// Paid. When the payment pays the loan off, the first uncovered entry is also
// Paid and any after it are Skipped. Returns the entries that changed.
func AllocatePayment(entries []ScheduleEntry, funds decimal.Decimal, payoff bool, paidAt time.Time) []ScheduleEntry {
	var changed []ScheduleEntry
	payoffApplied := false

	for i := range entries {
		entry := &entries[i]
		if entry.Status != ScheduleEntryScheduled {
			continue
		}

		switch {
		case funds.GreaterThanOrEqual(entry.ScheduledAmount):
			funds = funds.Sub(entry.ScheduledAmount)
			entry.Status = ScheduleEntryPaid
		case payoff && !payoffApplied:
			payoffApplied = true
			entry.Status = ScheduleEntryPaid
		case payoff:
			entry.Status = ScheduleEntrySkipped
		default:
			return changed
		}

		if entry.Status == ScheduleEntryPaid {
			at := paidAt
			entry.PaidAt = &at
		}
		changed = append(changed, *entry)
	}

	return changed
}
