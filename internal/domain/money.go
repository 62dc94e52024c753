package domain

import (
	"github.com/shopspring/decimal"
)

const (
	// MoneyPlaces is the number of minor-unit digits for currency amounts.
	MoneyPlaces = 2

	// rateScale keeps compounding factors bounded during exponentiation.
	rateScale = 20

	// maxInstallmentSteps bounds how far InstallmentAmount raises the annuity.
	maxInstallmentSteps = 100
)

var (
	hundred      = decimal.NewFromInt(100)
	monthsInYear = decimal.NewFromInt(12)
	minorUnit    = decimal.New(1, -MoneyPlaces)
)

// RoundMoney rounds to the minor unit, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// MonthlyRate converts an annual percentage rate into a monthly fraction.
func MonthlyRate(annualRatePercent decimal.Decimal) decimal.Decimal {
	return annualRatePercent.Div(hundred).Div(monthsInYear)
}

// MonthlyPayment computes the level installment for an amortized loan:
//
//	A = P * r * (1+r)^n / ((1+r)^n - 1)
//
// with r the monthly rate and n the term in months. A zero rate splits the
// principal evenly.
func MonthlyPayment(principal, annualRatePercent decimal.Decimal, termMonths int) (decimal.Decimal, error) {
	if principal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidPrincipal
	}
	if termMonths <= 0 {
		return decimal.Zero, ErrInvalidTerm
	}
	if annualRatePercent.IsNegative() {
		return decimal.Zero, ErrNegativeRate
	}

	n := decimal.NewFromInt(int64(termMonths))
	if annualRatePercent.IsZero() {
		return RoundMoney(principal.Div(n)), nil
	}

	r := MonthlyRate(annualRatePercent)
	factor := compound(decimal.NewFromInt(1).Add(r), termMonths)

	payment := principal.Mul(r).Mul(factor).Div(factor.Sub(decimal.NewFromInt(1)))

	return RoundMoney(payment), nil
}

// InstallmentAmount is the level payment a loan is approved with. It starts
// from MonthlyPayment and rises one minor unit at a time until the final
// installment is no larger than the others, so termMonths payments of the
// returned amount settle the loan.
func InstallmentAmount(principal, annualRatePercent decimal.Decimal, termMonths int) (decimal.Decimal, error) {
	payment, err := MonthlyPayment(principal, annualRatePercent, termMonths)
	if err != nil {
		return decimal.Zero, err
	}

	rate := MonthlyRate(annualRatePercent)
	for range maxInstallmentSteps {
		if finalInstallment(principal, rate, termMonths, payment).LessThanOrEqual(payment) {
			break
		}
		payment = payment.Add(minorUnit)
	}

	return payment, nil
}

// finalInstallment is what the last entry of a schedule paying payment each
// month would be due. Zero when the balance is gone before the last month.
func finalInstallment(principal, monthlyRate decimal.Decimal, termMonths int, payment decimal.Decimal) decimal.Decimal {
	balance := principal
	for seq := 1; seq < termMonths; seq++ {
		reduction := payment.Sub(RoundMoney(balance.Mul(monthlyRate)))
		if reduction.GreaterThanOrEqual(balance) {
			return decimal.Zero
		}
		balance = balance.Sub(reduction)
	}

	return balance.Add(RoundMoney(balance.Mul(monthlyRate)))
}

// compound returns base^n, rounding each step to rateScale places.
func compound(base decimal.Decimal, n int) decimal.Decimal {
	result := decimal.NewFromInt(1)
	for range n {
		result = result.Mul(base).Round(rateScale)
	}

	return result
}

// PaymentSplit is the allocation of a payment between interest and principal.
type PaymentSplit struct {
	Interest  decimal.Decimal
	Principal decimal.Decimal
}

// Total is the part of the payment actually consumed by the split.
func (s PaymentSplit) Total() decimal.Decimal {
	return s.Interest.Add(s.Principal)
}

// SplitPayment allocates a payment against interest accrued on remainingBalance
// for one month, with the rest going to principal. The principal part is
// clamped to [0, remainingBalance] and the interest part never exceeds the
// payment, so the balance can only go down.
func SplitPayment(remainingBalance, monthlyRate, paymentAmount decimal.Decimal) PaymentSplit {
	interest := RoundMoney(remainingBalance.Mul(monthlyRate))
	if interest.GreaterThan(paymentAmount) {
		interest = paymentAmount
	}

	principal := paymentAmount.Sub(interest)
	if principal.GreaterThan(remainingBalance) {
		principal = remainingBalance
	}
	if principal.IsNegative() {
		principal = decimal.Zero
	}

	return PaymentSplit{Interest: interest, Principal: principal}
}
