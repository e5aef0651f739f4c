// Package installment computes monthly repayment schedules.
package installment

import (
	"errors"
	"fmt"

	"github.com/Dan9191/payplanner/internal/models"
	"github.com/Dan9191/payplanner/internal/money"
	"github.com/shopspring/decimal"
)

// MaxMonths is the longest supported term
const MaxMonths = 600

var (
	ErrInvalidRequest = errors.New("invalid installment request")
	ErrInvalidTerm    = fmt.Errorf("%w: months must be between 1 and %d", ErrInvalidRequest, MaxMonths)
	ErrInvalidRate    = fmt.Errorf("%w: annual rate must not be negative", ErrInvalidRequest)
)

var twelveHundred = decimal.NewFromInt(1200)

// Calculate builds a level payment schedule for the request. The last period
// always repays the remaining balance so the schedule ends at exactly zero.
func Calculate(req models.InstallmentRequest) (models.InstallmentResult, error) {
	if req.Months < 1 || req.Months > MaxMonths {
		return models.InstallmentResult{}, ErrInvalidTerm
	}
	if req.AnnualRate.IsNegative() {
		return models.InstallmentResult{}, ErrInvalidRate
	}

	downPayment := money.Round2(money.NonNegative(req.DownPayment))
	loan := money.Round2(money.NonNegative(req.Total.Sub(downPayment)))
	monthlyRate := req.AnnualRate.Div(twelveHundred)

	raw := levelPayment(loan, monthlyRate.InexactFloat64(), req.Months)
	result := models.InstallmentResult{
		LoanAmount:  loan,
		BasePayment: money.Round2(raw),
	}

	payment := result.BasePayment
	if mode := req.RoundingMode; mode != "" && mode != models.RoundingNone {
		rounded := roundToStep(raw, mode, req.RoundingStep)
		// never below the interest of the first month
		if firstInterest := money.Round2(loan.Mul(monthlyRate)); rounded.LessThan(firstInterest) {
			rounded = firstInterest
		}
		if !rounded.IsPositive() {
			rounded = result.BasePayment
		}
		result.RoundedPayment = &rounded
		payment = rounded
	}

	start := money.Date(req.StartDate)
	balance := loan
	totalInterest := decimal.Zero
	totalPayments := decimal.Zero
	items := make([]models.InstallmentItem, 0, req.Months)

	for i := 1; i <= req.Months; i++ {
		interest := money.Round2(balance.Mul(monthlyRate))

		var principal, pay decimal.Decimal
		if i == req.Months {
			principal = balance
			pay = principal.Add(interest)
		} else {
			pay = payment
			if pay.LessThan(interest) {
				pay = interest
			}
			principal = pay.Sub(interest)
			if principal.GreaterThan(balance) {
				principal = balance
				pay = principal.Add(interest)
			}
		}

		balance = balance.Sub(principal)
		totalInterest = totalInterest.Add(interest)
		totalPayments = totalPayments.Add(pay)

		items = append(items, models.InstallmentItem{
			Date:      money.AddMonths(start, i),
			Principal: principal,
			Interest:  interest,
			Payment:   pay,
			Balance:   balance,
		})
	}

	result.Items = items
	result.TotalInterest = totalInterest
	result.TotalPayments = totalPayments
	result.Overpay = totalPayments.Sub(loan)
	result.AmountToPay = totalPayments.Add(downPayment)
	return result, nil
}

// levelPayment returns the unrounded annuity payment:
//
//	payment = P * r * (1+r)^n / ((1+r)^n - 1)
//
// or P / n when the rate is zero.
func levelPayment(loan decimal.Decimal, rate float64, months int) decimal.Decimal {
	if rate == 0 {
		return loan.Div(decimal.NewFromInt(int64(months)))
	}
	factor := powInt(1+rate, months)
	p := loan.InexactFloat64() * rate * factor / (factor - 1)
	return decimal.NewFromFloat(p)
}

// powInt raises base to a non-negative integer power by squaring
func powInt(base float64, exp int) float64 {
	result := 1.0
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

func roundToStep(v decimal.Decimal, mode models.RoundingMode, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		step = decimal.NewFromInt(1)
	}
	units := v.Div(step)
	switch mode {
	case models.RoundingDown:
		units = units.Floor()
	case models.RoundingUp:
		units = units.Ceil()
	case models.RoundingNearest:
		units = units.Round(0)
	default:
		return v
	}
	return money.Round2(units.Mul(step))
}
