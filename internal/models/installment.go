package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RoundingMode selects how the level payment is rounded to a step
type RoundingMode string

const (
	RoundingNone    RoundingMode = "none"
	RoundingDown    RoundingMode = "roundDown"
	RoundingUp      RoundingMode = "roundUp"
	RoundingNearest RoundingMode = "roundNearest"
)

func (m *RoundingMode) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch mode := RoundingMode(raw); mode {
	case "", RoundingNone:
		*m = RoundingNone
	case RoundingDown, RoundingUp, RoundingNearest:
		*m = mode
	default:
		return fmt.Errorf("unknown rounding mode %q", raw)
	}
	return nil
}

// InstallmentRequest is the input of the installment calculator
type InstallmentRequest struct {
	Total        decimal.Decimal `json:"total"`
	DownPayment  decimal.Decimal `json:"downPayment"`
	AnnualRate   decimal.Decimal `json:"annualRate"` // percent
	Months       int             `json:"months"`
	StartDate    time.Time       `json:"startDate"`
	RoundingMode RoundingMode    `json:"roundingMode,omitempty"`
	RoundingStep decimal.Decimal `json:"roundingStep"`
	UseKeyRate   bool            `json:"useKeyRate,omitempty"` // take AnnualRate from the central bank
}

// InstallmentItem is one row of a repayment schedule
type InstallmentItem struct {
	Date      time.Time       `json:"date"`
	Principal decimal.Decimal `json:"principal"`
	Interest  decimal.Decimal `json:"interest"`
	Payment   decimal.Decimal `json:"payment"`
	Balance   decimal.Decimal `json:"balance"`
}

// InstallmentResult is a computed repayment schedule with totals
type InstallmentResult struct {
	LoanAmount     decimal.Decimal   `json:"loanAmount"`
	BasePayment    decimal.Decimal   `json:"basePayment"`
	RoundedPayment *decimal.Decimal  `json:"roundedPayment,omitempty"`
	TotalInterest  decimal.Decimal   `json:"totalInterest"`
	TotalPayments  decimal.Decimal   `json:"totalPayments"`
	Overpay        decimal.Decimal   `json:"overpay"`
	AmountToPay    decimal.Decimal   `json:"amountToPay"`
	Items          []InstallmentItem `json:"items"`
}
