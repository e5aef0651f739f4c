// Package payment holds the rules applied to a payment record before it is
// stored: field normalization, status derivation and the audit trail.
//
// A create or update pass always runs Normalize, then ApplyStatusRules, then
// records what changed. None of the functions here keep state; each works on
// its own copy of the record.
package payment

import (
	"strings"

	"github.com/Dan9191/payplanner/internal/models"
	"github.com/Dan9191/payplanner/internal/money"
	"github.com/shopspring/decimal"
)

func trimText(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// Normalize canonicalizes text, money and date fields. It never changes the status.
func Normalize(p models.PaymentRecord) models.PaymentRecord {
	p.ClientName = trimText(p.ClientName)
	p.ClientEmail = trimText(p.ClientEmail)
	p.Description = trimText(p.Description)

	p.AmountDue = money.Round2(money.NonNegative(p.AmountDue))
	p.PaidAmount = money.Round2(money.Clamp(money.Round2(p.PaidAmount), decimal.Zero, p.AmountDue))

	p.DueDate = money.Date(p.DueDate)
	p.PlannedDate = money.DatePtr(p.PlannedDate)
	p.LastPaymentDate = money.DatePtr(p.LastPaymentDate)
	p.PaidDate = money.DatePtr(p.PaidDate)
	return p
}
