package payment

import (
	"time"

	"github.com/Dan9191/payplanner/internal/models"
	"github.com/Dan9191/payplanner/internal/money"
)

// ApplyStatusRules derives IsPaid, Status and PaidDate from the amounts and
// the due date. The record is expected to be normalized.
func ApplyStatusRules(p models.PaymentRecord, now time.Time) models.PaymentRecord {
	if money.Covers(p.PaidAmount, p.AmountDue) {
		return settle(p)
	}

	p.IsPaid = false
	p.PaidDate = nil

	switch p.Status {
	case models.StatusCancelled, models.StatusProcessing:
		// set by hand, kept until the payment is settled
		return p
	default:
		p.Status = dueStatus(p.DueDate, now)
	}
	return p
}

func settle(p models.PaymentRecord) models.PaymentRecord {
	p.PaidAmount = p.AmountDue
	p.IsPaid = true
	p.Status = models.StatusCompleted

	if p.PaidDate == nil {
		switch {
		case p.LastPaymentDate != nil:
			d := *p.LastPaymentDate
			p.PaidDate = &d
		case !p.DueDate.IsZero():
			d := p.DueDate
			p.PaidDate = &d
		}
	}
	// once settled the payment date follows the actual payment
	if p.LastPaymentDate != nil {
		p.DueDate = *p.LastPaymentDate
	}
	return p
}

// dueStatus is Overdue when the due calendar day is before today. A record
// without a due date is never overdue.
func dueStatus(due, now time.Time) models.Status {
	if !due.IsZero() && money.Date(due).Before(money.Date(now)) {
		return models.StatusOverdue
	}
	return models.StatusPending
}
