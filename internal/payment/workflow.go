package payment

import (
	"fmt"
	"time"

	"github.com/Dan9191/payplanner/internal/models"
	"github.com/Dan9191/payplanner/internal/money"
	"github.com/Dan9191/payplanner/internal/timeline"
	"github.com/shopspring/decimal"
)

const autoCorrected = "auto-corrected"

// Edit carries the user editable fields of an update. Nil fields are left as is.
type Edit struct {
	ClientName      *string          `json:"clientName,omitempty"`
	ClientEmail     *string          `json:"clientEmail,omitempty"`
	Description     *string          `json:"description,omitempty"`
	AmountDue       *decimal.Decimal `json:"amountDue,omitempty"`
	PaidAmount      *decimal.Decimal `json:"paidAmount,omitempty"`
	DueDate         *time.Time       `json:"dueDate,omitempty"`
	LastPaymentDate *time.Time       `json:"lastPaymentDate,omitempty"`
	Status          *models.Status   `json:"status,omitempty"`
}

// Create prepares a new record for storage and returns the events it produced.
func Create(p models.PaymentRecord, now time.Time, actor string) (models.PaymentRecord, []timeline.Entry, error) {
	p = Normalize(p)
	if p.Status == "" {
		p.Status = models.StatusPending
	}
	p.RescheduleCount = 0
	p.AuditNotes, p.Timeline = "", ""
	p.IsPaid, p.PaidDate = false, nil
	if p.PlannedDate == nil && !p.DueDate.IsZero() {
		d := p.DueDate
		p.PlannedDate = &d
	}
	before := p.Status
	p = ApplyStatusRules(p, now)

	events := []timeline.Entry{timeline.NewCreated(p.AmountDue, p.DueDate, now, actor)}
	if p.Status == models.StatusCompleted {
		events = append(events, timeline.NewFinalized(p.AmountDue, paidDay(p, now), before, now, actor))
	}
	return record(p, events, now)
}

// Update applies a caller edit to the current record, re-derives its status
// and records every controlling field that changed.
func Update(current models.PaymentRecord, edit Edit, now time.Time, actor string) (models.PaymentRecord, []timeline.Entry, error) {
	prev := Normalize(current)
	next := prev

	if edit.ClientName != nil {
		next.ClientName = edit.ClientName
	}
	if edit.ClientEmail != nil {
		next.ClientEmail = edit.ClientEmail
	}
	if edit.Description != nil {
		next.Description = edit.Description
	}
	if edit.AmountDue != nil {
		next.AmountDue = *edit.AmountDue
	}
	if edit.PaidAmount != nil {
		next.PaidAmount = *edit.PaidAmount
	}
	if edit.LastPaymentDate != nil {
		next.LastPaymentDate = edit.LastPaymentDate
	}
	if edit.Status != nil && *edit.Status != "" {
		next.Status = *edit.Status
	}

	rescheduled := false
	if edit.DueDate != nil && !money.Date(*edit.DueDate).Equal(prev.DueDate) {
		next.DueDate = *edit.DueDate
		next.RescheduleCount++
		if next.PlannedDate == nil && !prev.DueDate.IsZero() {
			d := prev.DueDate
			next.PlannedDate = &d
		}
		rescheduled = true
	}

	next = Normalize(next)
	edited := next.DueDate
	next = ApplyStatusRules(next, now)

	var events []timeline.Entry
	if rescheduled {
		events = append(events, timeline.NewRescheduled(prev.DueDate, edited, now, actor, ""))
	}
	if !next.DueDate.Equal(edited) {
		events = append(events, timeline.NewRescheduled(edited, next.DueDate, now, SystemActor, autoCorrected))
	}
	if money.Differs(prev.AmountDue, next.AmountDue) {
		events = append(events, timeline.NewAmountAdjusted(prev.AmountDue, next.AmountDue, now, actor))
	}

	finalized := next.Status == models.StatusCompleted && prev.Status != models.StatusCompleted
	if !finalized && money.Differs(prev.PaidAmount, next.PaidAmount) {
		events = append(events, timeline.NewPartialPayment(next.PaidAmount.Sub(prev.PaidAmount), next.PaidAmount, now, actor))
	}
	switch {
	case finalized:
		events = append(events, timeline.NewFinalized(next.AmountDue, paidDay(next, now), prev.Status, now, actor))
	case next.Status != prev.Status:
		events = append(events, timeline.NewStatusChanged(prev.Status, next.Status, now, actor))
	}

	return record(next, events, now)
}

// record appends events to the timeline log and renders each as an audit note
func record(p models.PaymentRecord, events []timeline.Entry, now time.Time) (models.PaymentRecord, []timeline.Entry, error) {
	if len(events) == 0 {
		return p, nil, nil
	}
	log := timeline.Load(p.Timeline)
	log.Append(events...)
	encoded, err := log.Encode()
	if err != nil {
		return p, nil, fmt.Errorf("failed to record payment history: %w", err)
	}
	p.Timeline = encoded
	for _, e := range events {
		p = AppendNote(p, timeline.Describe(e), now, e.Actor)
	}
	return p, events, nil
}

func paidDay(p models.PaymentRecord, now time.Time) time.Time {
	if p.PaidDate != nil {
		return *p.PaidDate
	}
	return money.Date(now)
}
