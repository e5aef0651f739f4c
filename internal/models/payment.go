package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of a payment
type Status string

const (
	StatusPending    Status = "pending"
	StatusCompleted  Status = "completed"
	StatusOverdue    Status = "overdue"
	StatusCancelled  Status = "cancelled"
	StatusProcessing Status = "processing"
)

// ParseStatus converts a stored or submitted value into a Status
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusCompleted, StatusOverdue, StatusCancelled, StatusProcessing:
		return st, nil
	}
	return "", fmt.Errorf("unknown payment status %q", s)
}

// IsManual reports statuses that are only ever set by a person
func (s Status) IsManual() bool {
	return s == StatusCancelled || s == StatusProcessing
}

// UnmarshalJSON accepts a known status or "" for unset
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == "" {
		*s = ""
		return nil
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// PaymentRecord represents a planned client payment
type PaymentRecord struct {
	ID              int64           `json:"id"`
	ClientName      *string         `json:"clientName,omitempty"`
	ClientEmail     *string         `json:"clientEmail,omitempty"`
	Description     *string         `json:"description,omitempty"`
	AmountDue       decimal.Decimal `json:"amountDue"`
	PaidAmount      decimal.Decimal `json:"paidAmount"`
	DueDate         time.Time       `json:"dueDate"`
	PlannedDate     *time.Time      `json:"plannedDate,omitempty"` // due date before the first reschedule
	LastPaymentDate *time.Time      `json:"lastPaymentDate,omitempty"`
	PaidDate        *time.Time      `json:"paidDate,omitempty"`
	Status          Status          `json:"status"`
	IsPaid          bool            `json:"isPaid"`
	RescheduleCount int             `json:"rescheduleCount"`
	AuditNotes      string          `json:"auditNotes"`
	Timeline        string          `json:"-"` // serialized timeline log
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Outstanding returns the amount still to be paid
func (p PaymentRecord) Outstanding() decimal.Decimal {
	out := p.AmountDue.Sub(p.PaidAmount)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}
