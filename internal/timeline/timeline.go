// Package timeline keeps the append-only event log of a payment.
//
// Entries are produced by the New* factories and are never edited once
// created. A log is stored as a JSON array sorted by timestamp.
package timeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/Dan9191/payplanner/internal/models"
	"github.com/Dan9191/payplanner/internal/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind tags the event carried by an Entry
type Kind string

const (
	KindCreated        Kind = "created"
	KindPartialPayment Kind = "partialPayment"
	KindAmountAdjusted Kind = "amountAdjusted"
	KindRescheduled    Kind = "rescheduled"
	KindStatusChanged  Kind = "statusChanged"
	KindFinalized      Kind = "finalized"
)

func (k *Kind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch kind := Kind(raw); kind {
	case KindCreated, KindPartialPayment, KindAmountAdjusted, KindRescheduled, KindStatusChanged, KindFinalized:
		*k = kind
		return nil
	}
	return fmt.Errorf("unknown timeline entry kind %q", raw)
}

// Entry is a single event. Only the fields relevant to Kind are set.
type Entry struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor,omitempty"`

	Amount         *decimal.Decimal `json:"amount,omitempty"`
	AmountDelta    *decimal.Decimal `json:"amountDelta,omitempty"`
	PaidTotal      *decimal.Decimal `json:"paidTotal,omitempty"`
	PreviousAmount *decimal.Decimal `json:"previousAmount,omitempty"`
	NewAmount      *decimal.Decimal `json:"newAmount,omitempty"`
	PreviousDate   *time.Time       `json:"previousDate,omitempty"`
	NewDate        *time.Time       `json:"newDate,omitempty"`
	PaidDate       *time.Time       `json:"paidDate,omitempty"`
	PreviousStatus *models.Status   `json:"previousStatus,omitempty"`
	NewStatus      *models.Status   `json:"newStatus,omitempty"`
	Comment        string           `json:"comment,omitempty"`
}

func newEntry(kind Kind, at time.Time, actor string) Entry {
	return Entry{
		ID:        uuid.NewString(),
		Kind:      kind,
		Timestamp: at.UTC(),
		Actor:     actor,
	}
}

func amountPtr(d decimal.Decimal) *decimal.Decimal {
	r := money.Round2(d)
	return &r
}

func datePtr(t time.Time) *time.Time {
	d := money.Date(t)
	return &d
}

func statusPtr(s models.Status) *models.Status {
	return &s
}

// NewCreated records a new payment
func NewCreated(amountDue decimal.Decimal, dueDate time.Time, at time.Time, actor string) Entry {
	e := newEntry(KindCreated, at, actor)
	e.Amount = amountPtr(amountDue)
	e.NewDate = datePtr(dueDate)
	return e
}

// NewPartialPayment records money received without settling the payment
func NewPartialPayment(delta, paidTotal decimal.Decimal, at time.Time, actor string) Entry {
	e := newEntry(KindPartialPayment, at, actor)
	e.AmountDelta = amountPtr(delta)
	e.PaidTotal = amountPtr(paidTotal)
	return e
}

// NewAmountAdjusted records an edit of the planned amount
func NewAmountAdjusted(previous, next decimal.Decimal, at time.Time, actor string) Entry {
	e := newEntry(KindAmountAdjusted, at, actor)
	e.PreviousAmount = amountPtr(previous)
	e.NewAmount = amountPtr(next)
	e.AmountDelta = amountPtr(e.NewAmount.Sub(*e.PreviousAmount))
	return e
}

// NewRescheduled records a due date move. comment is empty for caller edits.
func NewRescheduled(previous, next time.Time, at time.Time, actor, comment string) Entry {
	e := newEntry(KindRescheduled, at, actor)
	e.PreviousDate = datePtr(previous)
	e.NewDate = datePtr(next)
	e.Comment = comment
	return e
}

// NewStatusChanged records a status transition
func NewStatusChanged(previous, next models.Status, at time.Time, actor string) Entry {
	e := newEntry(KindStatusChanged, at, actor)
	e.PreviousStatus = statusPtr(previous)
	e.NewStatus = statusPtr(next)
	return e
}

// NewFinalized records that the payment was settled in full
func NewFinalized(amount decimal.Decimal, paidDate time.Time, previous models.Status, at time.Time, actor string) Entry {
	e := newEntry(KindFinalized, at, actor)
	e.Amount = amountPtr(amount)
	e.PaidDate = datePtr(paidDate)
	e.PreviousStatus = statusPtr(previous)
	e.NewStatus = statusPtr(models.StatusCompleted)
	return e
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
}

// ToJSON encodes entries sorted by timestamp ascending
func ToJSON(entries []Entry) (string, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sortEntries(sorted)
	data, err := json.Marshal(sorted)
	if err != nil {
		return "", fmt.Errorf("failed to encode timeline: %w", err)
	}
	return string(data), nil
}

// FromJSON decodes a stored log. A payload that fails to decode is treated
// as an empty log; the corrupted content is dropped.
func FromJSON(data string) []Entry {
	if data == "" {
		return []Entry{}
	}
	var entries []Entry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		return []Entry{}
	}
	if entries == nil {
		return []Entry{}
	}
	sortEntries(entries)
	return entries
}

// Log is an append-only sequence of entries
type Log struct {
	entries []Entry
}

// Load restores a log from its stored form
func Load(data string) *Log {
	return &Log{entries: FromJSON(data)}
}

// Append adds entries to the end of the log
func (l *Log) Append(entries ...Entry) {
	l.entries = append(l.entries, entries...)
}

// Entries returns a sorted copy
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	sortEntries(out)
	return out
}

// Len returns the number of entries
func (l *Log) Len() int {
	return len(l.entries)
}

// Encode serializes the log for storage
func (l *Log) Encode() (string, error) {
	return ToJSON(l.entries)
}
