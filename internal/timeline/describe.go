package timeline

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

func fmtAmount(d *decimal.Decimal) string {
	if d == nil {
		return "0.00"
	}
	return d.StringFixed(2)
}

func fmtDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "—"
	}
	return t.Format(dateLayout)
}

// Describe renders an entry as a human readable audit message
func Describe(e Entry) string {
	switch e.Kind {
	case KindCreated:
		return fmt.Sprintf("Payment created: amount %s, due %s", fmtAmount(e.Amount), fmtDate(e.NewDate))
	case KindPartialPayment:
		if e.AmountDelta != nil && e.AmountDelta.IsNegative() {
			return fmt.Sprintf("Paid amount corrected: %s (paid in total %s)", fmtAmount(e.AmountDelta), fmtAmount(e.PaidTotal))
		}
		return fmt.Sprintf("Payment received: %s (paid in total %s)", fmtAmount(e.AmountDelta), fmtAmount(e.PaidTotal))
	case KindAmountAdjusted:
		return fmt.Sprintf("Amount changed: %s → %s", fmtAmount(e.PreviousAmount), fmtAmount(e.NewAmount))
	case KindRescheduled:
		msg := fmt.Sprintf("Due date changed: %s → %s", fmtDate(e.PreviousDate), fmtDate(e.NewDate))
		if e.Comment != "" {
			msg += " (" + e.Comment + ")"
		}
		return msg
	case KindStatusChanged:
		var prev, next string
		if e.PreviousStatus != nil {
			prev = string(*e.PreviousStatus)
		}
		if e.NewStatus != nil {
			next = string(*e.NewStatus)
		}
		return fmt.Sprintf("Status changed: %s → %s", prev, next)
	case KindFinalized:
		return fmt.Sprintf("Payment completed: %s paid on %s", fmtAmount(e.Amount), fmtDate(e.PaidDate))
	}
	return string(e.Kind)
}
