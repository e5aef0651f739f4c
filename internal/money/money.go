package money

import (
	"time"

	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance below which two amounts are considered equal.
var Epsilon = decimal.New(1, -2)

// Round2 rounds half away from zero to cents
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Clamp bounds d into [lo, hi]
func Clamp(d, lo, hi decimal.Decimal) decimal.Decimal {
	if d.LessThan(lo) {
		return lo
	}
	if d.GreaterThan(hi) {
		return hi
	}
	return d
}

// NonNegative returns d, or zero when d is negative
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Covers reports whether paid settles due within Epsilon
func Covers(paid, due decimal.Decimal) bool {
	return paid.GreaterThanOrEqual(due.Sub(Epsilon))
}

// Differs reports whether a and b are at least a cent apart
func Differs(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().GreaterThanOrEqual(Epsilon)
}

// Date strips the time of day, keeping the calendar day of t in its own location.
func Date(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DatePtr is Date for optional fields
func DatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := Date(*t)
	return &d
}

// SameDate compares optional calendar dates
func SameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return Date(*a).Equal(Date(*b))
}

// AddMonths moves t forward by n months, clamping the day to the end of shorter months.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}
