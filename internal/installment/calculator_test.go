package installment

import (
	"errors"
	"testing"
	"time"

	"github.com/Dan9191/payplanner/internal/models"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var start = time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

func sumPayments(items []models.InstallmentItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Payment)
	}
	return sum
}

func checkSchedule(t *testing.T, res models.InstallmentResult) {
	t.Helper()
	if len(res.Items) == 0 {
		t.Fatalf("empty schedule")
	}
	last := res.Items[len(res.Items)-1]
	if !last.Balance.IsZero() {
		t.Fatalf("last balance got=%s want=0", last.Balance)
	}
	principal := decimal.Zero
	for i, it := range res.Items {
		if it.Balance.IsNegative() {
			t.Fatalf("item %d: negative balance %s", i, it.Balance)
		}
		if !it.Payment.Equal(it.Principal.Add(it.Interest)) {
			t.Fatalf("item %d: payment %s != principal %s + interest %s", i, it.Payment, it.Principal, it.Interest)
		}
		if it.Principal.IsNegative() {
			t.Fatalf("item %d: negative principal %s", i, it.Principal)
		}
		principal = principal.Add(it.Principal)
	}
	if !principal.Equal(res.LoanAmount) {
		t.Fatalf("principal sum got=%s want=%s", principal, res.LoanAmount)
	}
	if got, want := sumPayments(res.Items), res.LoanAmount.Add(res.TotalInterest); !got.Equal(want) {
		t.Fatalf("payments sum got=%s want=%s", got, want)
	}
	if !res.TotalPayments.Equal(sumPayments(res.Items)) {
		t.Fatalf("TotalPayments got=%s want=%s", res.TotalPayments, sumPayments(res.Items))
	}
}

func TestCalculateAnnuity(t *testing.T) {
	res, err := Calculate(models.InstallmentRequest{
		Total:      d("120000"),
		AnnualRate: d("12"),
		Months:     12,
		StartDate:  start,
	})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}

	checkSchedule(t, res)
	if len(res.Items) != 12 {
		t.Fatalf("items got=%d want=12", len(res.Items))
	}
	if !res.BasePayment.Equal(d("10661.85")) {
		t.Errorf("BasePayment got=%s want=10661.85", res.BasePayment)
	}
	if res.RoundedPayment != nil {
		t.Errorf("RoundedPayment should be nil without a rounding policy")
	}
	if !res.Items[0].Interest.Equal(d("1200")) {
		t.Errorf("first interest got=%s want=1200", res.Items[0].Interest)
	}
	if !res.Overpay.Equal(res.TotalInterest) {
		t.Errorf("Overpay got=%s want=%s", res.Overpay, res.TotalInterest)
	}
	if !res.AmountToPay.Equal(res.TotalPayments) {
		t.Errorf("AmountToPay got=%s want=%s", res.AmountToPay, res.TotalPayments)
	}
	if want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC); !res.Items[0].Date.Equal(want) {
		t.Errorf("first date got=%v want=%v", res.Items[0].Date, want)
	}
	if want := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC); !res.Items[11].Date.Equal(want) {
		t.Errorf("last date got=%v want=%v", res.Items[11].Date, want)
	}
}

func TestCalculateZeroRate(t *testing.T) {
	res, err := Calculate(models.InstallmentRequest{Total: d("120000"), Months: 12, StartDate: start})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	checkSchedule(t, res)
	for i, it := range res.Items {
		if !it.Payment.Equal(d("10000")) {
			t.Errorf("item %d payment got=%s want=10000", i, it.Payment)
		}
	}
	if !res.TotalInterest.IsZero() || !res.Overpay.IsZero() {
		t.Errorf("zero rate must not produce interest, got %s", res.TotalInterest)
	}

	odd, err := Calculate(models.InstallmentRequest{Total: d("100000"), Months: 12, StartDate: start})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	checkSchedule(t, odd)
	for i, it := range odd.Items[:11] {
		if !it.Payment.Equal(d("8333.33")) {
			t.Errorf("item %d payment got=%s want=8333.33", i, it.Payment)
		}
	}
	if last := odd.Items[11].Payment; !last.Equal(d("8333.37")) {
		t.Errorf("last payment got=%s want=8333.37", last)
	}
}

func TestCalculateDownPayment(t *testing.T) {
	res, err := Calculate(models.InstallmentRequest{
		Total:       d("150000"),
		DownPayment: d("30000"),
		AnnualRate:  d("12"),
		Months:      12,
		StartDate:   start,
	})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	checkSchedule(t, res)
	if !res.LoanAmount.Equal(d("120000")) {
		t.Fatalf("LoanAmount got=%s want=120000", res.LoanAmount)
	}
	if want := res.TotalPayments.Add(d("30000")); !res.AmountToPay.Equal(want) {
		t.Fatalf("AmountToPay got=%s want=%s", res.AmountToPay, want)
	}

	over, err := Calculate(models.InstallmentRequest{Total: d("100"), DownPayment: d("500"), AnnualRate: d("5"), Months: 3})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if !over.LoanAmount.IsZero() || !over.TotalPayments.IsZero() {
		t.Fatalf("down payment above total should leave nothing to finance, got loan=%s", over.LoanAmount)
	}
}

func TestCalculateRounding(t *testing.T) {
	tests := []struct {
		name string
		mode models.RoundingMode
		step string
		want string
	}{
		{"up to thousands", models.RoundingUp, "1000", "11000"},
		{"down to thousands", models.RoundingDown, "1000", "10000"},
		{"nearest hundred", models.RoundingNearest, "100", "10700"},
		{"down below interest", models.RoundingDown, "100000", "1200"},
		{"missing step", models.RoundingUp, "0", "10662"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Calculate(models.InstallmentRequest{
				Total:        d("120000"),
				AnnualRate:   d("12"),
				Months:       12,
				StartDate:    start,
				RoundingMode: tt.mode,
				RoundingStep: d(tt.step),
			})
			if err != nil {
				t.Fatalf("Calculate failed: %v", err)
			}
			if res.RoundedPayment == nil {
				t.Fatalf("RoundedPayment missing")
			}
			if !res.RoundedPayment.Equal(d(tt.want)) {
				t.Fatalf("RoundedPayment got=%s want=%s", res.RoundedPayment, tt.want)
			}
			if res.RoundedPayment.LessThan(res.Items[0].Interest) {
				t.Fatalf("rounded payment %s below first interest %s", res.RoundedPayment, res.Items[0].Interest)
			}
			checkSchedule(t, res)
		})
	}
}

func TestCalculateRoundingFallsBackWhenZero(t *testing.T) {
	res, err := Calculate(models.InstallmentRequest{
		Total:        d("1200"),
		Months:       12,
		RoundingMode: models.RoundingDown,
		RoundingStep: d("1000"),
	})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if !res.RoundedPayment.Equal(d("100")) {
		t.Fatalf("RoundedPayment got=%s want=100", res.RoundedPayment)
	}
	checkSchedule(t, res)
}

func TestCalculateLongTerm(t *testing.T) {
	res, err := Calculate(models.InstallmentRequest{
		Total:      d("7500000"),
		AnnualRate: d("9.5"),
		Months:     MaxMonths,
		StartDate:  start,
	})
	if err != nil {
		t.Fatalf("Calculate failed: %v", err)
	}
	if len(res.Items) != MaxMonths {
		t.Fatalf("items got=%d want=%d", len(res.Items), MaxMonths)
	}
	checkSchedule(t, res)
}

func TestCalculateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		req  models.InstallmentRequest
		want error
	}{
		{"zero months", models.InstallmentRequest{Total: d("100"), Months: 0}, ErrInvalidTerm},
		{"negative months", models.InstallmentRequest{Total: d("100"), Months: -3}, ErrInvalidTerm},
		{"too long", models.InstallmentRequest{Total: d("100"), Months: MaxMonths + 1}, ErrInvalidTerm},
		{"negative rate", models.InstallmentRequest{Total: d("100"), Months: 12, AnnualRate: d("-1")}, ErrInvalidRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Calculate(tt.req)
			if !errors.Is(err, tt.want) || !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("err got=%v want=%v", err, tt.want)
			}
			if res.Items != nil {
				t.Fatalf("no schedule expected on error")
			}
		})
	}
}

func TestPowInt(t *testing.T) {
	if got := powInt(2, 10); got != 1024 {
		t.Fatalf("powInt(2, 10) got=%v want=1024", got)
	}
	if got := powInt(1.5, 0); got != 1 {
		t.Fatalf("powInt(1.5, 0) got=%v want=1", got)
	}
}
