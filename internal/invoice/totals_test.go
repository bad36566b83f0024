package invoice

import (
	"math"
	"testing"
)

func TestCalcTotals_FullBreakdown(t *testing.T) {
	got := CalcTotals(TotalsInput{
		Items: []LineItem{
			{Qty: 2, Rate: 100, DiscountPct: 10},
			{Qty: 1, Rate: 50, DiscountPct: 0},
		},
		TaxRatePct:            10,
		InvoiceDiscountAmount: 20,
		ShippingFee:           15,
		AmountPaid:            30,
	})

	want := TotalsResult{
		LineSubtotal:           250,
		LineDiscountTotal:      20,
		Subtotal:               230,
		InvoiceDiscountApplied: 20,
		ShippingApplied:        15,
		TaxableBase:            225,
		Tax:                    22.5,
		GrandTotal:             247.5,
		AmountPaidApplied:      30,
		BalanceDue:             217.5,
	}
	if got != want {
		t.Errorf("CalcTotals() = %+v, want %+v", got, want)
	}
}

func TestCalcTotals_NonFiniteInputsSanitizeToZero(t *testing.T) {
	got := CalcTotals(TotalsInput{
		Items: []LineItem{
			{Qty: math.NaN(), Rate: 100, DiscountPct: 5},
			{Qty: 1, Rate: math.Inf(1), DiscountPct: math.NaN()},
		},
		TaxRatePct:            math.NaN(),
		InvoiceDiscountAmount: math.Inf(1),
		ShippingFee:           -10,
		AmountPaid:            math.Inf(1),
	})

	if got != (TotalsResult{}) {
		t.Errorf("expected all-zero result for non-finite inputs, got %+v", got)
	}
}

func TestCalcTotals_LineDiscountClampsAt100(t *testing.T) {
	got := CalcTotals(TotalsInput{
		Items:      []LineItem{{Qty: 2, Rate: 10, DiscountPct: 500}},
		AmountPaid: 999,
	})

	if got.Subtotal != 0 {
		t.Errorf("subtotal = %v, want 0", got.Subtotal)
	}
	if got.GrandTotal != 0 {
		t.Errorf("grand total = %v, want 0", got.GrandTotal)
	}
	if got.AmountPaidApplied != 0 {
		t.Errorf("amount paid applied = %v, want 0", got.AmountPaidApplied)
	}
	if got.BalanceDue != 0 {
		t.Errorf("balance due = %v, want 0", got.BalanceDue)
	}
}

func TestCalcTotals_InvoiceDiscountCapsAtSubtotalPlusShipping(t *testing.T) {
	got := CalcTotals(TotalsInput{
		Items:                 []LineItem{{Qty: 1, Rate: 100}},
		InvoiceDiscountAmount: 500,
		ShippingFee:           10,
	})

	if got.Subtotal != 100 {
		t.Errorf("subtotal = %v, want 100", got.Subtotal)
	}
	if got.ShippingApplied != 10 {
		t.Errorf("shipping applied = %v, want 10", got.ShippingApplied)
	}
	if got.InvoiceDiscountApplied != 110 {
		t.Errorf("invoice discount applied = %v, want 110", got.InvoiceDiscountApplied)
	}
	if got.TaxableBase != 0 {
		t.Errorf("taxable base = %v, want 0", got.TaxableBase)
	}
	if got.GrandTotal != 0 {
		t.Errorf("grand total = %v, want 0", got.GrandTotal)
	}
}

func TestCalcTotals_Idempotent(t *testing.T) {
	in := TotalsInput{
		Items:                 []LineItem{{Qty: 3, Rate: 19.99, DiscountPct: 7}},
		TaxRatePct:            13,
		InvoiceDiscountAmount: 5,
		ShippingFee:           9.5,
		AmountPaid:            12,
	}
	first := CalcTotals(in)
	second := CalcTotals(in)
	if first != second {
		t.Errorf("repeated calls differ: %+v vs %+v", first, second)
	}
}

func TestCalcTotals_IncreasingLineDiscountNeverRaisesSubtotal(t *testing.T) {
	prev := math.Inf(1)
	for pct := 0.0; pct <= 100; pct += 12.5 {
		got := CalcTotals(TotalsInput{
			Items: []LineItem{{Qty: 4, Rate: 25, DiscountPct: pct}},
		})
		if got.Subtotal > prev {
			t.Fatalf("subtotal rose from %v to %v at discount %v%%", prev, got.Subtotal, pct)
		}
		prev = got.Subtotal
	}
}

func TestCalcTotals_AmountPaidNeverExceedsGrandTotal(t *testing.T) {
	for _, paid := range []float64{0, 100, 1e9, 1e300} {
		got := CalcTotals(TotalsInput{
			Items:      []LineItem{{Qty: 1, Rate: 80}},
			TaxRatePct: 5,
			AmountPaid: paid,
		})
		if got.AmountPaidApplied > got.GrandTotal {
			t.Errorf("paid=%v: amountPaidApplied %v exceeds grandTotal %v", paid, got.AmountPaidApplied, got.GrandTotal)
		}
		if got.BalanceDue < 0 {
			t.Errorf("paid=%v: balance due went negative: %v", paid, got.BalanceDue)
		}
	}
}

func TestCalcTotals_AllFieldsFiniteAndNonNegative(t *testing.T) {
	cases := []TotalsInput{
		{},
		{Items: []LineItem{{Qty: -2, Rate: 10}}, ShippingFee: -5, InvoiceDiscountAmount: -3, AmountPaid: -1},
		{Items: []LineItem{{Qty: 1, Rate: 100, DiscountPct: 50}}, TaxRatePct: -10},
		{Items: []LineItem{{Qty: math.Inf(-1), Rate: math.NaN()}}, TaxRatePct: math.Inf(1)},
	}
	for i, in := range cases {
		got := CalcTotals(in)
		fields := map[string]float64{
			"shippingApplied":        got.ShippingApplied,
			"invoiceDiscountApplied": got.InvoiceDiscountApplied,
			"tax":                    got.Tax,
			"amountPaidApplied":      got.AmountPaidApplied,
		}
		for name, v := range fields {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("case %d: %s is not finite: %v", i, name, v)
			}
			if v < 0 {
				t.Errorf("case %d: %s is negative: %v", i, name, v)
			}
		}
	}
}
