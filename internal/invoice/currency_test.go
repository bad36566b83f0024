package invoice

import (
	"math"
	"testing"
)

func TestFormatMoney(t *testing.T) {
	cases := []struct {
		amount float64
		code   string
		want   string
	}{
		{1234.5, "USD", "$1234.50"},
		{0, "EUR", "€0.00"},
		{22.5, "GBP", "£22.50"},
		{10, "XYZ", "XYZ 10.00"},
		{math.NaN(), "USD", "$0.00"},
	}
	for _, tc := range cases {
		if got := FormatMoney(tc.amount, tc.code); got != tc.want {
			t.Errorf("FormatMoney(%v, %q) = %q, want %q", tc.amount, tc.code, got, tc.want)
		}
	}
}

func TestRoundCents_HalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{1.005, 1.01},
		{1.004, 1.0},
		{-1.005, -1.01},
		{2.675, 2.68},
		{0, 0},
	}
	for _, tc := range cases {
		if got := RoundCents(tc.in); got != tc.want {
			t.Errorf("RoundCents(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCurrencySymbolFallback(t *testing.T) {
	if got := CurrencySymbol("USD"); got != "$" {
		t.Errorf("CurrencySymbol(USD) = %q", got)
	}
	if got := CurrencySymbol("ZZZ"); got != "ZZZ " {
		t.Errorf("CurrencySymbol(ZZZ) = %q, want literal code prefix", got)
	}
}

func TestTaxPresetByID(t *testing.T) {
	p := TaxPresetByID("ca_hst_13")
	if p == nil || p.Rate != 13 {
		t.Fatalf("TaxPresetByID(ca_hst_13) = %+v", p)
	}
	if TaxPresetByID("nope") != nil {
		t.Error("expected nil for unknown preset id")
	}
}
