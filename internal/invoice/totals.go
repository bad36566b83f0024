package invoice

import "math"

// TotalsInput carries everything the totals computation needs. All values are
// raw user input: non-finite numbers are tolerated and sanitized internally.
type TotalsInput struct {
	Items                 []LineItem
	TaxRatePct            float64
	InvoiceDiscountAmount float64
	ShippingFee           float64
	AmountPaid            float64
}

// TotalsResult is the fully-derived totals breakdown. It has no identity of
// its own and is recomputed from scratch on every call.
type TotalsResult struct {
	LineSubtotal           float64 `json:"line_subtotal"`
	LineDiscountTotal      float64 `json:"line_discount_total"`
	Subtotal               float64 `json:"subtotal"`
	InvoiceDiscountApplied float64 `json:"invoice_discount_applied"`
	ShippingApplied        float64 `json:"shipping_applied"`
	TaxableBase            float64 `json:"taxable_base"`
	Tax                    float64 `json:"tax"`
	GrandTotal             float64 `json:"grand_total"`
	AmountPaidApplied      float64 `json:"amount_paid_applied"`
	BalanceDue             float64 `json:"balance_due"`
}

// safeNum maps NaN and ±Inf to 0 so every downstream step works on finite
// values.
func safeNum(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// LineGross returns quantity × rate for one line, after sanitizing.
func LineGross(it LineItem) float64 {
	return safeNum(it.Qty) * safeNum(it.Rate)
}

// LineNet returns the discount-adjusted amount for one line. The discount
// percentage clamps to [0,100]. The renderer uses the same formula per row so
// displayed amounts can never drift from the computed totals.
func LineNet(it LineItem) float64 {
	gross := LineGross(it)
	pct := clamp(safeNum(it.DiscountPct), 0, 100)
	return gross - gross*(pct/100)
}

// CalcTotals derives the complete totals breakdown from line items and
// invoice-level adjustments. It is pure and total: any numeric input is
// accepted, invalid values become 0 rather than an error, and the step order
// below is part of the contract.
//
// No rounding happens here; rounding to cents is a formatting concern.
func CalcTotals(in TotalsInput) TotalsResult {
	var lineSubtotal, lineDiscountTotal float64
	for _, it := range in.Items {
		gross := LineGross(it)
		pct := clamp(safeNum(it.DiscountPct), 0, 100)
		lineSubtotal += gross
		lineDiscountTotal += gross * (pct / 100)
	}
	subtotal := lineSubtotal - lineDiscountTotal

	shipping := math.Max(0, safeNum(in.ShippingFee))

	// Invoice discount may consume shipping too, but never goes below zero
	// and never exceeds what there is to discount.
	discount := clamp(safeNum(in.InvoiceDiscountAmount), 0, math.Max(0, subtotal+shipping))

	taxableBase := subtotal - discount + shipping

	taxRate := math.Max(0, safeNum(in.TaxRatePct))
	tax := taxableBase * (taxRate / 100)

	grandTotal := taxableBase + tax

	paid := clamp(safeNum(in.AmountPaid), 0, math.Max(0, grandTotal))

	return TotalsResult{
		LineSubtotal:           lineSubtotal,
		LineDiscountTotal:      lineDiscountTotal,
		Subtotal:               subtotal,
		InvoiceDiscountApplied: discount,
		ShippingApplied:        shipping,
		TaxableBase:            taxableBase,
		Tax:                    tax,
		GrandTotal:             grandTotal,
		AmountPaidApplied:      paid,
		BalanceDue:             grandTotal - paid,
	}
}
