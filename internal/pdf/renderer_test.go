package pdf

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"invoicegen/internal/invoice"
)

func sampleDraft() invoice.Draft {
	d := invoice.DefaultDraft("INV-0042")
	d.Items = []invoice.LineItem{
		{ID: "a", Description: "Design work", UnitType: invoice.UnitHours, Qty: 2, Rate: 100, DiscountPct: 10},
		{ID: "b", Description: "Hosting", UnitType: invoice.UnitService, Qty: 1, Rate: 50},
	}
	d.TaxRatePct = 10
	d.InvoiceDiscountAmount = 20
	d.ShippingFee = 15
	d.AmountPaid = 30
	return d
}

func render(t *testing.T, d invoice.Draft) []byte {
	t.Helper()
	totals := invoice.CalcTotals(invoice.TotalsInput{
		Items:                 d.Items,
		TaxRatePct:            d.TaxRatePct,
		InvoiceDiscountAmount: d.InvoiceDiscountAmount,
		ShippingFee:           d.ShippingFee,
		AmountPaid:            d.AmountPaid,
	})
	out, err := Render(d, totals)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return out
}

func TestRender_ProducesPDF(t *testing.T) {
	out := render(t, sampleDraft())
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("output does not start with PDF header: %q", out[:8])
	}
	if len(out) < 1000 {
		t.Errorf("suspiciously small document: %d bytes", len(out))
	}
}

func TestRender_InvalidAccentColorFallsBack(t *testing.T) {
	d := sampleDraft()
	d.BrandColor = "chartreuse"
	if out := render(t, d); len(out) == 0 {
		t.Error("expected a document despite invalid accent color")
	}
}

func TestRender_PaymentBlockOnlyForValidLinks(t *testing.T) {
	d := sampleDraft()
	d.PaymentLink = "https://pay.example.com/inv-42"
	withQR := render(t, d)

	// The link cell carries a URI annotation, so the raw URL appears in the
	// document outside the compressed content streams.
	if !bytes.Contains(withQR, []byte("https://pay.example.com/inv-42")) {
		t.Error("expected a clickable payment link annotation")
	}

	d.PaymentLink = "not a url"
	withoutQR := render(t, d)

	// The embedded QR image makes the valid-link document noticeably larger.
	if len(withQR) <= len(withoutQR) {
		t.Errorf("expected payment block to grow the document: with=%d without=%d", len(withQR), len(withoutQR))
	}
}

func TestRender_ManyItemsPaginate(t *testing.T) {
	d := sampleDraft()
	d.Items = nil
	for i := 0; i < 80; i++ {
		d.Items = append(d.Items, invoice.LineItem{
			ID: "x", Description: "Recurring maintenance window with a long description that wraps",
			UnitType: invoice.UnitQuantity, Qty: 1, Rate: 10,
		})
	}
	if out := render(t, d); len(out) == 0 {
		t.Error("expected multi-page document")
	}
}

func TestRender_LogoHandling(t *testing.T) {
	// Valid 1x1 PNG.
	png := "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="
	d := sampleDraft()
	d.LogoDataURL = "data:image/png;base64," + png
	if out := render(t, d); len(out) == 0 {
		t.Error("expected document with logo")
	}

	// Unsupported type is skipped, not fatal.
	d.LogoDataURL = "data:image/gif;base64," + png
	if out := render(t, d); len(out) == 0 {
		t.Error("expected document when logo type is rejected")
	}
}

func TestDecodeLogo(t *testing.T) {
	raw := []byte{1, 2, 3, 4}
	ok64 := base64.StdEncoding.EncodeToString(raw)

	if _, _, ok := decodeLogo("data:image/png;base64," + ok64); !ok {
		t.Error("valid png data URL rejected")
	}
	if typ, _, _ := decodeLogo("data:image/jpeg;base64," + ok64); typ != "JPG" {
		t.Errorf("jpeg type = %q, want JPG", typ)
	}
	if _, _, ok := decodeLogo("data:image/png;base64,!!!"); ok {
		t.Error("invalid base64 accepted")
	}
	if _, _, ok := decodeLogo("https://example.com/logo.png"); ok {
		t.Error("non-data URL accepted")
	}
	big := base64.StdEncoding.EncodeToString(make([]byte, invoice.MaxLogoBytes+1))
	if _, _, ok := decodeLogo("data:image/png;base64," + big); ok {
		t.Error("oversized logo accepted")
	}
}

func TestFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"INV-0042", "INV-0042.pdf"},
		{"INV 0042/α", "INV-0042-.pdf"},
		{"", "invoice.pdf"},
		{"  ", "invoice.pdf"},
		{"a.b_c-d", "a.b_c-d.pdf"},
	}
	for _, tc := range cases {
		if got := Filename(tc.in); got != tc.want {
			t.Errorf("Filename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDisplayedLineAmountsSumToSubtotal(t *testing.T) {
	d := sampleDraft()
	totals := invoice.CalcTotals(invoice.TotalsInput{Items: d.Items})
	var sum float64
	for _, it := range d.Items {
		sum += invoice.LineNet(it)
	}
	if invoice.RoundCents(sum) != invoice.RoundCents(totals.Subtotal) {
		t.Errorf("line amounts sum %v, subtotal %v", sum, totals.Subtotal)
	}
}

func TestThemeFor(t *testing.T) {
	if th := ThemeFor(invoice.TemplateCreative); th.HeadingSize != 24 || !th.Dashed {
		t.Errorf("creative theme = %+v", th)
	}
	if th := ThemeFor("unknown"); th != ThemeFor(invoice.TemplateMinimalist) {
		t.Errorf("unknown template should use minimalist theme, got %+v", th)
	}
	if r, g, b := hexRGB("#ffd166"); r != 255 || g != 209 || b != 102 {
		t.Errorf("hexRGB(#ffd166) = %d,%d,%d", r, g, b)
	}
	if !strings.HasPrefix(ThemeFor(invoice.TemplateTraditional).TableHeaderBg, "#") {
		t.Error("expected hex table header background")
	}
}
