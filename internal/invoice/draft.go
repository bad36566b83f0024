package invoice

import (
	"net/url"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Unit classification for a line item.
const (
	UnitHours     = "hours"
	UnitQuantity  = "quantity"
	UnitService   = "service"
	UnitFixedRate = "fixed_rate"
)

// Template variants for the rendered document. Purely cosmetic.
const (
	TemplateMinimalist  = "minimalist"
	TemplateCreative    = "creative"
	TemplateTraditional = "traditional"
)

const (
	DefaultBrandColor = "#FFD166"
	DefaultInvoiceNo  = "INV-0001"

	// Logo uploads are capped at 5MB and limited to PNG/JPEG.
	MaxLogoBytes = 5 * 1024 * 1024
)

// LineItem is one billable row. Order within the draft is display-relevant.
type LineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	UnitType    string  `json:"unit_type"`
	Qty         float64 `json:"qty"`
	Rate        float64 `json:"rate"`
	DiscountPct float64 `json:"discount_pct"`
}

// Draft is the full in-progress invoice state. It is owned exclusively by the
// editing session; totals are always derived from it on demand, never stored.
type Draft struct {
	InvoiceNo             string     `json:"invoice_no"`
	PONo                  string     `json:"po_no"`
	IssueDate             string     `json:"issue_date"` // YYYY-MM-DD
	DueDate               string     `json:"due_date"`   // YYYY-MM-DD
	PaymentTerms          string     `json:"payment_terms"`
	From                  string     `json:"from"`
	BillTo                string     `json:"bill_to"`
	Notes                 string     `json:"notes"`
	BankDetails           string     `json:"bank_details"`
	Currency              string     `json:"currency"`
	TaxRatePct            float64    `json:"tax_rate_pct"`
	TaxPresetID           string     `json:"tax_preset_id"`
	TaxLabel              string     `json:"tax_label"`
	InvoiceDiscountAmount float64    `json:"invoice_discount_amount"`
	ShippingFee           float64    `json:"shipping_fee"`
	AmountPaid            float64    `json:"amount_paid"`
	LogoDataURL           string     `json:"logo_data_url"`
	PaymentLink           string     `json:"payment_link"`
	TemplateID            string     `json:"template_id"`
	BrandColor            string     `json:"brand_color"`
	Items                 []LineItem `json:"items"`
}

// DraftEnvelope is the versioned persistence wrapper. The engine and renderer
// never see it; they accept only the decoded Draft.
type DraftEnvelope struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Draft   Draft     `json:"draft"`
}

// SequenceEnvelope remembers the last issued invoice number and the suggested
// next one across sessions.
type SequenceEnvelope struct {
	Version       int    `json:"version"`
	LastInvoiceNo string `json:"last_invoice_no"`
	NextInvoiceNo string `json:"next_invoice_no"`
}

// EnvelopeVersion is the current persisted-draft schema version. Envelopes
// with any other version are discarded on load.
const EnvelopeVersion = 1

var hexColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// NormalizeBrandColor returns the accent color if it is a valid 6-hex-digit
// color, otherwise the default accent.
func NormalizeBrandColor(v string) string {
	if hexColorRe.MatchString(v) {
		return v
	}
	return DefaultBrandColor
}

// IsHTTPURL reports whether value parses as an absolute http or https URL.
// Payment links failing this check are omitted from the rendered document.
func IsHTTPURL(value string) bool {
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func validUnitType(u string) bool {
	switch u {
	case UnitHours, UnitQuantity, UnitService, UnitFixedRate:
		return true
	}
	return false
}

func validTemplate(t string) bool {
	switch t {
	case TemplateMinimalist, TemplateCreative, TemplateTraditional:
		return true
	}
	return false
}

// DefaultDraft returns a fresh draft for a new editing session: today's
// dates, a single placeholder line item and the default branding.
func DefaultDraft(invoiceNo string) Draft {
	if invoiceNo == "" {
		invoiceNo = DefaultInvoiceNo
	}
	today := time.Now().Format("2006-01-02")
	return Draft{
		InvoiceNo:    invoiceNo,
		IssueDate:    today,
		DueDate:      today,
		PaymentTerms: "Payment due within 15 days",
		From:         "Your Company\nStreet\nCity, State ZIP",
		BillTo:       "Client Name\nStreet\nCity, State ZIP",
		Notes:        "Thanks for your business.",
		BankDetails:  "Bank name\nAccount name\nAccount number / IBAN\nRouting / SWIFT",
		Currency:     "USD",
		TaxPresetID:  TaxPresetNone,
		TaxLabel:     "Tax",
		TemplateID:   TemplateMinimalist,
		BrandColor:   DefaultBrandColor,
		Items: []LineItem{{
			ID:          uuid.NewString(),
			Description: "Service or product",
			UnitType:    UnitQuantity,
			Qty:         1,
			Rate:        100,
			DiscountPct: 0,
		}},
	}
}

// SanitizeDraft normalizes a decoded draft in place so every consumer can
// rely on its invariants: finite numbers, known unit types and template id,
// valid accent color, at least one line item. It never fails; offending
// fields reset to defaults.
func SanitizeDraft(d *Draft) {
	base := DefaultDraft(d.InvoiceNo)

	if d.IssueDate == "" {
		d.IssueDate = base.IssueDate
	}
	if d.DueDate == "" {
		d.DueDate = base.DueDate
	}
	if d.Currency == "" {
		d.Currency = base.Currency
	}
	if d.TaxPresetID == "" {
		d.TaxPresetID = base.TaxPresetID
	}
	if d.TaxLabel == "" {
		d.TaxLabel = base.TaxLabel
	}
	if !validTemplate(d.TemplateID) {
		d.TemplateID = TemplateMinimalist
	}
	d.BrandColor = NormalizeBrandColor(d.BrandColor)
	d.TaxRatePct = safeNum(d.TaxRatePct)
	d.InvoiceDiscountAmount = safeNum(d.InvoiceDiscountAmount)
	d.ShippingFee = safeNum(d.ShippingFee)
	d.AmountPaid = safeNum(d.AmountPaid)

	if len(d.Items) == 0 {
		d.Items = base.Items
	}
	for i := range d.Items {
		it := &d.Items[i]
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if !validUnitType(it.UnitType) {
			it.UnitType = UnitQuantity
		}
		it.Qty = safeNum(it.Qty)
		it.Rate = safeNum(it.Rate)
		it.DiscountPct = safeNum(it.DiscountPct)
	}
}
