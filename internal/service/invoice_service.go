package service

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"invoicegen/internal/invoice"
	"invoicegen/internal/pdf"
	"invoicegen/internal/storage"
)

// --- DTOs ---

// FormattedTotals carries the presentation-rounded strings for every totals
// field, in the draft's currency.
type FormattedTotals struct {
	LineSubtotal           string `json:"line_subtotal"`
	LineDiscountTotal      string `json:"line_discount_total"`
	Subtotal               string `json:"subtotal"`
	InvoiceDiscountApplied string `json:"invoice_discount_applied"`
	ShippingApplied        string `json:"shipping_applied"`
	Tax                    string `json:"tax"`
	GrandTotal             string `json:"grand_total"`
	AmountPaidApplied      string `json:"amount_paid_applied"`
	BalanceDue             string `json:"balance_due"`
}

type TotalsResponse struct {
	Totals    invoice.TotalsResult `json:"totals"`
	Formatted FormattedTotals      `json:"formatted"`
}

type ExportResult struct {
	Filename string
	Data     []byte
}

var (
	// ErrExportInProgress rejects an export requested while another render
	// is still running. No partial document is ever exposed.
	ErrExportInProgress = errors.New("an export is already in progress")

	// ErrInvalidPaymentLink rejects drafts whose payment link is present but
	// not a well-formed http(s) URL.
	ErrInvalidPaymentLink = errors.New("payment link must be a valid http(s) URL")
)

// --- Interface ---

type InvoiceService interface {
	// ComputeTotals sanitizes the draft and derives the totals breakdown.
	// It never fails; invalid numerics become zero.
	ComputeTotals(d invoice.Draft) TotalsResponse

	// ExportPDF renders the draft into a downloadable document and advances
	// the invoice number sequence. Only one render runs at a time.
	ExportPDF(ctx context.Context, d invoice.Draft) (ExportResult, error)

	LoadDraft() invoice.Draft
	SaveDraft(d invoice.Draft) invoice.Draft
	ResetDraft() invoice.Draft
	NextInvoiceNo(current string) string
}

type invoiceService struct {
	store     *storage.DraftStore
	rendering atomic.Bool
}

func NewInvoiceService(store *storage.DraftStore) InvoiceService {
	return &invoiceService{store: store}
}

// --- Implementation ---

func (s *invoiceService) ComputeTotals(d invoice.Draft) TotalsResponse {
	invoice.SanitizeDraft(&d)
	t := invoice.CalcTotals(invoice.TotalsInput{
		Items:                 d.Items,
		TaxRatePct:            d.TaxRatePct,
		InvoiceDiscountAmount: d.InvoiceDiscountAmount,
		ShippingFee:           d.ShippingFee,
		AmountPaid:            d.AmountPaid,
	})
	cur := d.Currency
	return TotalsResponse{
		Totals: t,
		Formatted: FormattedTotals{
			LineSubtotal:           invoice.FormatMoney(t.LineSubtotal, cur),
			LineDiscountTotal:      invoice.FormatMoney(t.LineDiscountTotal, cur),
			Subtotal:               invoice.FormatMoney(t.Subtotal, cur),
			InvoiceDiscountApplied: invoice.FormatMoney(t.InvoiceDiscountApplied, cur),
			ShippingApplied:        invoice.FormatMoney(t.ShippingApplied, cur),
			Tax:                    invoice.FormatMoney(t.Tax, cur),
			GrandTotal:             invoice.FormatMoney(t.GrandTotal, cur),
			AmountPaidApplied:      invoice.FormatMoney(t.AmountPaidApplied, cur),
			BalanceDue:             invoice.FormatMoney(t.BalanceDue, cur),
		},
	}
}

func (s *invoiceService) ExportPDF(ctx context.Context, d invoice.Draft) (ExportResult, error) {
	invoice.SanitizeDraft(&d)

	if link := strings.TrimSpace(d.PaymentLink); link != "" && !invoice.IsHTTPURL(link) {
		return ExportResult{}, ErrInvalidPaymentLink
	}

	if !s.rendering.CompareAndSwap(false, true) {
		return ExportResult{}, ErrExportInProgress
	}
	defer s.rendering.Store(false)

	totals := invoice.CalcTotals(invoice.TotalsInput{
		Items:                 d.Items,
		TaxRatePct:            d.TaxRatePct,
		InvoiceDiscountAmount: d.InvoiceDiscountAmount,
		ShippingFee:           d.ShippingFee,
		AmountPaid:            d.AmountPaid,
	})

	data, err := pdf.Render(d, totals)
	if err != nil {
		return ExportResult{}, err
	}

	if s.store != nil {
		s.store.SaveSequence(invoice.SequenceEnvelope{
			LastInvoiceNo: d.InvoiceNo,
			NextInvoiceNo: invoice.SuggestNextInvoiceNo(d.InvoiceNo),
		})
	}

	return ExportResult{Filename: pdf.Filename(d.InvoiceNo), Data: data}, nil
}

func (s *invoiceService) LoadDraft() invoice.Draft {
	if s.store != nil {
		if d, ok := s.store.Load(); ok {
			return d
		}
		if seq, ok := s.store.LoadSequence(); ok {
			return invoice.DefaultDraft(seq.NextInvoiceNo)
		}
	}
	return invoice.DefaultDraft("")
}

func (s *invoiceService) SaveDraft(d invoice.Draft) invoice.Draft {
	invoice.SanitizeDraft(&d)
	if s.store != nil {
		s.store.Save(d)
	}
	return d
}

func (s *invoiceService) ResetDraft() invoice.Draft {
	next := ""
	if s.store != nil {
		if seq, ok := s.store.LoadSequence(); ok {
			next = seq.NextInvoiceNo
		}
		s.store.Clear()
	}
	return invoice.DefaultDraft(next)
}

func (s *invoiceService) NextInvoiceNo(current string) string {
	return invoice.SuggestNextInvoiceNo(current)
}
