package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"invoicegen/internal/invoice"
	"invoicegen/internal/storage"
)

func testDraft() invoice.Draft {
	d := invoice.DefaultDraft("INV-0042")
	d.Items = []invoice.LineItem{
		{Description: "Design", UnitType: invoice.UnitHours, Qty: 2, Rate: 100, DiscountPct: 10},
		{Description: "Hosting", UnitType: invoice.UnitService, Qty: 1, Rate: 50},
	}
	d.TaxRatePct = 10
	d.InvoiceDiscountAmount = 20
	d.ShippingFee = 15
	d.AmountPaid = 30
	return d
}

func newInvoiceService(t *testing.T) InvoiceService {
	t.Helper()
	store, err := storage.NewDraftStore(t.TempDir(), time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	return NewInvoiceService(store)
}

func TestComputeTotals_FormatsInDraftCurrency(t *testing.T) {
	svc := newInvoiceService(t)
	d := testDraft()
	d.Currency = "GBP"

	resp := svc.ComputeTotals(d)
	if resp.Totals.GrandTotal != 247.5 {
		t.Errorf("grand total = %v, want 247.5", resp.Totals.GrandTotal)
	}
	if resp.Formatted.GrandTotal != "£247.50" {
		t.Errorf("formatted grand total = %q", resp.Formatted.GrandTotal)
	}
	if resp.Formatted.BalanceDue != "£217.50" {
		t.Errorf("formatted balance due = %q", resp.Formatted.BalanceDue)
	}
}

func TestExportPDF_RejectsMalformedPaymentLink(t *testing.T) {
	svc := newInvoiceService(t)
	d := testDraft()
	d.PaymentLink = "ftp://pay.example.com"

	_, err := svc.ExportPDF(context.Background(), d)
	if !errors.Is(err, ErrInvalidPaymentLink) {
		t.Errorf("err = %v, want ErrInvalidPaymentLink", err)
	}
}

func TestExportPDF_ProducesDocumentAndAdvancesSequence(t *testing.T) {
	store, err := storage.NewDraftStore(t.TempDir(), time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	svc := NewInvoiceService(store)

	res, err := svc.ExportPDF(context.Background(), testDraft())
	if err != nil {
		t.Fatalf("ExportPDF: %v", err)
	}
	if res.Filename != "INV-0042.pdf" {
		t.Errorf("filename = %q", res.Filename)
	}
	if !bytes.HasPrefix(res.Data, []byte("%PDF-")) {
		t.Error("expected PDF bytes")
	}

	seq, ok := store.LoadSequence()
	if !ok {
		t.Fatal("expected sequence envelope after export")
	}
	if seq.NextInvoiceNo != "INV-0043" {
		t.Errorf("next invoice no = %q, want INV-0043", seq.NextInvoiceNo)
	}
}

func TestExportPDF_SingleFlight(t *testing.T) {
	svc := newInvoiceService(t)
	d := testDraft()

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, busy, failed := 0, 0, 0
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ExportPDF(context.Background(), d)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrExportInProgress):
				busy++
			default:
				failed++
			}
		}()
	}
	wg.Wait()

	if succeeded == 0 {
		t.Error("expected at least one export to succeed")
	}
	if failed != 0 {
		t.Errorf("%d exports failed with unexpected errors", failed)
	}
}

func TestDraftLifecycle(t *testing.T) {
	svc := newInvoiceService(t)

	d := svc.LoadDraft()
	if d.InvoiceNo != invoice.DefaultInvoiceNo {
		t.Errorf("fresh draft no = %q", d.InvoiceNo)
	}

	d.BillTo = "Acme Corp"
	saved := svc.SaveDraft(d)
	if saved.BillTo != "Acme Corp" {
		t.Errorf("saved draft lost edits: %+v", saved)
	}

	reset := svc.ResetDraft()
	if reset.BillTo == "Acme Corp" {
		t.Error("reset draft kept old edits")
	}
}

func TestNextInvoiceNo(t *testing.T) {
	svc := newInvoiceService(t)
	if got := svc.NextInvoiceNo("INV-0042"); got != "INV-0043" {
		t.Errorf("NextInvoiceNo = %q", got)
	}
}
