package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"invoicegen/internal/invoice"
	"invoicegen/internal/service"
	"invoicegen/internal/storage"

	"github.com/gin-gonic/gin"
)

func newInvoiceRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewDraftStore(t.TempDir(), time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	h := NewInvoiceHandler(service.NewInvoiceService(store), nil)

	router := gin.New()
	h.RegisterRoutes(&router.RouterGroup)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func exportDraft() invoice.Draft {
	d := invoice.DefaultDraft("INV-0007")
	d.Items = []invoice.LineItem{
		{Description: "Consulting", UnitType: invoice.UnitHours, Qty: 3, Rate: 120},
	}
	return d
}

func TestComputeTotalsEndpoint(t *testing.T) {
	router := newInvoiceRouter(t)

	w := postJSON(t, router, "/api/invoices/totals", exportDraft())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var envelope struct {
		Status string                 `json:"status"`
		Data   service.TotalsResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatal(err)
	}
	if envelope.Status != "success" {
		t.Errorf("status field = %q", envelope.Status)
	}
	if envelope.Data.Totals.GrandTotal != 360 {
		t.Errorf("grand total = %v, want 360", envelope.Data.Totals.GrandTotal)
	}
	if envelope.Data.Formatted.GrandTotal != "$360.00" {
		t.Errorf("formatted grand total = %q", envelope.Data.Formatted.GrandTotal)
	}
}

func TestComputeTotalsEndpoint_BadPayload(t *testing.T) {
	router := newInvoiceRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/invoices/totals", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestExportPDFEndpoint(t *testing.T) {
	router := newInvoiceRouter(t)

	w := postJSON(t, router, "/api/invoices/pdf", exportDraft())
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "INV-0007.pdf") {
		t.Errorf("content disposition = %q", cd)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
		t.Error("expected PDF bytes")
	}
}

func TestExportPDFEndpoint_InvalidPaymentLink(t *testing.T) {
	router := newInvoiceRouter(t)

	d := exportDraft()
	d.PaymentLink = "javascript:alert(1)"
	w := postJSON(t, router, "/api/invoices/pdf", d)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestDraftEndpoints(t *testing.T) {
	router := newInvoiceRouter(t)

	// Fresh draft.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/draft", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("GET draft status = %d", w.Code)
	}

	// Save an edit.
	d := exportDraft()
	d.BillTo = "Acme Corp"
	body, _ := json.Marshal(d)
	req := httptest.NewRequest(http.MethodPut, "/api/draft", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT draft status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Acme Corp") {
		t.Error("saved draft missing edit")
	}

	// Reset discards it.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/draft", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE draft status = %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "Acme Corp") {
		t.Error("reset draft kept old edit")
	}
}

func TestNextInvoiceNoEndpoint(t *testing.T) {
	router := newInvoiceRouter(t)

	w := postJSON(t, router, "/api/invoices/next-number", gin.H{"current": "INV-0099"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "INV-0100") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestReferenceEndpoints(t *testing.T) {
	router := newInvoiceRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/tax-presets", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "GST (Canada)") {
		t.Errorf("tax presets: status = %d, body = %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/currencies", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "GBP") {
		t.Errorf("currencies: status = %d, body = %s", w.Code, w.Body.String())
	}
}
