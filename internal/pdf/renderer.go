// Package pdf renders an invoice draft plus its computed totals into a
// paginated letter-sized document. The renderer never recomputes totals;
// callers pass the engine's result so the export always matches the preview.
package pdf

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"invoicegen/internal/invoice"
)

const (
	pageW      = 612.0
	pageH      = 792.0
	marginX    = 36.0
	contentW   = pageW - 2*marginX
	lineH      = 12.0
	footerSafe = pageH - 72
)

var filenameRe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Filename derives the download file name from an invoice number, replacing
// anything outside [A-Za-z0-9._-] and appending the pdf extension.
func Filename(invoiceNo string) string {
	name := filenameRe.ReplaceAllString(strings.TrimSpace(invoiceNo), "-")
	if name == "" {
		name = "invoice"
	}
	return name + ".pdf"
}

// decodeLogo splits a data URL into an image type gofpdf accepts and raw
// bytes. Anything that is not an in-budget PNG or JPEG is dropped.
func decodeLogo(dataURL string) (imgType string, data []byte, ok bool) {
	const pngPrefix = "data:image/png;base64,"
	const jpgPrefix = "data:image/jpeg;base64,"
	var b64 string
	switch {
	case strings.HasPrefix(dataURL, pngPrefix):
		imgType, b64 = "PNG", dataURL[len(pngPrefix):]
	case strings.HasPrefix(dataURL, jpgPrefix):
		imgType, b64 = "JPG", dataURL[len(jpgPrefix):]
	default:
		return "", nil, false
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil || len(raw) == 0 || len(raw) > invoice.MaxLogoBytes {
		return "", nil, false
	}
	return imgType, raw, true
}

// formatNumber prints a quantity or percentage the way the editor shows it:
// rounded to cents, trailing zeros trimmed.
func formatNumber(v float64) string {
	return strconv.FormatFloat(invoice.RoundCents(v), 'f', -1, 64)
}

type docWriter struct {
	pdf      *gofpdf.Fpdf
	tr       func(string) string
	theme    Theme
	accent   [3]int
	currency string
}

// Render produces the PDF bytes for a draft and its totals breakdown.
// Optional elements degrade rather than fail: a bad accent color falls back
// to the default, a malformed payment link omits the payment block, a QR
// encoding failure keeps the link but drops the image.
func Render(d invoice.Draft, totals invoice.TotalsResult) ([]byte, error) {
	accentHex := invoice.NormalizeBrandColor(d.BrandColor)
	ar, ag, ab := hexRGB(accentHex)

	p := gofpdf.New("P", "pt", "Letter", "")
	p.SetMargins(marginX, marginX, marginX)
	p.SetAutoPageBreak(true, 54)
	p.SetTitle(docTitle(d.InvoiceNo), true)

	w := &docWriter{
		pdf:      p,
		tr:       p.UnicodeTranslatorFromDescriptor(""),
		theme:    ThemeFor(d.TemplateID),
		accent:   [3]int{ar, ag, ab},
		currency: d.Currency,
	}

	p.SetFooterFunc(func() {
		p.SetY(-30)
		p.SetFont("Helvetica", "", 9)
		p.SetTextColor(107, 114, 128)
		p.CellFormat(0, 10, "Generated by Invoice Generator (Maple-Tyne Technologies Inc.).", "", 0, "L", false, 0, "")
	})

	p.AddPage()
	p.SetFont("Helvetica", "", 11)
	p.SetTextColor(11, 18, 32)

	w.header(d)
	w.partyBlocks(d)
	w.itemTable(d)
	w.totalsBlock(d, totals)
	w.paymentBlock(d)
	w.textBlock("BANK / PAYMENT DETAILS", d.BankDetails)
	w.textBlock("NOTES", d.Notes)

	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

func docTitle(invoiceNo string) string {
	if strings.TrimSpace(invoiceNo) == "" {
		return "Invoice"
	}
	return invoiceNo
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func (w *docWriter) money(v float64) string {
	return invoice.FormatMoney(v, w.currency)
}

func (w *docWriter) setAccent() {
	w.pdf.SetTextColor(w.accent[0], w.accent[1], w.accent[2])
}

func (w *docWriter) setMuted() {
	w.pdf.SetTextColor(85, 96, 112)
}

func (w *docWriter) setBody() {
	w.pdf.SetTextColor(11, 18, 32)
}

// boxBorder draws the block outline, dashed when the theme asks for it.
func (w *docWriter) boxBorder(x, y, bw, bh float64) {
	w.pdf.SetDrawColor(229, 231, 235)
	if w.theme.Dashed {
		w.pdf.SetDashPattern([]float64{3, 2}, 0)
		defer w.pdf.SetDashPattern([]float64{}, 0)
	}
	w.pdf.Rect(x, y, bw, bh, "D")
}

func (w *docWriter) header(d invoice.Draft) {
	p := w.pdf
	top := p.GetY()
	textX := marginX

	if imgType, raw, ok := decodeLogo(d.LogoDataURL); ok {
		opts := gofpdf.ImageOptions{ImageType: imgType}
		p.RegisterImageOptionsReader("logo", opts, bytes.NewReader(raw))
		p.ImageOptions("logo", marginX, top, 48, 48, false, opts, 0, "")
		textX = marginX + 58
	}

	p.SetXY(textX, top)
	p.SetFont("Helvetica", "B", w.theme.HeadingSize)
	w.setAccent()
	p.CellFormat(0, w.theme.HeadingSize+2, "Invoice", "", 1, "L", false, 0, "")

	p.SetFont("Helvetica", "", 10)
	w.setMuted()
	p.SetX(textX)
	p.CellFormat(0, 14, w.tr("Invoice No: "+orDash(d.InvoiceNo)), "", 1, "L", false, 0, "")
	p.SetX(textX)
	p.CellFormat(0, 14, w.tr("PO No: "+orDash(d.PONo)), "", 1, "L", false, 0, "")

	// Meta box on the right.
	boxW := 240.0
	boxX := pageW - marginX - boxW
	rows := [][2]string{
		{"Issue date", orDash(d.IssueDate)},
		{"Due date", orDash(d.DueDate)},
		{"Currency", orDash(d.Currency)},
		{"Payment terms", orDash(d.PaymentTerms)},
	}
	p.SetFont("Helvetica", "", 10)
	boxH := float64(len(rows))*16 + 12
	w.boxBorder(boxX, top, boxW, boxH)
	y := top + 8
	for _, row := range rows {
		p.SetXY(boxX+10, y)
		p.SetTextColor(107, 114, 128)
		p.CellFormat(90, 14, row[0], "", 0, "L", false, 0, "")
		w.setBody()
		p.CellFormat(boxW-110, 14, w.tr(row[1]), "", 0, "R", false, 0, "")
		y += 16
	}

	bottom := top + 48 + 18
	if top+boxH+18 > bottom {
		bottom = top + boxH + 18
	}
	p.SetY(bottom)
}

func (w *docWriter) partyBlocks(d invoice.Draft) {
	p := w.pdf
	gap := 14.0
	blockW := (contentW - gap) / 2
	top := p.GetY()

	maxH := 0.0
	for i, blk := range []struct{ title, body string }{
		{"FROM", d.From},
		{"BILL TO", d.BillTo},
	} {
		x := marginX + float64(i)*(blockW+gap)
		h := w.titledBox(x, top, blockW, blk.title, blk.body, true)
		if h > maxH {
			maxH = h
		}
	}
	p.SetY(top + maxH + 16)
}

// titledBox renders a bordered block with an uppercase gray title and wrapped
// body text, returning the drawn height. accentTop adds the colored top rule
// used by the party blocks.
func (w *docWriter) titledBox(x, y, bw float64, title, body string, accentTop bool) float64 {
	p := w.pdf
	p.SetFont("Helvetica", "", 8)
	bodyLines := w.wrapLines(body, bw-20)

	h := 10 + 14 + float64(len(bodyLines))*lineH + 10
	w.boxBorder(x, y, bw, h)
	if accentTop {
		p.SetFillColor(w.accent[0], w.accent[1], w.accent[2])
		p.Rect(x, y, bw, 3, "F")
	}

	p.SetXY(x+10, y+10)
	p.SetFont("Helvetica", "", 8)
	p.SetTextColor(107, 114, 128)
	p.CellFormat(bw-20, 10, title, "", 1, "L", false, 0, "")

	p.SetFont("Helvetica", "", 10)
	w.setBody()
	yy := y + 24
	for _, ln := range bodyLines {
		p.SetXY(x+10, yy)
		p.CellFormat(bw-20, lineH, ln, "", 0, "L", false, 0, "")
		yy += lineH
	}
	return h
}

// wrapLines splits already-translated text into lines fitting the width,
// preserving explicit newlines.
func (w *docWriter) wrapLines(s string, width float64) []string {
	p := w.pdf
	var out []string
	for _, para := range strings.Split(orDash(s), "\n") {
		para = w.tr(para)
		if para == "" {
			out = append(out, "")
			continue
		}
		out = append(out, p.SplitText(para, width)...)
	}
	return out
}

type itemCol struct {
	title string
	width float64
	align string
}

var itemCols = []itemCol{
	{"Description", 206, "L"},
	{"Unit", 64, "R"},
	{"Qty", 52, "R"},
	{"Rate", 72, "R"},
	{"Disc %", 62, "R"},
	{"Amount", 84, "R"},
}

func (w *docWriter) itemTableHeader() {
	p := w.pdf
	br, bg, bb := hexRGB(w.theme.TableHeaderBg)
	p.SetFillColor(br, bg, bb)
	p.SetDrawColor(229, 231, 235)
	p.SetFont("Helvetica", "B", 10)
	w.setBody()
	for _, c := range itemCols {
		p.CellFormat(c.width, 22, c.title, "B", 0, c.align, true, 0, "")
	}
	p.Ln(-1)
	p.SetFont("Helvetica", "", 10)
}

func (w *docWriter) itemTable(d invoice.Draft) {
	p := w.pdf
	w.itemTableHeader()

	for _, it := range d.Items {
		descLines := w.wrapLines(it.Description, itemCols[0].width-12)
		rowH := float64(len(descLines))*lineH + 8

		if p.GetY()+rowH > footerSafe {
			p.AddPage()
			w.itemTableHeader()
		}

		x, y := marginX, p.GetY()
		pct := it.DiscountPct
		if pct < 0 {
			pct = 0
		} else if pct > 100 {
			pct = 100
		}
		// Same per-line formula as the totals engine, so the cells cannot
		// drift from the summary block.
		vals := []string{
			"", // description drawn separately
			orDash(it.UnitType),
			formatNumber(it.Qty),
			w.money(it.Rate),
			formatNumber(pct),
			w.money(invoice.LineNet(it)),
		}
		cx := x
		for i, c := range itemCols {
			if i > 0 {
				p.SetXY(cx, y)
				p.CellFormat(c.width, rowH, w.tr(vals[i]), "", 0, c.align, false, 0, "")
			}
			cx += c.width
		}
		yy := y + 4
		for _, ln := range descLines {
			p.SetXY(x+2, yy)
			p.CellFormat(itemCols[0].width-4, lineH, ln, "", 0, "L", false, 0, "")
			yy += lineH
		}
		p.SetDrawColor(238, 242, 247)
		p.Line(marginX, y+rowH, marginX+contentW, y+rowH)
		p.SetY(y + rowH)
	}
	p.Ln(8)
}

func (w *docWriter) totalsBlock(d invoice.Draft, t invoice.TotalsResult) {
	p := w.pdf
	boxW := 320.0
	boxX := marginX + contentW - boxW
	taxLabel := d.TaxLabel
	if strings.TrimSpace(taxLabel) == "" {
		taxLabel = "Tax"
	}
	rate := d.TaxRatePct
	rows := []struct {
		label  string
		value  string
		strong bool
		accent bool
	}{
		{"Line subtotal", w.money(t.LineSubtotal), false, false},
		{"Line discounts", "-" + w.money(t.LineDiscountTotal), false, false},
		{"Subtotal", w.money(t.Subtotal), false, false},
		{"Invoice discount", "-" + w.money(t.InvoiceDiscountApplied), false, false},
		{"Shipping", w.money(t.ShippingApplied), false, false},
		{fmt.Sprintf("%s (%s%%)", taxLabel, formatNumber(rate)), w.money(t.Tax), false, false},
		{"Grand total", w.money(t.GrandTotal), true, false},
		{"Amount paid", w.money(t.AmountPaidApplied), false, false},
		{"Balance due", w.money(t.BalanceDue), true, true},
	}

	boxH := float64(len(rows))*16 + 12
	top := p.GetY()
	if top+boxH > footerSafe {
		p.AddPage()
		top = p.GetY()
	}
	w.boxBorder(boxX, top, boxW, boxH)

	y := top + 8
	for _, row := range rows {
		style := ""
		if row.strong {
			style = "B"
		}
		p.SetFont("Helvetica", style, 10)
		p.SetXY(boxX+10, y)
		switch {
		case row.accent:
			w.setAccent()
		case row.strong:
			w.setBody()
		default:
			p.SetTextColor(107, 114, 128)
		}
		p.CellFormat(boxW/2, 14, w.tr(row.label), "", 0, "L", false, 0, "")
		if !row.strong && !row.accent {
			w.setBody()
		}
		p.CellFormat(boxW/2-20, 14, w.tr(row.value), "", 0, "R", false, 0, "")
		y += 16
	}
	p.SetFont("Helvetica", "", 10)
	w.setBody()
	p.SetY(top + boxH + 14)
}

func (w *docWriter) paymentBlock(d invoice.Draft) {
	p := w.pdf
	link := strings.TrimSpace(d.PaymentLink)
	if link == "" || !invoice.IsHTTPURL(link) {
		return
	}

	qrPNG, qrErr := qrcode.Encode(link, qrcode.Medium, 180)

	boxH := 54.0
	if qrErr == nil {
		boxH = 100
	}
	top := p.GetY()
	if top+boxH > footerSafe {
		p.AddPage()
		top = p.GetY()
	}

	w.pdf.SetDrawColor(w.accent[0], w.accent[1], w.accent[2])
	p.Rect(marginX, top, contentW, boxH, "D")

	p.SetXY(marginX+10, top+10)
	p.SetFont("Helvetica", "", 8)
	p.SetTextColor(107, 114, 128)
	p.CellFormat(contentW-20, 10, "PAY ONLINE", "", 1, "L", false, 0, "")

	p.SetXY(marginX+10, top+24)
	p.SetFont("Helvetica", "U", 10)
	w.setAccent()
	p.CellFormat(contentW-20, lineH, w.tr(link), "", 0, "L", false, 0, link)

	if qrErr == nil {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		p.RegisterImageOptionsReader("payment-qr", opts, bytes.NewReader(qrPNG))
		p.ImageOptions("payment-qr", marginX+contentW-82, top+20, 72, 72, false, opts, 0, "")
		p.SetXY(marginX+10, top+44)
		p.SetFont("Helvetica", "", 10)
		p.SetTextColor(107, 114, 128)
		p.CellFormat(120, lineH, "Scan to pay", "", 0, "L", false, 0, "")
	}

	p.SetFont("Helvetica", "", 10)
	w.setBody()
	p.SetY(top + boxH + 14)
}

func (w *docWriter) textBlock(title, body string) {
	p := w.pdf
	top := p.GetY()
	p.SetFont("Helvetica", "", 10)
	est := 24 + float64(len(w.wrapLines(body, contentW-20)))*lineH + 10
	if top+est > footerSafe {
		p.AddPage()
		top = p.GetY()
	}
	h := w.titledBox(marginX, top, contentW, title, body, false)
	p.SetY(top + h + 14)
}
