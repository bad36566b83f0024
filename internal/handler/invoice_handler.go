package handler

import (
	"net/http"

	"invoicegen/internal/invoice"
	"invoicegen/internal/model"
	"invoicegen/internal/service"
	"invoicegen/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type InvoiceHandler struct {
	invoiceService   service.InvoiceService
	analyticsService service.AnalyticsService
}

// NewInvoiceHandler wires the drafting endpoints. analyticsService may be nil;
// exports then simply skip the download counter.
func NewInvoiceHandler(invoiceService service.InvoiceService, analyticsService service.AnalyticsService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService:   invoiceService,
		analyticsService: analyticsService,
	}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/invoices")
	{
		invoices.POST("/totals", h.ComputeTotals)
		invoices.POST("/pdf", h.ExportPDF)
		invoices.POST("/next-number", h.NextInvoiceNo)
	}

	draft := router.Group("/api/draft")
	{
		draft.GET("", h.GetDraft)
		draft.PUT("", h.SaveDraft)
		draft.DELETE("", h.ResetDraft)
	}

	router.GET("/api/tax-presets", h.ListTaxPresets)
	router.GET("/api/currencies", h.ListCurrencies)
}

// ComputeTotals derives the full totals breakdown for a draft
// @Summary      Compute invoice totals
// @Description  Sanitizes the draft and returns the totals breakdown with formatted amounts
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        payload  body      invoice.Draft  true  "Invoice Draft"
// @Success      200      {object}  response.Response{data=service.TotalsResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/invoices/totals [post]
func (h *InvoiceHandler) ComputeTotals(c *gin.Context) {
	var d invoice.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.invoiceService.ComputeTotals(d)))
}

// ExportPDF renders the draft to a downloadable PDF document
// @Summary      Export invoice PDF
// @Description  Renders the draft into a PDF and advances the invoice number sequence
// @Tags         invoices
// @Accept       json
// @Produce      application/pdf
// @Param        payload  body      invoice.Draft  true  "Invoice Draft"
// @Success      200      {file}    file
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/invoices/pdf [post]
func (h *InvoiceHandler) ExportPDF(c *gin.Context) {
	var d invoice.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	res, err := h.invoiceService.ExportPDF(c.Request.Context(), d)
	if err != nil {
		switch err {
		case service.ErrExportInProgress:
			c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
		case service.ErrInvalidPaymentLink:
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		}
		return
	}

	h.trackDownload(c, d)

	c.Header("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", res.Data)
}

// trackDownload records the export as an analytics event. Best effort: a
// failed or rate-limited track never blocks the download itself.
func (h *InvoiceHandler) trackDownload(c *gin.Context, d invoice.Draft) {
	if h.analyticsService == nil {
		return
	}
	_, err := h.analyticsService.Track(c.Request.Context(), service.TrackRequest{
		Event: model.EventPDFDownload,
		Path:  "/",
		VID:   c.GetHeader("X-Visitor-ID"),
	}, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		log.Debug().Err(err).Msg("pdf download not tracked")
	}
}

// NextInvoiceNo suggests the invoice number following the given one
// @Summary      Suggest next invoice number
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        payload  body      object{current=string}  true  "Current invoice number"
// @Success      200      {object}  response.Response{data=object}
// @Router       /api/invoices/next-number [post]
func (h *InvoiceHandler) NextInvoiceNo(c *gin.Context) {
	var req struct {
		Current string `json:"current"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"next": h.invoiceService.NextInvoiceNo(req.Current),
	}))
}

// GetDraft returns the persisted draft, or a fresh default
// @Summary      Get current draft
// @Tags         draft
// @Produce      json
// @Success      200  {object}  response.Response{data=invoice.Draft}
// @Router       /api/draft [get]
func (h *InvoiceHandler) GetDraft(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.invoiceService.LoadDraft()))
}

// SaveDraft persists the draft (debounced on disk)
// @Summary      Save draft
// @Tags         draft
// @Accept       json
// @Produce      json
// @Param        payload  body      invoice.Draft  true  "Invoice Draft"
// @Success      200      {object}  response.Response{data=invoice.Draft}
// @Failure      400      {object}  response.Response
// @Router       /api/draft [put]
func (h *InvoiceHandler) SaveDraft(c *gin.Context) {
	var d invoice.Draft
	if err := c.ShouldBindJSON(&d); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.invoiceService.SaveDraft(d)))
}

// ResetDraft discards the persisted draft and returns a fresh one
// @Summary      Reset draft
// @Tags         draft
// @Produce      json
// @Success      200  {object}  response.Response{data=invoice.Draft}
// @Router       /api/draft [delete]
func (h *InvoiceHandler) ResetDraft(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.invoiceService.ResetDraft()))
}

// ListTaxPresets returns the built-in tax rate presets
// @Summary      List tax presets
// @Tags         reference
// @Produce      json
// @Success      200  {object}  response.Response{data=[]invoice.TaxPreset}
// @Router       /api/tax-presets [get]
func (h *InvoiceHandler) ListTaxPresets(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice.TaxPresets))
}

// ListCurrencies returns the supported currencies with their symbols
// @Summary      List currencies
// @Tags         reference
// @Produce      json
// @Success      200  {object}  response.Response{data=[]invoice.CurrencyOption}
// @Router       /api/currencies [get]
func (h *InvoiceHandler) ListCurrencies(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice.CurrencyOptions()))
}
