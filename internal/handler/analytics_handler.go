package handler

import (
	"net/http"

	"invoicegen/internal/middleware"
	"invoicegen/internal/service"
	"invoicegen/internal/websocket"
	"invoicegen/pkg/pagination"
	"invoicegen/pkg/response"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
	hub              *websocket.Hub
	jwtSecret        []byte
	adminPassHash    string
	siteHosts        []string
}

func NewAnalyticsHandler(analyticsService service.AnalyticsService, hub *websocket.Hub, jwtSecret []byte, adminPassHash string, siteHosts []string) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		hub:              hub,
		jwtSecret:        jwtSecret,
		adminPassHash:    adminPassHash,
		siteHosts:        siteHosts,
	}
}

func (h *AnalyticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/api/track", middleware.HostAllowlist(h.siteHosts), h.Track)
	router.POST("/api/admin/login", h.Login)

	admin := router.Group("/api/admin", middleware.RequireAdmin(h.jwtSecret))
	{
		admin.GET("/summary", h.Summary)
		admin.GET("/recent", h.Recent)
		admin.GET("/export.csv", h.ExportCSV)
		admin.GET("/export.xlsx", h.ExportXLSX)
		admin.POST("/cleanup", h.Cleanup)
	}

	// Browser websockets cannot set headers, so the live feed authenticates
	// inside ServeWs instead of through RequireAdmin.
	router.GET("/ws/admin", func(c *gin.Context) {
		websocket.ServeWs(h.hub, c, h.jwtSecret)
	})
}

// Track ingests one analytics event from the site
// @Summary      Track event
// @Description  Records a page view or PDF download. Always returns 204 on accepted or silently dropped hits.
// @Tags         analytics
// @Accept       json
// @Param        payload  body  service.TrackRequest  true  "Event Payload"
// @Success      204
// @Failure      400  {object}  response.Response
// @Failure      429  {object}  response.Response
// @Router       /api/track [post]
func (h *AnalyticsHandler) Track(c *gin.Context) {
	var req service.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	_, err := h.analyticsService.Track(c.Request.Context(), req, c.Request.UserAgent(), c.ClientIP())
	switch err {
	case nil:
		c.Status(http.StatusNoContent)
	case service.ErrInvalidEvent, service.ErrInvalidVisitorID:
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	case service.ErrRateLimited:
		c.JSON(http.StatusTooManyRequests, response.Error(http.StatusTooManyRequests, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}

// Login exchanges the admin password for a session token
// @Summary      Admin login
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        payload  body      object{password=string}  true  "Login Payload"
// @Success      200      {object}  response.Response{data=object}
// @Failure      401      {object}  response.Response
// @Router       /api/admin/login [post]
func (h *AnalyticsHandler) Login(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	if err := middleware.CheckAdminPassword(h.adminPassHash, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
		return
	}

	token, err := middleware.IssueAdminToken(h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "failed to issue token"))
		return
	}
	middleware.SetAdminCookie(c, token)

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"token": token}))
}

// Summary returns aggregate traffic figures for a reporting window
// @Summary      Traffic summary
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        window  query     string  false  "Reporting window: 24h, 7d, 30d (default 24h)"
// @Success      200     {object}  response.Response{data=service.SummaryResponse}
// @Failure      500     {object}  response.Response
// @Router       /api/admin/summary [get]
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	summary, err := h.analyticsService.Summary(c.Request.Context(), c.Query("window"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}

// Recent returns a paginated list of recent events
// @Summary      Recent events
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        window  query     string  false  "Reporting window: 24h, 7d, 30d (default 24h)"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20, max 100)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      500     {object}  response.Response
// @Router       /api/admin/recent [get]
func (h *AnalyticsHandler) Recent(c *gin.Context) {
	p := pagination.Parse(c)
	events, err := h.analyticsService.Recent(c.Request.Context(), c.Query("window"), p.Offset, p.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"events": events,
		"page":   p.Page,
		"limit":  p.Limit,
	}))
}

// ExportCSV streams the window's events as CSV
// @Summary      Export events as CSV
// @Tags         admin
// @Security     BearerAuth
// @Produce      text/csv
// @Param        window  query  string  false  "Reporting window: 24h, 7d, 30d (default 24h)"
// @Success      200     {file}  file
// @Failure      500     {object}  response.Response
// @Router       /api/admin/export.csv [get]
func (h *AnalyticsHandler) ExportCSV(c *gin.Context) {
	window := service.NormalizeWindow(c.Query("window"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="events-`+window+`.csv"`)
	c.Status(http.StatusOK)

	if err := h.analyticsService.ExportCSV(c.Request.Context(), c.Writer, window); err != nil {
		// Headers are already out; all we can do is log and cut the stream.
		_ = c.Error(err)
	}
}

// ExportXLSX returns the window's events as a spreadsheet
// @Summary      Export events as XLSX
// @Tags         admin
// @Security     BearerAuth
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        window  query  string  false  "Reporting window: 24h, 7d, 30d (default 24h)"
// @Success      200     {file}  file
// @Failure      500     {object}  response.Response
// @Router       /api/admin/export.xlsx [get]
func (h *AnalyticsHandler) ExportXLSX(c *gin.Context) {
	window := service.NormalizeWindow(c.Query("window"))
	data, err := h.analyticsService.ExportXLSX(c.Request.Context(), window)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="events-`+window+`.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// Cleanup purges events past the retention horizon
// @Summary      Purge old events
// @Description  Requires run=1 to actually delete; without it the endpoint only describes what would happen.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        run  query     string  false  "Set to 1 to confirm deletion"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/admin/cleanup [post]
func (h *AnalyticsHandler) Cleanup(c *gin.Context) {
	confirmed := c.Query("run") == "1"
	deleted, err := h.analyticsService.Cleanup(c.Request.Context(), confirmed)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	if !confirmed {
		c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
			"deleted": 0,
			"hint":    "pass run=1 to delete events past the retention window",
		}))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": deleted}))
}
