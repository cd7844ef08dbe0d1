package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	revenueapp "github.com/athlo/dashboard/internal/application/revenue"
	"github.com/athlo/dashboard/internal/domain/revenue"
)

// RevenueHandler serves the revenue dashboard API
type RevenueHandler struct {
	BaseHandler
	view   *revenueapp.ViewService
	chart  *revenueapp.ChartService
	export *revenueapp.ExportService
}

// NewRevenueHandler creates a new RevenueHandler
func NewRevenueHandler(view *revenueapp.ViewService, chart *revenueapp.ChartService, export *revenueapp.ExportService) *RevenueHandler {
	return &RevenueHandler{
		view:   view,
		chart:  chart,
		export: export,
	}
}

// GetSnapshot applies the bound filter and returns the resulting snapshot.
// Invalid filter combinations are rejected before any request is dispatched.
func (h *RevenueHandler) GetSnapshot(c *gin.Context) {
	var req SnapshotFilterRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid filter parameters: "+err.Error())
		return
	}

	filter, err := h.buildFilter(req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	snap, err := h.view.ApplyFilter(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toSnapshotResponse(snap, h.view.Degraded(), h.view.Chips()))
}

// GetChips returns the active filter chips
func (h *RevenueHandler) GetChips(c *gin.Context) {
	h.Success(c, toChipResponses(h.view.Chips()))
}

// RemoveChip resets one filter dimension and refetches exactly once
func (h *RevenueHandler) RemoveChip(c *gin.Context) {
	kind := revenue.ChipKind(c.Param("kind"))
	switch kind {
	case revenue.ChipSource, revenue.ChipBucket, revenue.ChipUserType,
		revenue.ChipQuery, revenue.ChipAmount, revenue.ChipDateRange:
	default:
		h.BadRequest(c, "unknown chip kind: "+string(kind))
		return
	}

	snap, err := h.view.RemoveChip(c.Request.Context(), kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toSnapshotResponse(snap, h.view.Degraded(), h.view.Chips()))
}

// GetChart returns the normalized chart geometry for the current snapshot.
// An optional hover index anchors a tooltip; a pinned date survives hovers.
func (h *RevenueHandler) GetChart(c *gin.Context) {
	var req ChartRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "invalid chart parameters: "+err.Error())
		return
	}

	snap := h.view.Current()
	if snap == nil {
		h.HandleError(c, revenue.ErrNoSnapshot)
		return
	}

	points := revenueapp.Normalize(snap.Daily)

	var tooltip *revenueapp.TooltipAnchor
	if req.Hover != nil {
		if anchor, ok := h.chart.Hover(snap.Daily, *req.Hover); ok {
			tooltip = &anchor
		}
	}

	h.Success(c, toChartResponse(points, tooltip, h.chart.Pinned()))
}

// PinChart toggles the pinned chart date. Pinning the already-pinned date
// clears the pin.
func (h *RevenueHandler) PinChart(c *gin.Context) {
	var req PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "invalid pin request: "+err.Error())
		return
	}

	date, err := time.Parse(dayLayout, req.Date)
	if err != nil {
		h.BadRequest(c, fmt.Sprintf("date must be formatted as %s", dayLayout))
		return
	}

	var pinned *string
	if p := h.chart.TogglePin(date); p != nil {
		formatted := p.Format(dayLayout)
		pinned = &formatted
	}

	h.Success(c, gin.H{"pinned": pinned})
}

// Refresh refetches the current filter. Manual refreshes are never silent:
// a failure is reported to the caller.
func (h *RevenueHandler) Refresh(c *gin.Context) {
	if err := h.view.Refresh(c.Request.Context(), false); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, RefreshResponse{
		FetchedAt: h.view.LastFetchedAt().Format(time.RFC3339),
		Degraded:  h.view.Degraded(),
	})
}

// Export streams the current snapshot as a downloadable report file
func (h *RevenueHandler) Export(c *gin.Context) {
	var result *revenueapp.ExportResult
	var err error

	switch format := c.DefaultQuery("format", "csv"); format {
	case "csv":
		result, err = h.export.ExportText()
	case "xlsx":
		result, err = h.export.ExportWorkbook()
	default:
		h.BadRequest(c, "unsupported export format: "+format)
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}

// buildFilter maps the bound request onto an immutable filter state
func (h *RevenueHandler) buildFilter(req SnapshotFilterRequest) (revenue.FilterState, error) {
	filter := revenue.DefaultFilter()
	if req.Source != "" {
		filter = filter.WithSource(revenue.Source(req.Source))
	}
	if req.Bucket != "" {
		filter = filter.WithBucket(revenue.Bucket(req.Bucket))
	}
	if req.UserType != "" {
		filter = filter.WithUserType(revenue.UserType(req.UserType))
	}
	if req.Query != "" {
		filter = filter.WithQuery(req.Query)
	}
	if req.DateRange != "" {
		filter = filter.WithDateRange(req.DateRange)
	}

	min, err := parseAmount(req.MinAmount)
	if err != nil {
		return revenue.FilterState{}, err
	}
	max, err := parseAmount(req.MaxAmount)
	if err != nil {
		return revenue.FilterState{}, err
	}
	if min != nil || max != nil {
		filter = filter.WithAmountRange(min, max)
	}
	return filter, nil
}

func parseAmount(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q is not a valid decimal", revenue.ErrInvalidFilter, s)
	}
	return &d, nil
}

// RegisterRoutes mounts the revenue dashboard routes on the given group
func (h *RevenueHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rev := rg.Group("/revenue")
	{
		rev.GET("/snapshot", h.GetSnapshot)
		rev.GET("/chips", h.GetChips)
		rev.DELETE("/chips/:kind", h.RemoveChip)
		rev.GET("/chart", h.GetChart)
		rev.POST("/chart/pin", h.PinChart)
		rev.POST("/refresh", h.Refresh)
		rev.GET("/export", h.Export)
	}
}
