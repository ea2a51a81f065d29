package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/core/export"
	"github.com/MuhamadAgungGumelar/stock-delivery-be/internal/modules/delivery/services"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetStats godoc
// @Summary Dashboard statistics
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.DashboardStats
// @Router /api/dashboard [get]
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.dashboardService.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// ExportOrders godoc
// @Summary Export orders report
// @Description Orders created in [from, to) as an Excel workbook or PDF. Defaults to the last 30 days.
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "excel or pdf" default(excel)
// @Param from query string false "Start (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "End, exclusive (RFC3339 or YYYY-MM-DD)"
// @Success 200 {file} file
// @Failure 400 {object} map[string]interface{}
// @Router /api/reports/orders [get]
func (h *ReportHandler) ExportOrders(c *fiber.Ctx) error {
	format, err := export.ParseFormat(c.Query("format", "excel"))
	if err != nil {
		return badRequest(c, err.Error())
	}

	from, err := queryTime(c, "from")
	if err != nil {
		return badRequest(c, "Invalid from date")
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return badRequest(c, "Invalid to date")
	}
	if to == nil {
		now := time.Now()
		to = &now
	}
	if from == nil {
		start := to.AddDate(0, 0, -30)
		from = &start
	}

	doc, err := h.reportService.RenderOrdersReport(c.UserContext(), *from, *to, format)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, doc.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Filename))
	return c.Send(doc.Data)
}
