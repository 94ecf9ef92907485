package handler

import (
	"net/http"
	"time"

	"backoffice/internal/middleware"
	"backoffice/internal/service"
	"backoffice/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/api/reports")
	reports.Use(middleware.RequireManage())
	{
		reports.GET("/settlement", h.Settlement)
	}
}

// Settlement handles GET /api/reports/settlement
// @Summary      Settlement report
// @Description  Aggregates takings, refunds and tips per period, optionally converted to another currency
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        group_by  query     string  false  "Grouping: day, week, month, quarter (default day)"
// @Param        from      query     string  true   "Window start (RFC3339)"
// @Param        to        query     string  true   "Window end (RFC3339)"
// @Param        currency  query     string  false  "Target currency (default: business currency)"
// @Success      200       {object}  response.Response{data=[]service.SettlementDataPoint}
// @Failure      400       {object}  response.Response
// @Router       /api/reports/settlement [get]
func (h *ReportHandler) Settlement(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid 'from' parameter, expected RFC3339"))
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid 'to' parameter, expected RFC3339"))
		return
	}

	points, err := h.reportService.SettlementReport(c.Request.Context(), actor, service.SettlementFilter{
		GroupBy:  c.DefaultQuery("group_by", "day"),
		From:     from,
		To:       to,
		Currency: c.Query("currency"),
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, points))
}
