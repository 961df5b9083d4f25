package handler

import (
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	read := middleware.RequireRole(model.RoleAdmin, model.RoleSeller, model.RoleViewer)

	stats := router.Group("/statistics")
	{
		stats.GET("/sales", read, h.Revenue)
		stats.GET("/quotations", read, h.Quotations)
	}
}

// Revenue handles GET /statistics/sales
// @Summary      Revenue statistics
// @Description  Buckets revenue from non-cancelled sales by day, week, or month over a date range
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Param        group_by    query     string  false  "day, week, or month (default month)"
// @Param        start_date  query     string  false  "YYYY-MM-DD (default 1 year ago)"
// @Param        end_date    query     string  false  "YYYY-MM-DD (default today)"
// @Success      200  {object}  response.Response{data=service.RevenueStatistics}
// @Failure      400  {object}  response.Response
// @Router       /statistics/sales [get]
func (h *StatisticsHandler) Revenue(c *gin.Context) {
	endDate := time.Now()
	startDate := endDate.AddDate(-1, 0, 0)

	if raw := c.Query("start_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD"))
			return
		}
		startDate = parsed
	}
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid end_date, expected YYYY-MM-DD"))
			return
		}
		endDate = parsed
	}

	stats, err := h.statisticsService.Revenue(c.Request.Context(), c.Query("group_by"), startDate, endDate)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// Quotations handles GET /statistics/quotations
// @Summary      Quotation statistics
// @Description  Counts quotations per status and derives the draft-to-confirmed conversion rate
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.QuotationStatistics}
// @Router       /statistics/quotations [get]
func (h *StatisticsHandler) Quotations(c *gin.Context) {
	stats, err := h.statisticsService.Quotations(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
