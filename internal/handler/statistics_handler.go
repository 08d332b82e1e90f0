package handler

import (
	"net/http"
	"time"

	"github.com/chahe-dridi/prelevements-backend/internal/middleware"
	"github.com/chahe-dridi/prelevements-backend/internal/service"
	"github.com/chahe-dridi/prelevements-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/api/statistics", middleware.RequireAdmin(), h.GetStatistics)
}

// GetStatistics returns dashboard aggregates for a time range
// @Summary      Spending statistics
// @Description  Request counts, paid totals, category spend and item rankings; defaults to the current month
// @Tags         statistics
// @Produce      json
// @Security     BearerAuth
// @Param        start_date  query     string  false  "RFC3339 start of range"
// @Param        end_date    query     string  false  "RFC3339 end of range"
// @Success      200         {object}  response.Response{data=model.StatisticsResponse}
// @Failure      400         {object}  response.Response
// @Router       /api/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	now := time.Now()
	startDate := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	endDate := now

	if s := c.Query("start_date"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid start_date, expected RFC3339"))
			return
		}
		startDate = parsed
	}
	if s := c.Query("end_date"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid end_date, expected RFC3339"))
			return
		}
		endDate = parsed
	}

	if endDate.Before(startDate) {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "end_date must not precede start_date"))
		return
	}

	stats, err := h.statisticsService.GetStatistics(c.Request.Context(), startDate, endDate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
