package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/skuwatch/metrics-service/pkg/apperrors"
	"github.com/skuwatch/metrics-service/pkg/trends"
)

// GetTrendsRequest represents query parameters for the generic trend endpoint
type GetTrendsRequest struct {
	Fields string `form:"fields" binding:"required"`
	Days   int    `form:"days"`
}

// GetTrends returns any combination of metric fields over a time window.
// @Summary Query a product trend series
// @Description Returns a sparse daily series of the requested metric fields; days without a snapshot are omitted
// @Tags metrics
// @Produce json
// @Param id path string true "Product ID"
// @Param fields query string true "Comma-joined metric field names"
// @Param days query int false "Time window in days" default(30) minimum(1) maximum(365)
// @Success 200 {object} trends.TrendResult
// @Failure 400 {object} ErrorResponse "Unknown field or invalid window"
// @Failure 404 {object} ErrorResponse "Product not found"
// @Router /metrics/products/{id}/trends [get]
func GetTrends(c *gin.Context) {
	productID := c.Param("id")

	var req GetTrendsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, bindQueryError(c))
		return
	}

	fields := splitFields(req.Fields)
	if len(fields) == 0 {
		respondError(c, apperrors.Validation("at least one field is required"))
		return
	}

	result, err := trendEngine.Trends(c.Request.Context(), trends.TrendQuery{
		ProductID: productID,
		Fields:    fields,
		Days:      req.Days,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetMetricsSummary returns the latest value of every registry field plus the
// change over the trailing window.
// @Summary Get a product metrics summary
// @Description Returns the most recent value and trailing 30-day change for every metric field
// @Tags metrics
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} trends.Summary
// @Failure 404 {object} ErrorResponse "Product not found"
// @Router /metrics/products/{id}/summary [get]
func GetMetricsSummary(c *gin.Context) {
	summary, err := trendEngine.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// bindQueryError names which trend query parameter failed to bind. The only
// two ways binding fails are a missing fields parameter and a non-integer
// days value.
func bindQueryError(c *gin.Context) error {
	if c.Query("fields") == "" {
		return apperrors.Validation("fields query parameter is required")
	}
	return apperrors.Validation("days query parameter must be an integer, got " + c.Query("days"))
}

// splitFields parses the comma-joined fields parameter, dropping empty
// segments but never unknown names (the engine rejects those loudly).
func splitFields(raw string) []string {
	parts := strings.Split(raw, ",")
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			fields = append(fields, p)
		}
	}
	return fields
}
