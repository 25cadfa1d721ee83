package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skuwatch/metrics-service/pkg/apperrors"
	"github.com/skuwatch/metrics-service/pkg/trends"
)

// CompareProductsRequest represents the comparison request body
type CompareProductsRequest struct {
	ProductIDs             []string `json:"product_ids" binding:"required"`
	MetricType             string   `json:"metric_type" binding:"required"`
	Days                   int      `json:"days"`
	IncludeCategoryAverage bool     `json:"include_category_average"`
}

// CompareProducts compares N products on one metric dimension over time.
// @Summary Compare products on one metric
// @Description Returns each product's series for a metric bundle, optionally with the category average overlay
// @Tags metrics
// @Accept json
// @Produce json
// @Param request body CompareProductsRequest true "Comparison request"
// @Success 200 {object} trends.ComparisonResult
// @Failure 400 {object} ErrorResponse "Empty product list or unknown metric type"
// @Failure 404 {object} ErrorResponse "Product not found"
// @Router /metrics/compare [post]
func CompareProducts(c *gin.Context) {
	var req CompareProductsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("product_ids and metric_type are required"))
		return
	}

	result, err := trendEngine.CompareProducts(c.Request.Context(), trends.ComparisonQuery{
		ProductIDs:             req.ProductIDs,
		MetricType:             trends.MetricType(req.MetricType),
		Days:                   req.Days,
		IncludeCategoryAverage: req.IncludeCategoryAverage,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CategoryTrendRequest represents the category benchmark request body
type CategoryTrendRequest struct {
	CategoryName string `json:"category_name" binding:"required"`
	MetricType   string `json:"metric_type"`
	Days         int    `json:"days"`
}

// GetCategoryTrend returns the per-day category average for one metric.
// An unknown category yields an empty series, not an error.
// @Summary Get a category average trend
// @Description Returns the per-day average of a metric across every tracked product in a category
// @Tags metrics
// @Accept json
// @Produce json
// @Param request body CategoryTrendRequest true "Category trend request"
// @Success 200 {object} trends.CategorySeries
// @Failure 400 {object} ErrorResponse "Missing category or unknown metric type"
// @Router /metrics/category/trend [post]
func GetCategoryTrend(c *gin.Context) {
	var req CategoryTrendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("category_name is required"))
		return
	}

	series, err := trendEngine.CategoryTrend(
		c.Request.Context(),
		req.CategoryName,
		trends.MetricType(req.MetricType),
		req.Days,
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, series)
}
