package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/skuwatch/metrics-service/pkg/apperrors"
	"github.com/skuwatch/metrics-service/pkg/trends"
)

const exportSheet = "Trends"

// ExportTrends streams a trend query as an xlsx workbook: one row per day,
// one column per requested field, display names in the header row.
// @Summary Export a trend series as xlsx
// @Description Streams the trend series as a spreadsheet attachment, one row per day and one column per field
// @Tags metrics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Product ID"
// @Param fields query string true "Comma-joined metric field names"
// @Param days query int false "Time window in days" default(30) minimum(1) maximum(365)
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponse "Unknown field or invalid window"
// @Failure 404 {object} ErrorResponse "Product not found"
// @Router /metrics/products/{id}/trends/export [get]
func ExportTrends(c *gin.Context) {
	productID := c.Param("id")

	var req GetTrendsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondError(c, bindQueryError(c))
		return
	}
	fields := splitFields(req.Fields)

	result, err := trendEngine.Trends(c.Request.Context(), trends.TrendQuery{
		ProductID: productID,
		Fields:    fields,
		Days:      req.Days,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		respondError(c, apperrors.Internal("failed to build workbook", err))
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	// Header row: date first, then fields in request order.
	headers := []string{"Date"}
	for _, name := range fields {
		headers = append(headers, result.Metadata[name].DisplayName)
	}
	for col, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(exportSheet, cell, h)
	}

	for rowIdx, point := range result.Data {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		f.SetCellValue(exportSheet, cell, point.Date())
		for colIdx, name := range fields {
			cell, _ := excelize.CoordinatesToCellName(colIdx+2, rowIdx+2)
			if v := point[name]; v != nil {
				f.SetCellValue(exportSheet, cell, v)
			}
		}
	}

	filename := fmt.Sprintf("trends_%s_%dd.xlsx", productID, result.Days)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Status(http.StatusOK)

	if err := f.Write(c.Writer); err != nil {
		// Headers already sent; log rather than emit a broken JSON body.
		log.Error().Err(err).Str("product", productID).Msg("Failed to stream xlsx export")
	}
}
