package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skuwatch/metrics-service/internal/database"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// HealthCheck handles the health check endpoint
// @Summary Health check
// @Description Reports process liveness and database connectivity
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse "Database unreachable"
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status: "ok",
	}

	// Check database connection
	if database.Pool() != nil {
		err := database.Status(c.Request.Context())
		if err != nil {
			response.Database = "disconnected"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		response.Database = "connected"
	} else {
		response.Database = "not configured"
	}

	c.JSON(http.StatusOK, response)
}
