// Package handlers contains the Gin handlers for the metrics API.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skuwatch/metrics-service/pkg/apperrors"
	"github.com/skuwatch/metrics-service/pkg/trends"
)

// Global trend engine instance (initialized by the application)
var trendEngine *trends.Engine

// Setup wires the trend engine used by all metric handlers.
func Setup(engine *trends.Engine) {
	trendEngine = engine
}

// ErrorResponse is the JSON error body. Kind is machine-readable so clients
// can branch on it; fields lists the offending field names when relevant.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Kind   string   `json:"kind"`
	Fields []string `json:"fields,omitempty"`
}

// respondError renders an error with its taxonomy kind and matching status.
func respondError(c *gin.Context, err error) {
	var e *apperrors.Error
	if errors.As(err, &e) {
		c.JSON(apperrors.HTTPStatus(e.Kind), ErrorResponse{
			Error:  e.Message,
			Kind:   string(e.Kind),
			Fields: e.Fields,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: "internal error",
		Kind:  string(apperrors.KindInternal),
	})
}
