package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skuwatch/metrics-service/pkg/registry"
)

// FieldDescriptor is one discoverable metric field.
type FieldDescriptor struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

// AvailableFieldsResponse groups the registry by category for UI discovery.
// TotalFields always equals the sum of the per-category list lengths.
type AvailableFieldsResponse struct {
	Categories  map[string][]FieldDescriptor `json:"categories"`
	TotalFields int                          `json:"total_fields"`
}

// ListAvailableFields returns the field registry grouped for discovery.
// The result is stable for a deployment and safe to cache.
// @Summary List available metric fields
// @Description Returns every queryable metric field grouped by category, for chart builders and field pickers
// @Tags metrics
// @Produce json
// @Success 200 {object} AvailableFieldsResponse
// @Router /metrics/fields/available [get]
func ListAvailableFields(c *gin.Context) {
	names, grouped := registry.Categories()

	response := AvailableFieldsResponse{
		Categories: make(map[string][]FieldDescriptor, len(names)),
	}
	for _, category := range names {
		descriptors := make([]FieldDescriptor, 0, len(grouped[category]))
		for _, f := range grouped[category] {
			descriptors = append(descriptors, FieldDescriptor{
				Name:        f.Name,
				DisplayName: f.DisplayName,
				Description: f.Description,
				Type:        string(f.Type),
			})
		}
		response.Categories[category] = descriptors
		response.TotalFields += len(descriptors)
	}

	c.JSON(http.StatusOK, response)
}
