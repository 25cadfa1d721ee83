package trends

import (
	"github.com/skuwatch/metrics-service/pkg/registry"
)

// DayFormat is the wire format for calendar days (ISO-8601 date).
const DayFormat = "2006-01-02"

// Window limits for trend queries. Out-of-range values are rejected, not
// clamped; the client performs the same check before dispatch.
const (
	MinDays     = 1
	MaxDays     = 365
	DefaultDays = 30
)

// DataPoint is one day of a trend series: the "date" key plus exactly the
// requested field names, each mapping to the captured value or nil.
type DataPoint map[string]any

// Date returns the point's calendar day.
func (p DataPoint) Date() string {
	d, _ := p["date"].(string)
	return d
}

// TrendQuery is the caller intent for the generic trend operation.
type TrendQuery struct {
	ProductID string
	Fields    []string
	Days      int
}

// TrendResult is the generic trend response. Metadata carries the registry
// entry for every requested field so callers can label axes without a second
// registry round-trip. TotalPoints always equals len(Data).
type TrendResult struct {
	ProductID   string                    `json:"product_id"`
	Days        int                       `json:"days"`
	Metadata    map[string]registry.Field `json:"metadata"`
	Data        []DataPoint               `json:"data"`
	TotalPoints int                       `json:"total_points"`
}

// MetricType names a conventional bundle of fields for one chart dimension.
type MetricType string

const (
	MetricPrice   MetricType = "price"
	MetricBSR     MetricType = "bsr"
	MetricRating  MetricType = "rating"
	MetricReviews MetricType = "reviews"
)

// ComparisonQuery asks how N products compare on one metric dimension.
type ComparisonQuery struct {
	ProductIDs             []string
	MetricType             MetricType
	Days                   int
	IncludeCategoryAverage bool
}

// ProductMetricTrend is one product's series within a comparison. DataPoints
// carry the product's own snapshot dates; no cross-product padding or
// interpolation is applied.
type ProductMetricTrend struct {
	ProductID  string      `json:"product_id"`
	Title      string      `json:"title"`
	ASIN       string      `json:"asin"`
	DataPoints []DataPoint `json:"data_points"`
}

// CategoryPoint is one day of a category aggregate series.
type CategoryPoint struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// ComparisonResult is the multi-product comparison response.
type ComparisonResult struct {
	MetricType      MetricType           `json:"metric_type"`
	Days            int                  `json:"days"`
	Products        []ProductMetricTrend `json:"products"`
	CategoryAverage []CategoryPoint      `json:"category_average,omitempty"`
}

// CategorySeries is the standalone category benchmark response. An unknown
// category yields an empty Points slice, never an error.
type CategorySeries struct {
	Category    string          `json:"category"`
	Field       string          `json:"field"`
	Days        int             `json:"days"`
	Points      []CategoryPoint `json:"points"`
	TotalPoints int             `json:"total_points"`
}

// FieldSummary is one field's slice of a product summary: the latest captured
// value and the relative change against the start of the window.
type FieldSummary struct {
	Current       any      `json:"current"`
	PercentChange *float64 `json:"percent_change"`
}

// Summary is the current-state view of a product across all registry fields.
type Summary struct {
	ProductID  string                  `json:"product_id"`
	ASIN       string                  `json:"asin"`
	Title      string                  `json:"title"`
	Category   string                  `json:"category"`
	AsOf       string                  `json:"as_of"`
	WindowDays int                     `json:"window_days"`
	Fields     map[string]FieldSummary `json:"fields"`
}
