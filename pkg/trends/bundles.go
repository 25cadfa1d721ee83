package trends

import (
	"context"
	"fmt"
	"math"

	"github.com/skuwatch/metrics-service/pkg/apperrors"
)

// Bundle field sets. Bundles exist for caller ergonomics only: every bundle
// operation is a pure reshape over Trends, never a separate query path, so
// the two can never disagree on underlying data.
var bundleFields = map[MetricType][]string{
	MetricPrice:   {"price", "buybox_price", "original_price"},
	MetricBSR:     {"bsr_main", "bsr_sub"},
	MetricRating:  {"rating"},
	MetricReviews: {"rating", "review_count"},
}

// primaryBundleField names the field used for category benchmarking of each
// metric type.
var primaryBundleField = map[MetricType]string{
	MetricPrice:   "price",
	MetricBSR:     "bsr_main",
	MetricRating:  "rating",
	MetricReviews: "review_count",
}

// BundleFields returns the field set behind a metric type.
func BundleFields(t MetricType) ([]string, error) {
	fields, ok := bundleFields[t]
	if !ok {
		return nil, apperrors.Validation(fmt.Sprintf("unknown metric type %q", t))
	}
	out := make([]string, len(fields))
	copy(out, fields)
	return out, nil
}

// PricePoint is one day of the price bundle.
type PricePoint struct {
	Date          string   `json:"date"`
	Price         *float64 `json:"price"`
	BuyboxPrice   *float64 `json:"buybox_price"`
	OriginalPrice *float64 `json:"original_price"`
}

// PriceTrend runs the price bundle: the generic trend for the canonical price
// fields reshaped into typed rows.
func (e *Engine) PriceTrend(ctx context.Context, productID string, days int) ([]PricePoint, error) {
	result, err := e.Trends(ctx, TrendQuery{ProductID: productID, Fields: bundleFields[MetricPrice], Days: days})
	if err != nil {
		return nil, err
	}
	points := make([]PricePoint, 0, len(result.Data))
	for _, row := range result.Data {
		points = append(points, PricePoint{
			Date:          row.Date(),
			Price:         floatValue(row["price"]),
			BuyboxPrice:   floatValue(row["buybox_price"]),
			OriginalPrice: floatValue(row["original_price"]),
		})
	}
	return points, nil
}

// BSRPoint is one day of the best-sellers rank bundle.
type BSRPoint struct {
	Date    string `json:"date"`
	BSRMain *int   `json:"bsr_main"`
	BSRSub  *int   `json:"bsr_sub"`
}

// BSRTrend runs the rank bundle over the generic trend.
func (e *Engine) BSRTrend(ctx context.Context, productID string, days int) ([]BSRPoint, error) {
	result, err := e.Trends(ctx, TrendQuery{ProductID: productID, Fields: bundleFields[MetricBSR], Days: days})
	if err != nil {
		return nil, err
	}
	points := make([]BSRPoint, 0, len(result.Data))
	for _, row := range result.Data {
		points = append(points, BSRPoint{
			Date:    row.Date(),
			BSRMain: intValue(row["bsr_main"]),
			BSRSub:  intValue(row["bsr_sub"]),
		})
	}
	return points, nil
}

// ReviewPoint is one day of the review bundle.
type ReviewPoint struct {
	Date        string   `json:"date"`
	Rating      *float64 `json:"rating"`
	ReviewCount *int     `json:"review_count"`
}

// ReviewTrend runs the review bundle over the generic trend.
func (e *Engine) ReviewTrend(ctx context.Context, productID string, days int) ([]ReviewPoint, error) {
	result, err := e.Trends(ctx, TrendQuery{ProductID: productID, Fields: bundleFields[MetricReviews], Days: days})
	if err != nil {
		return nil, err
	}
	points := make([]ReviewPoint, 0, len(result.Data))
	for _, row := range result.Data {
		points = append(points, ReviewPoint{
			Date:        row.Date(),
			Rating:      floatValue(row["rating"]),
			ReviewCount: intValue(row["review_count"]),
		})
	}
	return points, nil
}

// intValue coerces a dynamic metric value to an int pointer, rounding
// fractional inputs. Nil and non-numeric values map to nil.
func intValue(v any) *int {
	f := floatValue(v)
	if f == nil {
		return nil
	}
	n := int(math.Round(*f))
	return &n
}
