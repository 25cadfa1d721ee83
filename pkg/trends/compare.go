package trends

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skuwatch/metrics-service/pkg/apperrors"
)

// CompareProducts answers how N products compare on one metric dimension over
// time. Each product's series is the metric type's bundle resolved through
// the generic trend path; series keep their own snapshot dates and are never
// padded or interpolated onto a shared axis. When requested, the category
// average of the first product's category rides along as an overlay.
func (e *Engine) CompareProducts(ctx context.Context, q ComparisonQuery) (*ComparisonResult, error) {
	startTime := time.Now()
	defer func() {
		e.metrics.RecordQueryDuration("compare", time.Since(startTime))
	}()

	if len(q.ProductIDs) == 0 {
		err := apperrors.Validation("product_ids must not be empty")
		e.metrics.RecordQueryError("compare", apperrors.KindOf(err))
		return nil, err
	}
	fields, err := BundleFields(q.MetricType)
	if err != nil {
		e.metrics.RecordQueryError("compare", apperrors.KindOf(err))
		return nil, err
	}
	if q.Days == 0 {
		q.Days = DefaultDays
	}
	if err := validateDays(q.Days); err != nil {
		e.metrics.RecordQueryError("compare", apperrors.KindOf(err))
		return nil, err
	}

	e.metrics.RecordCompareSize(len(q.ProductIDs))

	result := &ComparisonResult{
		MetricType: q.MetricType,
		Days:       q.Days,
		Products:   make([]ProductMetricTrend, len(q.ProductIDs)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.CompareConcurrency)

	for i, productID := range q.ProductIDs {
		i, productID := i, productID
		g.Go(func() error {
			info, err := e.source.Product(gctx, productID)
			if err != nil {
				return err
			}
			trend, err := e.trendsFor(gctx, TrendQuery{ProductID: productID, Fields: fields, Days: q.Days})
			if err != nil {
				return err
			}
			result.Products[i] = ProductMetricTrend{
				ProductID:  info.ID,
				Title:      info.Title,
				ASIN:       info.ASIN,
				DataPoints: trend.Data,
			}
			return nil
		})
	}

	if q.IncludeCategoryAverage {
		g.Go(func() error {
			info, err := e.source.Product(gctx, q.ProductIDs[0])
			if err != nil {
				return err
			}
			from, to := e.window(q.Days)
			avg, err := e.source.CategoryDailyAverage(gctx, info.Category, primaryBundleField[q.MetricType], from, to)
			if err != nil {
				return err
			}
			result.CategoryAverage = avg
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.metrics.RecordQueryError("compare", apperrors.KindOf(err))
		return nil, err
	}
	return result, nil
}

// CategoryTrend returns the per-day average of a metric type's primary field
// across every tracked product in the named category. An unknown category is
// "no data", not a fault: the result carries an empty series.
func (e *Engine) CategoryTrend(ctx context.Context, category string, metricType MetricType, days int) (*CategorySeries, error) {
	startTime := time.Now()
	defer func() {
		e.metrics.RecordQueryDuration("category", time.Since(startTime))
	}()

	if category == "" {
		err := apperrors.Validation("category_name is required")
		e.metrics.RecordQueryError("category", apperrors.KindOf(err))
		return nil, err
	}
	if metricType == "" {
		metricType = MetricPrice
	}
	field, ok := primaryBundleField[metricType]
	if !ok {
		err := apperrors.Validation("unknown metric type " + string(metricType))
		e.metrics.RecordQueryError("category", apperrors.KindOf(err))
		return nil, err
	}
	if days == 0 {
		days = DefaultDays
	}
	if err := validateDays(days); err != nil {
		e.metrics.RecordQueryError("category", apperrors.KindOf(err))
		return nil, err
	}

	from, to := e.window(days)
	points, err := e.source.CategoryDailyAverage(ctx, category, field, from, to)
	if err != nil {
		e.metrics.RecordQueryError("category", apperrors.KindOf(err))
		return nil, err
	}
	if points == nil {
		points = []CategoryPoint{}
	}

	return &CategorySeries{
		Category:    category,
		Field:       field,
		Days:        days,
		Points:      points,
		TotalPoints: len(points),
	}, nil
}
