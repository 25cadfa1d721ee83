package trends

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skuwatch/metrics-service/pkg/apperrors"
)

func TestCompareProducts(t *testing.T) {
	mock := newMockSnapshotSource()
	mock.addProduct("p1", "B000TEST01", "Widget A", "widgets")
	mock.addProduct("p2", "B000TEST02", "Widget B", "widgets")
	mock.addRow("p1", "2024-03-05", map[string]any{"price": 10.0, "buybox_price": 9.5})
	mock.addRow("p1", "2024-03-06", map[string]any{"price": 11.0})
	mock.addRow("p2", "2024-03-06", map[string]any{"price": 20.0})

	engine := newTestEngine(mock, "2024-03-07")

	result, err := engine.CompareProducts(context.Background(), ComparisonQuery{
		ProductIDs: []string{"p1", "p2"},
		MetricType: MetricPrice,
		Days:       7,
	})
	require.NoError(t, err)

	assert.Equal(t, MetricPrice, result.MetricType)
	assert.Equal(t, 7, result.Days)
	require.Len(t, result.Products, 2)

	// Input order is preserved regardless of fan-out completion order.
	assert.Equal(t, "p1", result.Products[0].ProductID)
	assert.Equal(t, "Widget A", result.Products[0].Title)
	assert.Equal(t, "B000TEST01", result.Products[0].ASIN)
	assert.Equal(t, "p2", result.Products[1].ProductID)

	// Each product keeps its own snapshot dates; no shared axis.
	require.Len(t, result.Products[0].DataPoints, 2)
	require.Len(t, result.Products[1].DataPoints, 1)
	assert.Equal(t, "2024-03-06", result.Products[1].DataPoints[0].Date())

	assert.Nil(t, result.CategoryAverage)
}

func TestCompareProductsRejectsEmptyIDs(t *testing.T) {
	mock := newMockSnapshotSource()
	engine := newTestEngine(mock, "2024-03-07")

	_, err := engine.CompareProducts(context.Background(), ComparisonQuery{
		ProductIDs: []string{},
		MetricType: MetricPrice,
		Days:       30,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	// The rejection happens before any source access.
	assert.Equal(t, 0, mock.seriesHit)
}

func TestCompareProductsResolvesEachProductOnce(t *testing.T) {
	mock := newMockSnapshotSource()
	mock.addProduct("p1", "B000TEST01", "Widget A", "widgets")
	mock.addProduct("p2", "B000TEST02", "Widget B", "widgets")
	mock.addRow("p1", "2024-03-06", map[string]any{"price": 11.0})
	mock.addRow("p2", "2024-03-06", map[string]any{"price": 20.0})

	engine := newTestEngine(mock, "2024-03-07")

	_, err := engine.CompareProducts(context.Background(), ComparisonQuery{
		ProductIDs: []string{"p1", "p2"},
		MetricType: MetricPrice,
		Days:       7,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, mock.productHit)
	assert.Equal(t, 2, mock.seriesHit)
}

func TestCompareProductsRejectsUnknownMetricType(t *testing.T) {
	engine := newTestEngine(newMockSnapshotSource(), "2024-03-07")

	_, err := engine.CompareProducts(context.Background(), ComparisonQuery{
		ProductIDs: []string{"p1"},
		MetricType: MetricType("velocity"),
		Days:       30,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestCompareProductsUnknownProductFailsWhole(t *testing.T) {
	mock := newMockSnapshotSource()
	mock.addProduct("p1", "B000TEST01", "Widget A", "widgets")

	engine := newTestEngine(mock, "2024-03-07")

	_, err := engine.CompareProducts(context.Background(), ComparisonQuery{
		ProductIDs: []string{"p1", "ghost"},
		MetricType: MetricPrice,
		Days:       7,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}

func TestCompareProductsCategoryOverlay(t *testing.T) {
	mock := newMockSnapshotSource()
	mock.addProduct("p1", "B000TEST01", "Widget A", "widgets")
	mock.addRow("p1", "2024-03-06", map[string]any{"price": 11.0})
	mock.averages["widgets"] = []CategoryPoint{
		{Date: "2024-03-05", Value: floatp(14.2)},
		{Date: "2024-03-06", Value: floatp(14.8)},
	}

	engine := newTestEngine(mock, "2024-03-07")

	result, err := engine.CompareProducts(context.Background(), ComparisonQuery{
		ProductIDs:             []string{"p1"},
		MetricType:             MetricPrice,
		Days:                   7,
		IncludeCategoryAverage: true,
	})
	require.NoError(t, err)

	require.Len(t, result.CategoryAverage, 2)
	assert.Equal(t, "2024-03-05", result.CategoryAverage[0].Date)
	require.NotNil(t, result.CategoryAverage[1].Value)
	assert.Equal(t, 14.8, *result.CategoryAverage[1].Value)
}

func TestCategoryTrend(t *testing.T) {
	mock := newMockSnapshotSource()
	mock.averages["widgets"] = []CategoryPoint{
		{Date: "2024-03-06", Value: floatp(14.8)},
	}

	engine := newTestEngine(mock, "2024-03-07")

	series, err := engine.CategoryTrend(context.Background(), "widgets", MetricBSR, 7)
	require.NoError(t, err)

	assert.Equal(t, "widgets", series.Category)
	assert.Equal(t, "bsr_main", series.Field)
	assert.Equal(t, 7, series.Days)
	assert.Equal(t, 1, series.TotalPoints)
}

func TestCategoryTrendUnknownCategory(t *testing.T) {
	engine := newTestEngine(newMockSnapshotSource(), "2024-03-07")

	// Unknown category is no data, not an error.
	series, err := engine.CategoryTrend(context.Background(), "does-not-exist", MetricPrice, 30)
	require.NoError(t, err)
	require.NotNil(t, series.Points)
	assert.Empty(t, series.Points)
	assert.Equal(t, 0, series.TotalPoints)
}

func TestCategoryTrendRequiresCategory(t *testing.T) {
	engine := newTestEngine(newMockSnapshotSource(), "2024-03-07")

	_, err := engine.CategoryTrend(context.Background(), "", MetricPrice, 30)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
}

func TestCategoryTrendDefaultsMetricType(t *testing.T) {
	engine := newTestEngine(newMockSnapshotSource(), "2024-03-07")

	series, err := engine.CategoryTrend(context.Background(), "widgets", "", 0)
	require.NoError(t, err)
	assert.Equal(t, "price", series.Field)
	assert.Equal(t, DefaultDays, series.Days)
}
