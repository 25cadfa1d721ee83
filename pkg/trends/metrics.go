package trends

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/skuwatch/metrics-service/pkg/apperrors"
)

var (
	// queryDuration tracks the time taken to serve trend queries by operation.
	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trends_query_duration_seconds",
		Help:    "Time taken to serve a trend query by operation",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"operation"}) // operation: trends, summary, compare, category

	// queryErrors tracks failed queries by operation and error kind.
	queryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trends_query_errors_total",
		Help: "Total number of failed trend queries by operation and kind",
	}, []string{"operation", "kind"})

	// cacheHits tracks trend result cache hits.
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trends_cache_hits_total",
		Help: "Total number of trend cache hits",
	})

	// cacheMisses tracks trend result cache misses.
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trends_cache_misses_total",
		Help: "Total number of trend cache misses",
	})

	// fieldsPerQuery tracks how many fields callers request at once.
	fieldsPerQuery = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trends_fields_per_query",
		Help:    "Number of metric fields requested per trend query",
		Buckets: []float64{1, 2, 3, 5, 8, 12},
	})

	// seriesLength tracks the number of points returned per query.
	seriesLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trends_series_points",
		Help:    "Number of data points returned per trend query",
		Buckets: []float64{0, 7, 30, 90, 180, 365},
	})

	// compareProductCount tracks comparison fan-out sizes.
	compareProductCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trends_compare_products_count",
		Help:    "Number of products per comparison query",
		Buckets: []float64{2, 3, 5, 10, 20},
	})
)

// MetricsRecorder records engine metrics to prometheus.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordQueryDuration records how long a query took.
func (m *MetricsRecorder) RecordQueryDuration(operation string, d time.Duration) {
	queryDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordQueryError counts a failed query.
func (m *MetricsRecorder) RecordQueryError(operation string, kind apperrors.Kind) {
	queryErrors.WithLabelValues(operation, string(kind)).Inc()
}

// RecordCacheHit counts a trend cache hit.
func (m *MetricsRecorder) RecordCacheHit() { cacheHits.Inc() }

// RecordCacheMiss counts a trend cache miss.
func (m *MetricsRecorder) RecordCacheMiss() { cacheMisses.Inc() }

// RecordFieldCount records the number of fields in a query.
func (m *MetricsRecorder) RecordFieldCount(n int) {
	fieldsPerQuery.Observe(float64(n))
}

// RecordSeriesLength records the number of points served.
func (m *MetricsRecorder) RecordSeriesLength(n int) {
	seriesLength.Observe(float64(n))
}

// RecordCompareSize records the comparison fan-out size.
func (m *MetricsRecorder) RecordCompareSize(n int) {
	compareProductCount.Observe(float64(n))
}
