package trends

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/skuwatch/metrics-service/pkg/apperrors"
	"github.com/skuwatch/metrics-service/pkg/registry"
)

// EngineConfig tunes the trend engine.
type EngineConfig struct {
	// CacheTTL bounds how long a trend result may be served from memory.
	// Zero disables caching.
	CacheTTL time.Duration

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time

	// CompareConcurrency caps the per-product fan-out in comparisons.
	CompareConcurrency int
}

// DefaultEngineConfig returns the production engine settings.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		CacheTTL:           5 * time.Minute,
		CompareConcurrency: 8,
	}
}

// Engine answers trend, comparison and summary queries over a SnapshotSource.
// All operations are read-only and idempotent; results are safe to cache by
// (product, sorted fields, days).
type Engine struct {
	source  SnapshotSource
	config  EngineConfig
	cache   *resultCache
	metrics *MetricsRecorder
	logger  zerolog.Logger
}

// NewEngine creates a trend engine over the given snapshot source.
func NewEngine(source SnapshotSource, config EngineConfig) *Engine {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.CompareConcurrency <= 0 {
		config.CompareConcurrency = 8
	}
	return &Engine{
		source:  source,
		config:  config,
		cache:   newResultCache(config.CacheTTL),
		metrics: NewMetricsRecorder(),
		logger:  log.With().Str("component", "trend_engine").Logger(),
	}
}

// window converts a day count into the inclusive [from, to] calendar range
// ending today. A 7-day window covers today and the six days before it.
func (e *Engine) window(days int) (time.Time, time.Time) {
	to := e.config.Now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -(days - 1))
	return from, to
}

func validateDays(days int) error {
	if days < MinDays || days > MaxDays {
		return apperrors.Validation(
			fmt.Sprintf("days must be between %d and %d, got %d", MinDays, MaxDays, days))
	}
	return nil
}

// Trends is the single generalized entry point: any combination of registry
// fields over a time window for one product. Unknown field names fail loudly
// before any data access. Days without a snapshot are omitted from the
// series (sparse, no null padding).
func (e *Engine) Trends(ctx context.Context, q TrendQuery) (*TrendResult, error) {
	startTime := time.Now()
	defer func() {
		e.metrics.RecordQueryDuration("trends", time.Since(startTime))
	}()

	if q.Days == 0 {
		q.Days = DefaultDays
	}
	if err := validateDays(q.Days); err != nil {
		e.metrics.RecordQueryError("trends", apperrors.KindOf(err))
		return nil, err
	}
	if err := registry.Validate(q.Fields); err != nil {
		e.metrics.RecordQueryError("trends", apperrors.KindOf(err))
		return nil, err
	}
	if q.ProductID == "" {
		err := apperrors.Validation("product id is required")
		e.metrics.RecordQueryError("trends", apperrors.KindOf(err))
		return nil, err
	}

	if _, err := e.source.Product(ctx, q.ProductID); err != nil {
		e.metrics.RecordQueryError("trends", apperrors.KindOf(err))
		return nil, err
	}

	result, err := e.trendsFor(ctx, q)
	if err != nil {
		e.metrics.RecordQueryError("trends", apperrors.KindOf(err))
		return nil, err
	}
	return result, nil
}

// trendsFor serves a validated query for a product already known to exist.
// Comparison fan-out calls this directly after resolving the product, so each
// product is looked up exactly once per request.
func (e *Engine) trendsFor(ctx context.Context, q TrendQuery) (*TrendResult, error) {
	key := cacheKey(q.ProductID, q.Fields, q.Days)
	if cached, ok := e.cache.get(key); ok {
		e.metrics.RecordCacheHit()
		return cached, nil
	}
	e.metrics.RecordCacheMiss()

	from, to := e.window(q.Days)
	rows, err := e.source.DailySeries(ctx, q.ProductID, q.Fields, from, to)
	if err != nil {
		return nil, err
	}

	result := &TrendResult{
		ProductID: q.ProductID,
		Days:      q.Days,
		Metadata:  make(map[string]registry.Field, len(q.Fields)),
		Data:      make([]DataPoint, 0, len(rows)),
	}
	for _, name := range q.Fields {
		f, _ := registry.Lookup(name)
		result.Metadata[name] = f
	}

	// Rows from the source may omit fields the scrape never captured;
	// every emitted point carries exactly the requested keys, nil for
	// missing values. Duplicate days collapse to the first occurrence
	// (sources already order same-day snapshots newest first).
	lastDate := ""
	for _, row := range rows {
		if row.Date == lastDate {
			continue
		}
		lastDate = row.Date
		point := DataPoint{"date": row.Date}
		for _, name := range q.Fields {
			v, ok := row.Values[name]
			if !ok {
				point[name] = nil
			} else {
				point[name] = v
			}
		}
		result.Data = append(result.Data, point)
	}
	result.TotalPoints = len(result.Data)

	e.metrics.RecordFieldCount(len(q.Fields))
	e.metrics.RecordSeriesLength(result.TotalPoints)
	e.cache.put(key, result)

	e.logger.Debug().
		Str("product", q.ProductID).
		Strs("fields", q.Fields).
		Int("days", q.Days).
		Int("points", result.TotalPoints).
		Msg("Trend query served")

	return result, nil
}

// Summary returns the latest captured value for every registry field plus the
// relative change against the oldest point inside a 30-day window.
func (e *Engine) Summary(ctx context.Context, productID string) (*Summary, error) {
	startTime := time.Now()
	defer func() {
		e.metrics.RecordQueryDuration("summary", time.Since(startTime))
	}()

	info, err := e.source.Product(ctx, productID)
	if err != nil {
		e.metrics.RecordQueryError("summary", apperrors.KindOf(err))
		return nil, err
	}

	allFields := registry.All()
	names := make([]string, len(allFields))
	for i, f := range allFields {
		names[i] = f.Name
	}

	from, to := e.window(DefaultDays)
	rows, err := e.source.DailySeries(ctx, productID, names, from, to)
	if err != nil {
		e.metrics.RecordQueryError("summary", apperrors.KindOf(err))
		return nil, err
	}

	summary := &Summary{
		ProductID:  info.ID,
		ASIN:       info.ASIN,
		Title:      info.Title,
		Category:   info.Category,
		WindowDays: DefaultDays,
		Fields:     make(map[string]FieldSummary, len(allFields)),
	}
	if len(rows) > 0 {
		summary.AsOf = rows[len(rows)-1].Date
	}

	for _, f := range allFields {
		fs := FieldSummary{}
		if len(rows) > 0 {
			fs.Current = rows[len(rows)-1].Values[f.Name]
		}
		if f.Type == registry.TypeNumeric {
			fs.PercentChange = percentChange(firstValue(rows, f.Name), floatValue(fs.Current))
		}
		summary.Fields[f.Name] = fs
	}

	return summary, nil
}

// firstValue finds the oldest non-nil numeric value for a field.
func firstValue(rows []SnapshotRow, field string) *float64 {
	for _, row := range rows {
		if v := floatValue(row.Values[field]); v != nil {
			return v
		}
	}
	return nil
}

// floatValue coerces a dynamic metric value to a float pointer. Non-numeric
// and nil values map to nil.
func floatValue(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case *float64:
		return n
	case int:
		f := float64(n)
		return &f
	case int64:
		f := float64(n)
		return &f
	case int32:
		f := float64(n)
		return &f
	default:
		return nil
	}
}

// percentChange computes the relative change from a base value. A nil or zero
// base yields nil rather than a division artifact.
func percentChange(base, current *float64) *float64 {
	if base == nil || current == nil || *base == 0 {
		return nil
	}
	change := (*current - *base) / *base * 100
	return &change
}
