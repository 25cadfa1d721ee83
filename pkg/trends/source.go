package trends

import (
	"context"
	"time"
)

// ProductInfo identifies a tracked product.
type ProductInfo struct {
	ID       string
	ASIN     string
	Title    string
	Category string
}

// SnapshotRow is one calendar day of snapshot data. Values maps field names
// to captured values (float64, bool or string) with nil for fields the scrape
// did not capture. When multiple snapshots exist for the same day the source
// must return the most recent one.
type SnapshotRow struct {
	Date   string
	Values map[string]any
}

// SnapshotSource is the storage abstraction beneath the trend engine. The
// production implementation reads product_snapshots in Postgres; tests use an
// in-memory fake.
type SnapshotSource interface {
	// Product resolves a product by id. Returns an apperrors not-found
	// error when the product does not exist or is not visible to the
	// service.
	Product(ctx context.Context, productID string) (ProductInfo, error)

	// DailySeries returns at most one row per calendar day in [from, to],
	// ascending by date, restricted to days that have at least one
	// snapshot. Rows need only carry the requested fields.
	DailySeries(ctx context.Context, productID string, fields []string, from, to time.Time) ([]SnapshotRow, error)

	// CategoryDailyAverage returns the per-day average of one numeric
	// field across every tracked product in the named category. An
	// unknown category yields an empty slice, not an error.
	CategoryDailyAverage(ctx context.Context, category, field string, from, to time.Time) ([]CategoryPoint, error)
}
