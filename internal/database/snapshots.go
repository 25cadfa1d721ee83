package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skuwatch/metrics-service/pkg/apperrors"
	"github.com/skuwatch/metrics-service/pkg/registry"
	"github.com/skuwatch/metrics-service/pkg/trends"
)

// SnapshotStore is the Postgres-backed trends.SnapshotSource.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a snapshot source over a connection pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Product resolves a tracked product by id.
func (s *SnapshotStore) Product(ctx context.Context, productID string) (trends.ProductInfo, error) {
	p, err := GetProduct(ctx, s.pool, productID)
	if err != nil {
		return trends.ProductInfo{}, err
	}
	return trends.ProductInfo{ID: p.ID, ASIN: p.ASIN, Title: p.Title, Category: p.Category}, nil
}

// DailySeries returns one row per calendar day with a snapshot in the window,
// ascending by date. When a day has multiple snapshots the most recent wins
// (DISTINCT ON the day, ordered by captured_at descending).
func (s *SnapshotStore) DailySeries(ctx context.Context, productID string, fields []string, from, to time.Time) ([]trends.SnapshotRow, error) {
	// Column names come from the closed field registry, never from caller
	// input, so interpolating them is safe.
	entries := make([]registry.Field, 0, len(fields))
	cols := make([]string, 0, len(fields))
	for _, name := range fields {
		f, ok := registry.Lookup(name)
		if !ok {
			return nil, apperrors.Validation("unknown metric field: "+name, name)
		}
		entries = append(entries, f)
		if f.Type == registry.TypeNumeric {
			// Integer-backed metrics scan uniformly as float8.
			cols = append(cols, f.Column+"::float8")
		} else {
			cols = append(cols, f.Column)
		}
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT ON (captured_at::date)
			to_char(captured_at::date, 'YYYY-MM-DD') AS day, %s
		FROM product_snapshots
		WHERE product_id = $1
		  AND captured_at::date BETWEEN $2::date AND $3::date
		ORDER BY captured_at::date ASC, captured_at DESC
	`, strings.Join(cols, ", "))

	rows, err := s.pool.Query(ctx, query, productID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot series: %w", err)
	}
	defer rows.Close()

	var series []trends.SnapshotRow
	for rows.Next() {
		var day string
		targets := make([]any, 0, len(entries)+1)
		targets = append(targets, &day)

		floats := make([]*float64, len(entries))
		bools := make([]*bool, len(entries))
		strs := make([]*string, len(entries))
		for i, f := range entries {
			switch f.Type {
			case registry.TypeBoolean:
				targets = append(targets, &bools[i])
			case registry.TypeString, registry.TypeEnum:
				targets = append(targets, &strs[i])
			default:
				targets = append(targets, &floats[i])
			}
		}

		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		values := make(map[string]any, len(entries))
		for i, f := range entries {
			switch f.Type {
			case registry.TypeBoolean:
				if bools[i] != nil {
					values[f.Name] = *bools[i]
				} else {
					values[f.Name] = nil
				}
			case registry.TypeString, registry.TypeEnum:
				if strs[i] != nil {
					values[f.Name] = *strs[i]
				} else {
					values[f.Name] = nil
				}
			default:
				if floats[i] != nil {
					values[f.Name] = *floats[i]
				} else {
					values[f.Name] = nil
				}
			}
		}
		series = append(series, trends.SnapshotRow{Date: day, Values: values})
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", rows.Err())
	}
	return series, nil
}

// CategoryDailyAverage computes the per-day mean of one numeric field across
// all tracked products in a category, using each product's most recent
// snapshot per day. Unknown categories simply match no rows.
func (s *SnapshotStore) CategoryDailyAverage(ctx context.Context, category, field string, from, to time.Time) ([]trends.CategoryPoint, error) {
	f, ok := registry.Lookup(field)
	if !ok {
		return nil, apperrors.Validation("unknown metric field: "+field, field)
	}
	if f.Type != registry.TypeNumeric {
		return nil, apperrors.Validation("category averages require a numeric field, got "+string(f.Type), field)
	}

	query := fmt.Sprintf(`
		SELECT day, AVG(v)::float8
		FROM (
			SELECT DISTINCT ON (s.product_id, s.captured_at::date)
				to_char(s.captured_at::date, 'YYYY-MM-DD') AS day,
				s.%s::float8 AS v
			FROM product_snapshots s
			JOIN products p ON p.id = s.product_id
			WHERE p.category = $1
			  AND s.captured_at::date BETWEEN $2::date AND $3::date
			ORDER BY s.product_id, s.captured_at::date, s.captured_at DESC
		) daily
		WHERE v IS NOT NULL
		GROUP BY day
		ORDER BY day
	`, f.Column)

	rows, err := s.pool.Query(ctx, query, category, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query category average: %w", err)
	}
	defer rows.Close()

	points := []trends.CategoryPoint{}
	for rows.Next() {
		var p trends.CategoryPoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("failed to scan category point: %w", err)
		}
		points = append(points, p)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating category points: %w", rows.Err())
	}
	return points, nil
}
