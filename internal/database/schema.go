package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the DDL for the snapshot store. Applied by the seed CLI and the
// integration tests; production migrations run through the deploy pipeline.
const Schema = `
CREATE TABLE IF NOT EXISTS products (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	asin       TEXT NOT NULL UNIQUE,
	title      TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS product_snapshots (
	id              BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	product_id      TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	captured_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	price           DOUBLE PRECISION,
	buybox_price    DOUBLE PRECISION,
	original_price  DOUBLE PRECISION,
	coupon_discount DOUBLE PRECISION,
	bsr_main        INTEGER,
	bsr_sub         INTEGER,
	rating          DOUBLE PRECISION,
	review_count    INTEGER,
	in_stock        BOOLEAN,
	stock_level     INTEGER,
	seller_count    INTEGER,
	buybox_seller   TEXT
);

CREATE INDEX IF NOT EXISTS idx_snapshots_product_day
	ON product_snapshots (product_id, captured_at);

CREATE INDEX IF NOT EXISTS idx_products_category
	ON products (category);
`

// Migrate applies the schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
