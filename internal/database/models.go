package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skuwatch/metrics-service/pkg/apperrors"
)

// Product is a tracked Amazon listing.
type Product struct {
	ID        string    `json:"id"`
	ASIN      string    `json:"asin"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is one scrape of a product's observable attributes. Nil pointers
// mean the scrape did not capture that attribute.
type Snapshot struct {
	ProductID      string    `json:"product_id"`
	CapturedAt     time.Time `json:"captured_at"`
	Price          *float64  `json:"price"`
	BuyboxPrice    *float64  `json:"buybox_price"`
	OriginalPrice  *float64  `json:"original_price"`
	CouponDiscount *float64  `json:"coupon_discount"`
	BSRMain        *float64  `json:"bsr_main"`
	BSRSub         *float64  `json:"bsr_sub"`
	Rating         *float64  `json:"rating"`
	ReviewCount    *float64  `json:"review_count"`
	InStock        *bool     `json:"in_stock"`
	StockLevel     *float64  `json:"stock_level"`
	SellerCount    *float64  `json:"seller_count"`
	BuyboxSeller   *string   `json:"buybox_seller"`
}

// GetProduct fetches a product by id.
func GetProduct(ctx context.Context, pool *pgxpool.Pool, id string) (*Product, error) {
	var p Product
	err := pool.QueryRow(ctx, `
		SELECT id, asin, title, category, created_at
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.ASIN, &p.Title, &p.Category, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound(fmt.Sprintf("product %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}
	return &p, nil
}

// CreateProduct inserts a product, returning the generated id. Existing
// products with the same ASIN are left untouched and their id returned.
func CreateProduct(ctx context.Context, pool *pgxpool.Pool, asin, title, category string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, `
		INSERT INTO products (asin, title, category)
		VALUES ($1, $2, $3)
		ON CONFLICT (asin) DO UPDATE SET title = EXCLUDED.title
		RETURNING id
	`, asin, title, category).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to create product: %w", err)
	}
	return id, nil
}

// InsertSnapshot records one scrape. Multiple snapshots per product per day
// are allowed; the trend engine tie-breaks to the most recent.
func InsertSnapshot(ctx context.Context, pool *pgxpool.Pool, s *Snapshot) error {
	capturedAt := s.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}
	_, err := pool.Exec(ctx, `
		INSERT INTO product_snapshots (
			product_id, captured_at,
			price, buybox_price, original_price, coupon_discount,
			bsr_main, bsr_sub, rating, review_count,
			in_stock, stock_level, seller_count, buybox_seller
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		s.ProductID, capturedAt,
		s.Price, s.BuyboxPrice, s.OriginalPrice, s.CouponDiscount,
		s.BSRMain, s.BSRSub, s.Rating, s.ReviewCount,
		s.InStock, s.StockLevel, s.SellerCount, s.BuyboxSeller,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// DeleteSnapshotsBefore prunes snapshots older than the cutoff. Returns the
// number of rows removed.
func DeleteSnapshotsBefore(ctx context.Context, pool *pgxpool.Pool, cutoff time.Time) (int64, error) {
	tag, err := pool.Exec(ctx, `
		DELETE FROM product_snapshots
		WHERE captured_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
