package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/skuwatch/metrics-service/internal/database"
	"github.com/skuwatch/metrics-service/pkg/apperrors"
)

// IngestSnapshotRequest is one scraped product snapshot. Absent metric values
// stay nil and surface as nulls in later trend queries.
type IngestSnapshotRequest struct {
	ProductID      string    `json:"product_id" binding:"required"`
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

// IngestSnapshotResponse acknowledges a stored snapshot.
type IngestSnapshotResponse struct {
	Status     string `json:"status"`
	ProductID  string `json:"product_id"`
	CapturedAt string `json:"captured_at"`
}

// IngestSnapshot stores one scraper-fleet snapshot. Same-day duplicates are
// allowed; trend queries tie-break to the most recent snapshot of the day.
// @Summary Ingest a product snapshot
// @Description Stores one scraped snapshot; absent metric values stay null in later trend queries
// @Tags ingestion
// @Accept json
// @Produce json
// @Param request body IngestSnapshotRequest true "Snapshot"
// @Success 201 {object} IngestSnapshotResponse
// @Failure 400 {object} ErrorResponse "Missing product_id or out-of-range rating"
// @Failure 404 {object} ErrorResponse "Product not found"
// @Router /internal/snapshots [post]
func IngestSnapshot(c *gin.Context) {
	var req IngestSnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.Validation("product_id is required"))
		return
	}

	if req.Rating != nil && (*req.Rating < 0 || *req.Rating > 5) {
		respondError(c, apperrors.Validation("rating must be between 0 and 5", "rating"))
		return
	}

	ctx := c.Request.Context()
	pool := database.Pool()

	// Reject snapshots for unknown products up front so scraper bugs
	// surface as 404s instead of orphaned rows.
	if _, err := database.GetProduct(ctx, pool, req.ProductID); err != nil {
		respondError(c, err)
		return
	}

	capturedAt := req.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}

	snapshot := &database.Snapshot{
		ProductID:      req.ProductID,
		CapturedAt:     capturedAt,
		Price:          req.Price,
		BuyboxPrice:    req.BuyboxPrice,
		OriginalPrice:  req.OriginalPrice,
		CouponDiscount: req.CouponDiscount,
		BSRMain:        req.BSRMain,
		BSRSub:         req.BSRSub,
		Rating:         req.Rating,
		ReviewCount:    req.ReviewCount,
		InStock:        req.InStock,
		StockLevel:     req.StockLevel,
		SellerCount:    req.SellerCount,
		BuyboxSeller:   req.BuyboxSeller,
	}
	if err := database.InsertSnapshot(ctx, pool, snapshot); err != nil {
		log.Error().Err(err).Str("product", req.ProductID).Msg("Failed to insert snapshot")
		respondError(c, apperrors.Internal("failed to store snapshot", err))
		return
	}

	c.JSON(http.StatusCreated, IngestSnapshotResponse{
		Status:     "stored",
		ProductID:  req.ProductID,
		CapturedAt: capturedAt.Format(time.RFC3339),
	})
}
