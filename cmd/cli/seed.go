package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/skuwatch/metrics-service/internal/database"
)

var (
	seedDays     int
	seedProducts int
)

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed demo products and snapshot history",
	Long: `Apply the schema and load demo products with a synthetic snapshot history:
a random-walk price, drifting BSR, and slowly accumulating reviews. Some days
are skipped so trend series stay realistically sparse.`,
	Example: `  metrics-service seed
  metrics-service seed --days 90 --products 6`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().IntVar(&seedDays, "days", 60, "Days of snapshot history to generate")
	seedCmd.Flags().IntVar(&seedProducts, "products", 4, "Number of demo products")
}

var demoCatalog = []struct {
	asin     string
	title    string
	category string
}{
	{"B08N5WRWNW", "Echo Dot (4th Gen) Smart Speaker", "smart-home"},
	{"B09B8V1LZ3", "Echo Show 8 (2nd Gen)", "smart-home"},
	{"B07FZ8S74R", "Fire TV Stick 4K", "streaming"},
	{"B08C1W5N87", "Kindle Paperwhite 11th Gen", "e-readers"},
	{"B09JQMJHXY", "Fire HD 10 Tablet", "tablets"},
	{"B01DFKC2SO", "Fire TV Cube", "streaming"},
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pool := database.Pool()

	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}
	logger.Info().Msg("Schema applied")

	if seedProducts > len(demoCatalog) {
		seedProducts = len(demoCatalog)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for _, entry := range demoCatalog[:seedProducts] {
		productID, err := database.CreateProduct(ctx, pool, entry.asin, entry.title, entry.category)
		if err != nil {
			return err
		}

		price := 40 + rng.Float64()*60
		bsr := 500 + rng.Intn(5000)
		rating := 4.0 + rng.Float64()*0.8
		reviews := 1000 + rng.Intn(20000)

		inserted := 0
		for day := seedDays - 1; day >= 0; day-- {
			// Skip roughly one day in six so series are sparse.
			if rng.Intn(6) == 0 {
				continue
			}

			price += (rng.Float64() - 0.5) * 3
			if price < 10 {
				price = 10
			}
			bsr += rng.Intn(400) - 200
			if bsr < 1 {
				bsr = 1
			}
			reviews += rng.Intn(50)

			capturedAt := time.Now().UTC().AddDate(0, 0, -day).
				Truncate(24 * time.Hour).Add(time.Duration(rng.Intn(24)) * time.Hour)

			buybox := price - rng.Float64()*2
			original := price * 1.2
			bsrMain := float64(bsr)
			ratingV := rating
			reviewsV := float64(reviews)
			inStock := rng.Intn(20) != 0
			sellers := float64(1 + rng.Intn(8))

			snapshot := &database.Snapshot{
				ProductID:     productID,
				CapturedAt:    capturedAt,
				Price:         &price,
				BuyboxPrice:   &buybox,
				OriginalPrice: &original,
				BSRMain:       &bsrMain,
				Rating:        &ratingV,
				ReviewCount:   &reviewsV,
				InStock:       &inStock,
				SellerCount:   &sellers,
			}
			if err := database.InsertSnapshot(ctx, pool, snapshot); err != nil {
				return err
			}
			inserted++
		}

		logger.Info().
			Str("product", productID).
			Str("asin", entry.asin).
			Int("snapshots", inserted).
			Msg("Seeded product")
	}

	fmt.Printf("Seeded %d products with up to %d days of history\n", seedProducts, seedDays)
	return nil
}
