package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skuwatch/metrics-service/internal/database"
	"github.com/skuwatch/metrics-service/pkg/trends"
)

var (
	compareMetric  string
	compareDays    int
	compareAverage bool
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <product-id>...",
	Short: "Compare products on one metric dimension",
	Long: `Compare two or more tracked products on a metric bundle (price, bsr,
rating, reviews) over a shared time window, optionally overlaying the
category average of the first product's category.`,
	Example: `  metrics-service compare 4f9d1c 81aa02 --metric price
  metrics-service compare 4f9d1c 81aa02 --metric bsr --days 90 --category-average`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVar(&compareMetric, "metric", "price", "Metric bundle: price, bsr, rating, or reviews")
	compareCmd.Flags().IntVar(&compareDays, "days", 30, "Time window in days (1-365)")
	compareCmd.Flags().BoolVar(&compareAverage, "category-average", false, "Include the category average overlay")
}

func runCompare(cmd *cobra.Command, args []string) error {
	engine := trends.NewEngine(
		database.NewSnapshotStore(database.Pool()),
		trends.EngineConfig{CacheTTL: 0},
	)

	result, err := engine.CompareProducts(cmd.Context(), trends.ComparisonQuery{
		ProductIDs:             args,
		MetricType:             trends.MetricType(compareMetric),
		Days:                   compareDays,
		IncludeCategoryAverage: compareAverage,
	})
	if err != nil {
		return err
	}

	for _, p := range result.Products {
		fmt.Printf("%s (%s) %s: %d points\n", p.Title, p.ASIN, strings.ToUpper(string(result.MetricType)), len(p.DataPoints))
	}
	if result.CategoryAverage != nil {
		fmt.Printf("category average: %d points\n", len(result.CategoryAverage))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
